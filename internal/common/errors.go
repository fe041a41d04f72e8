package common

import "errors"

// Business logic errors
var (
	// Validation errors
	ErrInvalidInput = errors.New("name and imageData are required")

	// Media errors
	ErrInvalidImageData = errors.New("invalid image data")
	ErrMediaWrite       = errors.New("media write failed")
	ErrPathTraversal    = errors.New("path escapes media root")
	ErrImageNotFound    = errors.New("image not found")

	// Catalog errors
	ErrCatalogCorrupt = errors.New("catalog document is corrupt")
	ErrCatalogWrite   = errors.New("catalog write failed")
	ErrEntryNotFound  = errors.New("entry not found")

	// Generation errors
	ErrGeneration = errors.New("generation failed")
)
