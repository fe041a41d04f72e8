package service

import (
	"context"
	"strings"
	"time"

	"github.com/oekaki-dex/backend/internal/common"
	"github.com/oekaki-dex/backend/internal/domain"
	"github.com/oekaki-dex/backend/internal/repository"
	pkglogger "github.com/oekaki-dex/backend/pkg/logger"
	"github.com/oekaki-dex/backend/pkg/storage"
)

// Generator derives creature metadata from a stored drawing
type Generator interface {
	Generate(ctx context.Context, imagePath, name, hint string) (domain.GeneratedProfile, error)
}

// DexService orchestrates media storage, generation and the catalog for
// submissions, listing and deletion.
type DexService struct {
	catalog *repository.CatalogRepository
	media   *storage.LocalStore
	gen     Generator
}

// NewDexService creates a new DexService
func NewDexService(catalog *repository.CatalogRepository, media *storage.LocalStore, gen Generator) *DexService {
	return &DexService{
		catalog: catalog,
		media:   media,
		gen:     gen,
	}
}

// Submit handles one drawing submission: persist the image, derive the
// profile, then append the entry to the catalog. The image is written
// before any catalog mutation so a failure never leaves an orphan record,
// and the generation call runs outside the catalog critical section.
func (s *DexService) Submit(ctx context.Context, name, hint, imageData string) (*domain.Entry, error) {
	name = strings.TrimSpace(name)
	hint = strings.TrimSpace(hint)
	if name == "" || imageData == "" {
		return nil, common.ErrInvalidInput
	}

	relPath, err := s.media.Store(imageData)
	if err != nil {
		return nil, err
	}

	absPath, err := s.media.Resolve(relPath)
	if err != nil {
		return nil, err
	}

	profile, err := s.gen.Generate(ctx, absPath, name, hint)
	if err != nil {
		return nil, err
	}

	entry := domain.NewEntry("", name, hint, relPath, time.Now().UnixMilli(), profile)
	if err := s.catalog.Append(&entry); err != nil {
		return nil, err
	}

	pkglogger.GetLogger().Info().
		Str("id", entry.ID).
		Str("name", entry.Name).
		Str("image_path", entry.ImagePath).
		Msg("entry created")

	return &entry, nil
}

// List returns up to limit entries, newest first
func (s *DexService) List(limit int) ([]domain.Entry, error) {
	return s.catalog.List(limit)
}

// Delete removes an entry and its backing image. The image goes first so
// a crash mid-operation leaves at worst an orphaned record, never a
// record pointing at a vanished image; a missing image file is tolerated.
func (s *DexService) Delete(id string) error {
	entry, err := s.catalog.FindByID(id)
	if err != nil {
		return err
	}

	if err := s.media.Remove(entry.ImagePath); err != nil {
		return err
	}

	if err := s.catalog.Remove(id); err != nil {
		return err
	}

	pkglogger.GetLogger().Info().Str("id", id).Msg("entry deleted")
	return nil
}
