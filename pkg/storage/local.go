package storage

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oekaki-dex/backend/internal/common"
	pkglogger "github.com/oekaki-dex/backend/pkg/logger"
)

// LocalStore persists image blobs on the local filesystem under a
// date-partitioned directory tree:
//
//	{root}/{YYYY-MM-DD}/{fileID}.png
//
// Writes are independent per generated file name, so no cross-request
// coordination is needed.
type LocalStore struct {
	root string
}

// NewLocalStore creates a local blob store rooted at the given directory,
// creating it if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMediaWrite, err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMediaWrite, err)
	}
	return &LocalStore{root: abs}, nil
}

// Root returns the absolute media root
func (s *LocalStore) Root() string {
	return s.root
}

// Store decodes a base64 image payload (tolerating an optional data-URL
// prefix, everything before the first comma is discarded) and writes it
// under today's date partition. Returns the path relative to the root,
// e.g. "2025-09-01/3f2a...c1.png".
func (s *LocalStore) Store(dataURL string) (string, error) {
	b64 := dataURL
	if i := strings.Index(dataURL, ","); i >= 0 {
		b64 = dataURL[i+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidImageData, err)
	}

	dateKey := time.Now().Format("2006-01-02")
	dir := filepath.Join(s.root, dateKey)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrMediaWrite, err)
	}

	fileName := strings.ReplaceAll(uuid.New().String(), "-", "") + ".png"
	if err := os.WriteFile(filepath.Join(dir, fileName), raw, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrMediaWrite, err)
	}

	relPath := dateKey + "/" + fileName

	pkglogger.GetLogger().Info().
		Str("path", relPath).
		Int("size", len(raw)).
		Msg("image stored")

	return relPath, nil
}

// Remove deletes the blob at the given relative path. A missing file is
// not an error; delete is idempotent.
func (s *LocalStore) Remove(relPath string) error {
	abs, err := s.Resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", common.ErrMediaWrite, err)
	}
	return nil
}

// Resolve joins the relative path to the media root and verifies the
// result is still contained within it, guarding against ".." traversal
// and absolute-path injection.
func (s *LocalStore) Resolve(relPath string) (string, error) {
	if filepath.IsAbs(relPath) {
		return "", common.ErrPathTraversal
	}
	abs, err := filepath.Abs(filepath.Join(s.root, relPath))
	if err != nil {
		return "", common.ErrPathTraversal
	}
	if abs != s.root && !strings.HasPrefix(abs, s.root+string(filepath.Separator)) {
		return "", common.ErrPathTraversal
	}
	return abs, nil
}
