package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/oekaki-dex/backend/internal/common"
	"github.com/oekaki-dex/backend/internal/domain"
)

// CatalogRepository persists the full entry collection as one JSON
// document. Every mutation re-reads the document, applies the change and
// rewrites it wholesale; mu serializes the whole load-mutate-save cycle so
// concurrent writers cannot lose updates or hand out duplicate IDs.
type CatalogRepository struct {
	dataFile string
	mu       sync.Mutex
}

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository(dataFile string) *CatalogRepository {
	return &CatalogRepository{dataFile: dataFile}
}

// Load reads the catalog document. A missing document is an empty catalog.
func (r *CatalogRepository) Load() ([]domain.Entry, error) {
	data, err := os.ReadFile(r.dataFile)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Entry{}, nil
		}
		return nil, fmt.Errorf("%w: %v", common.ErrCatalogCorrupt, err)
	}

	var entries []domain.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCatalogCorrupt, err)
	}
	return entries, nil
}

// Save overwrites the catalog document with the given entries, preserving
// order. The document is written to a temp file and renamed over the
// target so a crash never leaves a truncated catalog.
func (r *CatalogRepository) Save(entries []domain.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrCatalogWrite, err)
	}

	dir := filepath.Dir(r.dataFile)
	tmp, err := os.CreateTemp(dir, ".entries-*.json")
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrCatalogWrite, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", common.ErrCatalogWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", common.ErrCatalogWrite, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", common.ErrCatalogWrite, err)
	}
	if err := os.Rename(tmpName, r.dataFile); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", common.ErrCatalogWrite, err)
	}
	return nil
}

// NextID computes max(numeric ids)+1 over the given entries, or 1 for an
// empty catalog. Non-numeric ids are ignored. Numbers freed by deletion
// are retired, not reused, because assignment is monotonic per call.
func (r *CatalogRepository) NextID(entries []domain.Entry) string {
	maxID := 0
	for _, e := range entries {
		if n, err := strconv.Atoi(e.ID); err == nil && n > maxID {
			maxID = n
		}
	}
	return strconv.Itoa(maxID + 1)
}

// Append assigns the next id to the entry, appends it and persists the
// catalog. The assigned id is written back into the entry.
func (r *CatalogRepository) Append(entry *domain.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.Load()
	if err != nil {
		return err
	}
	entry.ID = r.NextID(entries)
	entries = append(entries, *entry)
	return r.Save(entries)
}

// Remove deletes the entry with the given id and persists the catalog.
// The catalog is left untouched when the id is absent.
func (r *CatalogRepository) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.Load()
	if err != nil {
		return err
	}

	kept := entries[:0:0]
	found := false
	for _, e := range entries {
		if e.ID == id {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return common.ErrEntryNotFound
	}
	return r.Save(kept)
}

// FindByID returns the entry with the given id
func (r *CatalogRepository) FindByID(id string) (*domain.Entry, error) {
	entries, err := r.Load()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
	}
	return nil, common.ErrEntryNotFound
}

// List returns up to limit entries sorted by created_at descending.
// A limit of zero or less yields an empty slice.
func (r *CatalogRepository) List(limit int) ([]domain.Entry, error) {
	entries, err := r.Load()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt > entries[j].CreatedAt
	})

	if limit <= 0 {
		return []domain.Entry{}, nil
	}
	if limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}
