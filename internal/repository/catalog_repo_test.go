package repository

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oekaki-dex/backend/internal/common"
	"github.com/oekaki-dex/backend/internal/domain"
)

func newTestRepo(t *testing.T) *CatalogRepository {
	t.Helper()
	return NewCatalogRepository(filepath.Join(t.TempDir(), "entries.json"))
}

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	repo := newTestRepo(t)

	entries, err := repo.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadCorruptDocument(t *testing.T) {
	dataFile := filepath.Join(t.TempDir(), "entries.json")
	require.NoError(t, os.WriteFile(dataFile, []byte("{not json"), 0o644))

	repo := NewCatalogRepository(dataFile)
	_, err := repo.Load()
	assert.ErrorIs(t, err, common.ErrCatalogCorrupt)
}

func TestAppendAssignsSequentialIDs(t *testing.T) {
	repo := newTestRepo(t)

	for i := 0; i < 5; i++ {
		entry := domain.Entry{Name: "creature", CreatedAt: int64(i)}
		require.NoError(t, repo.Append(&entry))
		assert.Equal(t, []string{"1", "2", "3", "4", "5"}[i], entry.ID)
	}

	entries, err := repo.Load()
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestDeletedIDsAreNotReused(t *testing.T) {
	repo := newTestRepo(t)

	for i := 0; i < 3; i++ {
		entry := domain.Entry{Name: "creature"}
		require.NoError(t, repo.Append(&entry))
	}

	require.NoError(t, repo.Remove("2"))

	entry := domain.Entry{Name: "late arrival"}
	require.NoError(t, repo.Append(&entry))
	assert.Equal(t, "4", entry.ID)
}

func TestNextIDIgnoresNonNumericIDs(t *testing.T) {
	repo := newTestRepo(t)

	assert.Equal(t, "1", repo.NextID(nil))
	assert.Equal(t, "1", repo.NextID([]domain.Entry{{ID: "legacy"}}))
	assert.Equal(t, "8", repo.NextID([]domain.Entry{{ID: "7"}, {ID: "x"}, {ID: "3"}}))
}

func TestRemoveUnknownIDLeavesCatalogUnchanged(t *testing.T) {
	repo := newTestRepo(t)

	entry := domain.Entry{Name: "keeper"}
	require.NoError(t, repo.Append(&entry))

	err := repo.Remove("9999")
	assert.ErrorIs(t, err, common.ErrEntryNotFound)

	entries, loadErr := repo.Load()
	require.NoError(t, loadErr)
	assert.Len(t, entries, 1)
	assert.Equal(t, "1", entries[0].ID)
}

func TestFindByID(t *testing.T) {
	repo := newTestRepo(t)

	entry := domain.Entry{Name: "found"}
	require.NoError(t, repo.Append(&entry))

	got, err := repo.FindByID("1")
	require.NoError(t, err)
	assert.Equal(t, "found", got.Name)

	_, err = repo.FindByID("2")
	assert.ErrorIs(t, err, common.ErrEntryNotFound)
}

func TestListOrdersNewestFirst(t *testing.T) {
	repo := newTestRepo(t)

	for _, ts := range []int64{100, 300, 200} {
		entry := domain.Entry{Name: "c", CreatedAt: ts}
		require.NoError(t, repo.Append(&entry))
	}

	entries, err := repo.List(20)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(300), entries[0].CreatedAt)
	assert.Equal(t, int64(200), entries[1].CreatedAt)
	assert.Equal(t, int64(100), entries[2].CreatedAt)
}

func TestListLimits(t *testing.T) {
	repo := newTestRepo(t)

	for i := 0; i < 3; i++ {
		entry := domain.Entry{CreatedAt: int64(i)}
		require.NoError(t, repo.Append(&entry))
	}

	entries, err := repo.List(2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = repo.List(0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = repo.List(50)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestConcurrentAppendsGetDistinctIDs(t *testing.T) {
	repo := newTestRepo(t)

	const writers = 8
	var wg sync.WaitGroup
	ids := make([]string, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			entry := domain.Entry{Name: "racer"}
			if err := repo.Append(&entry); err == nil {
				ids[idx] = entry.ID
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, id := range ids {
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}

	entries, err := repo.Load()
	require.NoError(t, err)
	assert.Len(t, entries, writers)
}
