package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRepo creates a test database and watched repository.
func setupTestRepo(t *testing.T) *WatchedRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDB(Config{DatabasePath: dbPath})
	require.NoError(t, err, "failed to create test database")
	t.Cleanup(func() { db.Close() })

	return NewWatchedRepository(db.Connection())
}

func TestMarkWatchedIdempotent(t *testing.T) {
	repo := setupTestRepo(t)

	require.NoError(t, repo.MarkWatched(1, "tt1375666"))
	require.NoError(t, repo.MarkWatched(1, "tt1375666"))

	n, err := repo.CountWatched(1)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "repeated mark must leave exactly one row")
}

func TestUnmarkWatchedAbsentIsNoError(t *testing.T) {
	repo := setupTestRepo(t)

	require.NoError(t, repo.UnmarkWatched(1, "tt0000001"))

	require.NoError(t, repo.MarkWatched(1, "tt0000001"))
	require.NoError(t, repo.UnmarkWatched(1, "tt0000001"))

	n, err := repo.CountWatched(1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestWatchedSetBatches(t *testing.T) {
	repo := setupTestRepo(t)

	require.NoError(t, repo.MarkWatched(7, "tt0111161"))
	require.NoError(t, repo.MarkWatched(7, "tt0068646"))
	require.NoError(t, repo.MarkWatched(8, "tt1375666")) // other user

	set, err := repo.WatchedSet(7, []string{"tt0111161", "tt0068646", "tt1375666", "tt0133093"})
	require.NoError(t, err)

	assert.Len(t, set, 2)
	assert.Contains(t, set, "tt0111161")
	assert.Contains(t, set, "tt0068646")
	assert.NotContains(t, set, "tt1375666", "membership must be scoped to the user")
}

func TestWatchedSetEmptyInput(t *testing.T) {
	repo := setupTestRepo(t)

	set, err := repo.WatchedSet(7, nil)
	require.NoError(t, err)
	assert.Empty(t, set)

	set, err = repo.WatchedSet(0, []string{"tt0111161"})
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestWatchLaterIndependentOfWatched(t *testing.T) {
	repo := setupTestRepo(t)

	require.NoError(t, repo.AddWatchLater(3, "tt0816692"))

	watched, err := repo.WatchedSet(3, []string{"tt0816692"})
	require.NoError(t, err)
	assert.Empty(t, watched)

	later, err := repo.WatchLaterSet(3, []string{"tt0816692"})
	require.NoError(t, err)
	assert.Contains(t, later, "tt0816692")

	require.NoError(t, repo.RemoveWatchLater(3, "tt0816692"))
	n, err := repo.CountWatchLater(3)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestListWatchedPagination(t *testing.T) {
	repo := setupTestRepo(t)

	ids := []string{"tt0000001", "tt0000002", "tt0000003"}
	for _, id := range ids {
		require.NoError(t, repo.MarkWatched(5, id))
	}

	page, err := repo.ListWatched(5, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	page, err = repo.ListWatched(5, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	page, err = repo.ListWatched(5, 3, 2)
	require.NoError(t, err)
	assert.Empty(t, page)
}
