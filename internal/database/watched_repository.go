package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Relation names for the per-user movie tables.
const (
	tableWatched    = "watched_movies"
	tableWatchLater = "watch_later_movies"
)

// MovieRef is one (user, movie) row from a per-user relation.
type MovieRef struct {
	MovieID   string
	CreatedAt time.Time
}

// WatchedRepository persists the per-user watched and watch-later
// relations. Rows are inserted and deleted, never updated in place;
// repeating an insert or deleting an absent row is not an error.
type WatchedRepository struct {
	db *sql.DB
}

// NewWatchedRepository creates a repository using the given connection.
func NewWatchedRepository(db *sql.DB) *WatchedRepository {
	return &WatchedRepository{db: db}
}

// MarkWatched records that the user has watched the movie. Idempotent.
func (r *WatchedRepository) MarkWatched(userID int64, movieID string) error {
	return r.insert(tableWatched, userID, movieID)
}

// UnmarkWatched removes the watched mark. Removing an absent mark is a no-op.
func (r *WatchedRepository) UnmarkWatched(userID int64, movieID string) error {
	return r.remove(tableWatched, userID, movieID)
}

// AddWatchLater adds the movie to the user's watch-later list. Idempotent.
func (r *WatchedRepository) AddWatchLater(userID int64, movieID string) error {
	return r.insert(tableWatchLater, userID, movieID)
}

// RemoveWatchLater removes the movie from the user's watch-later list.
func (r *WatchedRepository) RemoveWatchLater(userID int64, movieID string) error {
	return r.remove(tableWatchLater, userID, movieID)
}

// WatchedSet returns which of the given movie ids the user has watched,
// as a membership set, using a single query.
func (r *WatchedRepository) WatchedSet(userID int64, movieIDs []string) (map[string]struct{}, error) {
	return r.membership(tableWatched, userID, movieIDs)
}

// WatchLaterSet returns which of the given movie ids are on the user's
// watch-later list.
func (r *WatchedRepository) WatchLaterSet(userID int64, movieIDs []string) (map[string]struct{}, error) {
	return r.membership(tableWatchLater, userID, movieIDs)
}

// ListWatched returns a page of the user's watched movie ids, most recent
// first.
func (r *WatchedRepository) ListWatched(userID int64, page, limit int) ([]MovieRef, error) {
	return r.list(tableWatched, userID, page, limit)
}

// ListWatchLater returns a page of the user's watch-later movie ids.
func (r *WatchedRepository) ListWatchLater(userID int64, page, limit int) ([]MovieRef, error) {
	return r.list(tableWatchLater, userID, page, limit)
}

// CountWatched returns the total number of watched rows for the user.
func (r *WatchedRepository) CountWatched(userID int64) (int, error) {
	return r.count(tableWatched, userID)
}

// CountWatchLater returns the total number of watch-later rows for the user.
func (r *WatchedRepository) CountWatchLater(userID int64) (int, error) {
	return r.count(tableWatchLater, userID)
}

func (r *WatchedRepository) insert(table string, userID int64, movieID string) error {
	if userID <= 0 || movieID == "" {
		return fmt.Errorf("user id and movie id are required")
	}
	query := fmt.Sprintf("INSERT OR IGNORE INTO %s (user_id, movie_id) VALUES (?, ?)", table)
	if _, err := r.db.Exec(query, userID, movieID); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

func (r *WatchedRepository) remove(table string, userID int64, movieID string) error {
	if userID <= 0 || movieID == "" {
		return fmt.Errorf("user id and movie id are required")
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE user_id = ? AND movie_id = ?", table)
	if _, err := r.db.Exec(query, userID, movieID); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

func (r *WatchedRepository) membership(table string, userID int64, movieIDs []string) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(movieIDs))
	if userID <= 0 || len(movieIDs) == 0 {
		return set, nil
	}

	placeholders := strings.Repeat("?,", len(movieIDs))
	placeholders = placeholders[:len(placeholders)-1]
	query := fmt.Sprintf(
		"SELECT movie_id FROM %s WHERE user_id = ? AND movie_id IN (%s)",
		table, placeholders,
	)

	args := make([]any, 0, len(movieIDs)+1)
	args = append(args, userID)
	for _, id := range movieIDs {
		args = append(args, id)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s membership: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		set[id] = struct{}{}
	}
	return set, rows.Err()
}

func (r *WatchedRepository) list(table string, userID int64, page, limit int) ([]MovieRef, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	query := fmt.Sprintf(
		"SELECT movie_id, created_at FROM %s WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		table,
	)
	rows, err := r.db.Query(query, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var refs []MovieRef
	for rows.Next() {
		var ref MovieRef
		if err := rows.Scan(&ref.MovieID, &ref.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *WatchedRepository) count(table string, userID int64) (int, error) {
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE user_id = ?", table)
	if err := r.db.QueryRow(query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
