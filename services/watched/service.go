// Package watched overlays per-user watched and watch-later state onto
// catalog movies and owns the mutations behind it.
package watched

import (
	"fmt"
	"log"

	"cinebay/internal/database"
	"cinebay/models"
)

type Service struct {
	repo *database.WatchedRepository
}

func NewService(repo *database.WatchedRepository) *Service {
	return &Service{repo: repo}
}

// AttachAll sets the watched flag on every movie for the given user with a
// single membership query. userID 0 means no identity: movies pass through
// untouched and the flag stays null in responses. A storage failure
// degrades the same way, logged.
func (s *Service) AttachAll(userID int64, movies []models.Movie) []models.Movie {
	if userID == 0 || len(movies) == 0 {
		return movies
	}

	ids := make([]string, 0, len(movies))
	for _, m := range movies {
		ids = append(ids, m.IMDBCode)
	}

	seen, err := s.repo.WatchedSet(userID, ids)
	if err != nil {
		log.Printf("[watched] overlay lookup failed for user %d: %v", userID, err)
		return movies
	}

	// Flags go onto copies. The input often aliases cached catalog
	// entries, and per-user state must never land in the shared cache.
	out := make([]models.Movie, len(movies))
	copy(out, movies)
	for i := range out {
		_, ok := seen[out[i].IMDBCode]
		watched := ok
		out[i].Watched = &watched
	}
	return out
}

// Attach overlays a single movie in place.
func (s *Service) Attach(userID int64, movie *models.Movie) {
	if userID == 0 || movie == nil {
		return
	}
	out := s.AttachAll(userID, []models.Movie{*movie})
	movie.Watched = out[0].Watched
}

func (s *Service) MarkWatched(userID int64, movieID string) error {
	if err := s.repo.MarkWatched(userID, movieID); err != nil {
		return fmt.Errorf("mark watched: %w", err)
	}
	return nil
}

func (s *Service) UnmarkWatched(userID int64, movieID string) error {
	if err := s.repo.UnmarkWatched(userID, movieID); err != nil {
		return fmt.Errorf("unmark watched: %w", err)
	}
	return nil
}

func (s *Service) AddWatchLater(userID int64, movieID string) error {
	if err := s.repo.AddWatchLater(userID, movieID); err != nil {
		return fmt.Errorf("add watch later: %w", err)
	}
	return nil
}

func (s *Service) RemoveWatchLater(userID int64, movieID string) error {
	if err := s.repo.RemoveWatchLater(userID, movieID); err != nil {
		return fmt.Errorf("remove watch later: %w", err)
	}
	return nil
}

// ListWatched returns one page of the user's watched history, most recent
// first, with the total row count for pagination.
func (s *Service) ListWatched(userID int64, page, limit int) ([]database.MovieRef, int, error) {
	refs, err := s.repo.ListWatched(userID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list watched: %w", err)
	}
	total, err := s.repo.CountWatched(userID)
	if err != nil {
		return nil, 0, fmt.Errorf("count watched: %w", err)
	}
	return refs, total, nil
}

func (s *Service) ListWatchLater(userID int64, page, limit int) ([]database.MovieRef, int, error) {
	refs, err := s.repo.ListWatchLater(userID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list watch later: %w", err)
	}
	total, err := s.repo.CountWatchLater(userID)
	if err != nil {
		return nil, 0, fmt.Errorf("count watch later: %w", err)
	}
	return refs, total, nil
}
