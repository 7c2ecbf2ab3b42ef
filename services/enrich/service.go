// Package enrich looks up descriptive film metadata (title, synopsis,
// rating, genres, artwork) by IMDB id across an ordered chain of
// enrichment providers.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"cinebay/internal/cache"
	"cinebay/models"
)

// provider is a single enrichment upstream. lookup returns
// models.ErrNotFound when the provider does not know the title.
type provider interface {
	tag() string
	lookup(ctx context.Context, imdbID string) (*models.Enrichment, error)
}

// Service tries each provider in order and stops at the first success.
// The order is an explicit priority list: the first provider is
// authoritative and later ones are consulted only after it fails or
// reports not-found, never raced against it.
type Service struct {
	providers []provider
	cache     cache.Store
	ttl       time.Duration
}

// NewService builds the chain with the production provider order:
// OMDb first, TMDB as fallback.
func NewService(omdbAPIKey, tmdbAPIKey string, store cache.Store, ttl time.Duration, httpc *http.Client) *Service {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{
		providers: []provider{
			newOMDBClient(omdbAPIKey, httpc),
			newTMDBClient(tmdbAPIKey, httpc),
		},
		cache: store,
		ttl:   ttl,
	}
}

// Lookup returns enrichment metadata for the given IMDB id, consulting the
// per-provider cache before each upstream call. models.ErrNotFound is
// returned once every provider has been attempted without success.
func (s *Service) Lookup(ctx context.Context, imdbID string) (*models.Enrichment, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, fmt.Errorf("imdb id is required")
	}

	for _, p := range s.providers {
		key := enrichmentCacheKey(p.tag(), imdbID)
		if v, ok := s.cache.Get(key); ok {
			if e, ok := v.(*models.Enrichment); ok {
				return e, nil
			}
		}

		e, err := p.lookup(ctx, imdbID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				log.Printf("[enrich] %s has no record for %s, trying next provider", p.tag(), imdbID)
			} else {
				log.Printf("[enrich] %s lookup failed for %s: %v", p.tag(), imdbID, err)
			}
			continue
		}

		s.cache.Set(key, e, s.ttl)
		return e, nil
	}

	return nil, models.ErrNotFound
}

func enrichmentCacheKey(tag, imdbID string) string {
	return fmt.Sprintf("enrich:%s:%s", tag, imdbID)
}

// Merge applies enrichment metadata onto a listing-sourced movie. All
// descriptive fields are replaced; torrents and the listing identifiers
// (source, imdb_code) are preserved.
func Merge(movie models.Movie, e *models.Enrichment) models.Movie {
	if e == nil {
		return movie
	}
	if e.Title != "" {
		movie.Title = e.Title
	}
	if e.Year != 0 {
		movie.Year = e.Year
	}
	if e.Rating != 0 {
		movie.Rating = e.Rating
	}
	if e.Thumbnail != "" {
		movie.Thumbnail = e.Thumbnail
	}
	if e.BackgroundImage != "" {
		movie.BackgroundImage = e.BackgroundImage
	}
	if e.Synopsis != "" {
		movie.Synopsis = e.Synopsis
	}
	if e.Runtime != 0 {
		movie.Runtime = e.Runtime
	}
	if e.MPARating != "" {
		movie.MPARating = e.MPARating
	}
	if len(e.Genres) > 0 {
		movie.Genres = append([]string(nil), e.Genres...)
	}
	return movie
}

// AsMovie builds a minimal catalog record from enrichment metadata alone,
// for titles reached through a direct id lookup with no listing source.
// Torrents stay empty and the source reflects the enrichment provider.
func AsMovie(e *models.Enrichment) models.Movie {
	return models.Movie{
		Source:          e.Provider,
		IMDBCode:        e.IMDBCode,
		Title:           e.Title,
		Year:            e.Year,
		Rating:          e.Rating,
		Thumbnail:       e.Thumbnail,
		BackgroundImage: e.BackgroundImage,
		Synopsis:        e.Synopsis,
		Runtime:         e.Runtime,
		MPARating:       e.MPARating,
		Genres:          append([]string(nil), e.Genres...),
		Torrents:        []models.Torrent{},
	}
}
