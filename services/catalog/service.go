package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"

	"cinebay/internal/cache"
	"cinebay/models"
	"cinebay/services/enrich"
)

const (
	catalogCacheKey = "catalog:all"

	// Bound on concurrent enrichment lookups for one listing batch.
	enrichWorkers = 5
)

func searchCacheKey(query string) string { return "search:" + query }
func movieCacheKey(imdbID string) string { return "movie:" + imdbID }

// Config carries the aggregator's provider endpoints, keys and TTLs.
type Config struct {
	YTSBaseURL    string
	APIBayBaseURL string
	CatalogTTL    time.Duration
	SearchTTL     time.Duration
	HTTPClient    *http.Client
}

// Service aggregates the two listing providers into one normalized catalog,
// enriches every item through the metadata fallback chain and serves reads
// through the injected cache.
type Service struct {
	yts      *ytsClient
	apibay   *apibayClient
	enricher *enrich.Service
	cache    cache.Store

	catalogTTL time.Duration
	searchTTL  time.Duration
}

func NewService(cfg Config, enricher *enrich.Service, store cache.Store) *Service {
	if cfg.CatalogTTL <= 0 {
		cfg.CatalogTTL = 7 * 24 * time.Hour
	}
	if cfg.SearchTTL <= 0 {
		cfg.SearchTTL = cfg.CatalogTTL
	}
	return &Service{
		yts:        newYTSClient(cfg.YTSBaseURL, cfg.HTTPClient),
		apibay:     newAPIBayClient(cfg.APIBayBaseURL, cfg.HTTPClient),
		enricher:   enricher,
		cache:      store,
		catalogTTL: cfg.CatalogTTL,
		searchTTL:  cfg.SearchTTL,
	}
}

// Trending returns one page of the combined trending catalog. The full
// combined list is built once and cached under a single key; pagination is
// a slice over the cached list.
func (s *Service) Trending(ctx context.Context, page, limit int) ([]models.Movie, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	all, err := s.trendingCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return pageSlice(all, page, limit), nil
}

func (s *Service) trendingCatalog(ctx context.Context) ([]models.Movie, error) {
	if v, ok := s.cache.Get(catalogCacheKey); ok {
		if movies, ok := v.([]models.Movie); ok {
			return movies, nil
		}
	}

	// One retry on total failure. Individual provider failures inside a
	// build are tolerated, so this only fires when both listings are down.
	movies, err := retry.DoWithData(
		func() ([]models.Movie, error) { return s.buildCatalog(ctx) },
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	s.cache.Set(catalogCacheKey, movies, s.catalogTTL)
	return movies, nil
}

// buildCatalog fetches both listing providers concurrently, settles both
// results, then enriches the combined list. One provider failing yields its
// share empty; both failing is an error.
func (s *Service) buildCatalog(ctx context.Context) ([]models.Movie, error) {
	var (
		ytsMovies    []models.Movie
		apibayMovies []models.Movie
		ytsErr       error
		apibayErr    error
	)

	var wg conc.WaitGroup
	wg.Go(func() {
		items, err := s.yts.trending(ctx)
		if err != nil {
			ytsErr = err
			return
		}
		ytsMovies = normalizeYTS(items)
	})
	wg.Go(func() {
		items, err := s.apibay.trending(ctx)
		if err != nil {
			apibayErr = err
			return
		}
		apibayMovies = normalizeAPIBay(items)
	})
	wg.Wait()

	if ytsErr != nil {
		log.Printf("[catalog] YTS trending failed: %v", ytsErr)
	}
	if apibayErr != nil {
		log.Printf("[catalog] APIBay trending failed: %v", apibayErr)
	}
	if ytsErr != nil && apibayErr != nil {
		return nil, fmt.Errorf("all listing providers failed: %w", errors.Join(ytsErr, apibayErr))
	}

	combined := append(ytsMovies, apibayMovies...)
	s.enrichAll(ctx, combined)
	return combined, nil
}

// enrichAll runs the enrichment chain for each item through a bounded
// worker pool. Items stay strictly sequential inside the chain; failures
// leave the listing data untouched.
func (s *Service) enrichAll(ctx context.Context, movies []models.Movie) {
	workers := pool.New().WithMaxGoroutines(enrichWorkers)
	for i := range movies {
		i := i
		workers.Go(func() {
			e, err := s.enricher.Lookup(ctx, movies[i].IMDBCode)
			if err != nil {
				if !errors.Is(err, models.ErrNotFound) {
					log.Printf("[catalog] enrichment failed for %s: %v", movies[i].IMDBCode, err)
				}
				return
			}
			movies[i] = enrich.Merge(movies[i], e)
		})
	}
	workers.Wait()
}

// Search fans the query out to both listing providers. A provider failure
// degrades to partial results; only both failing is an error.
func (s *Service) Search(ctx context.Context, query string) ([]models.Movie, error) {
	normalized := normalizeQuery(query)
	if normalized == "" {
		return []models.Movie{}, nil
	}

	key := searchCacheKey(normalized)
	if v, ok := s.cache.Get(key); ok {
		if movies, ok := v.([]models.Movie); ok {
			return movies, nil
		}
	}

	var (
		ytsMovies    []models.Movie
		apibayMovies []models.Movie
		ytsErr       error
		apibayErr    error
	)

	var wg conc.WaitGroup
	wg.Go(func() {
		items, err := s.yts.search(ctx, normalized)
		if err != nil {
			ytsErr = err
			return
		}
		ytsMovies = normalizeYTS(items)
	})
	wg.Go(func() {
		items, err := s.apibay.search(ctx, normalized)
		if err != nil {
			apibayErr = err
			return
		}
		apibayMovies = normalizeAPIBay(items)
	})
	wg.Wait()

	if ytsErr != nil {
		log.Printf("[catalog] YTS search %q failed: %v", normalized, ytsErr)
	}
	if apibayErr != nil {
		log.Printf("[catalog] APIBay search %q failed: %v", normalized, apibayErr)
	}
	if ytsErr != nil && apibayErr != nil {
		return nil, fmt.Errorf("all listing providers failed: %w", errors.Join(ytsErr, apibayErr))
	}

	results := append(ytsMovies, apibayMovies...)
	s.enrichAll(ctx, results)

	s.cache.Set(key, results, s.searchTTL)
	for _, m := range results {
		s.cache.Set(movieCacheKey(m.IMDBCode), m, s.searchTTL)
	}
	return results, nil
}

// Library serves the browsable library straight off the primary listing
// provider's native filtering and pagination. The upstream order is kept
// as-is; pages are never cached, per-title entries are.
func (s *Service) Library(ctx context.Context, filters models.LibraryFilters) ([]models.Movie, int, error) {
	filters.Normalize()

	items, total, err := s.yts.library(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("library fetch: %w", err)
	}

	movies := normalizeYTS(items)
	s.enrichAll(ctx, movies)

	for _, m := range movies {
		s.cache.Set(movieCacheKey(m.IMDBCode), m, s.searchTTL)
	}
	return movies, total, nil
}

// Get resolves one title by IMDB id: cached trending catalog first, then the
// per-title cache, then the enrichment chain directly. A title known only to
// the enrichment providers comes back with no torrents.
func (s *Service) Get(ctx context.Context, imdbID string) (*models.Movie, error) {
	if !validIMDBCode(imdbID) {
		return nil, models.ErrNotFound
	}

	if v, ok := s.cache.Get(catalogCacheKey); ok {
		if movies, ok := v.([]models.Movie); ok {
			for i := range movies {
				if movies[i].IMDBCode == imdbID {
					// Copy so callers never hold a pointer into the
					// cached slice.
					m := movies[i]
					return &m, nil
				}
			}
		}
	}

	if v, ok := s.cache.Get(movieCacheKey(imdbID)); ok {
		if m, ok := v.(models.Movie); ok {
			return &m, nil
		}
	}

	e, err := s.enricher.Lookup(ctx, imdbID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	movie := enrich.AsMovie(e)
	s.cache.Set(movieCacheKey(imdbID), movie, s.searchTTL)
	return &movie, nil
}

// normalizeQuery lowercases and collapses whitespace so equivalent queries
// share one cache entry.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

func pageSlice(movies []models.Movie, page, limit int) []models.Movie {
	start := (page - 1) * limit
	if start >= len(movies) {
		return []models.Movie{}
	}
	end := start + limit
	if end > len(movies) {
		end = len(movies)
	}
	return movies[start:end]
}
