package enrich

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"cinebay/internal/cache"
	"cinebay/models"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

// countingProvider records lookup attempts for chain-order assertions.
type countingProvider struct {
	name   string
	calls  int
	result *models.Enrichment
	err    error
}

func (p *countingProvider) tag() string { return p.name }

func (p *countingProvider) lookup(ctx context.Context, imdbID string) (*models.Enrichment, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

func newChain(store cache.Store, providers ...provider) *Service {
	return &Service{providers: providers, cache: store, ttl: time.Hour}
}

func TestLookupStopsAtFirstSuccess(t *testing.T) {
	store := cache.NewMemory()
	defer store.Close()

	a := &countingProvider{name: "OMDb", result: &models.Enrichment{Provider: "OMDb", IMDBCode: "tt1375666", Title: "Inception"}}
	b := &countingProvider{name: "TMDB", result: &models.Enrichment{Provider: "TMDB", IMDBCode: "tt1375666", Title: "Inception (TMDB)"}}

	svc := newChain(store, a, b)

	e, err := svc.Lookup(context.Background(), "tt1375666")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if e.Provider != "OMDb" {
		t.Fatalf("expected OMDb result to win, got %q", e.Provider)
	}
	if a.calls != 1 {
		t.Fatalf("expected 1 call to provider A, got %d", a.calls)
	}
	if b.calls != 0 {
		t.Fatalf("provider B must not be consulted when A succeeds, got %d calls", b.calls)
	}
}

func TestLookupFallsBackOnNotFound(t *testing.T) {
	store := cache.NewMemory()
	defer store.Close()

	a := &countingProvider{name: "OMDb", err: models.ErrNotFound}
	b := &countingProvider{name: "TMDB", result: &models.Enrichment{Provider: "TMDB", IMDBCode: "tt0816692"}}

	svc := newChain(store, a, b)

	e, err := svc.Lookup(context.Background(), "tt0816692")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if e.Provider != "TMDB" {
		t.Fatalf("expected fallback to TMDB, got %q", e.Provider)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Fatalf("expected A then B exactly once each, got A=%d B=%d", a.calls, b.calls)
	}
}

func TestLookupFallsBackOnProviderError(t *testing.T) {
	store := cache.NewMemory()
	defer store.Close()

	a := &countingProvider{name: "OMDb", err: errors.New("upstream timeout")}
	b := &countingProvider{name: "TMDB", result: &models.Enrichment{Provider: "TMDB", IMDBCode: "tt0133093"}}

	svc := newChain(store, a, b)

	e, err := svc.Lookup(context.Background(), "tt0133093")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if e.Provider != "TMDB" {
		t.Fatalf("expected TMDB fallback after A error, got %q", e.Provider)
	}
}

func TestLookupAllFailReturnsNotFound(t *testing.T) {
	store := cache.NewMemory()
	defer store.Close()

	a := &countingProvider{name: "OMDb", err: errors.New("unreachable")}
	b := &countingProvider{name: "TMDB", err: models.ErrNotFound}

	svc := newChain(store, a, b)

	_, err := svc.Lookup(context.Background(), "tt9999999")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLookupUsesCacheBeforeUpstream(t *testing.T) {
	store := cache.NewMemory()
	defer store.Close()

	a := &countingProvider{name: "OMDb", result: &models.Enrichment{Provider: "OMDb", IMDBCode: "tt0111161"}}
	svc := newChain(store, a)

	if _, err := svc.Lookup(context.Background(), "tt0111161"); err != nil {
		t.Fatalf("first Lookup failed: %v", err)
	}
	if _, err := svc.Lookup(context.Background(), "tt0111161"); err != nil {
		t.Fatalf("second Lookup failed: %v", err)
	}

	if a.calls != 1 {
		t.Fatalf("expected exactly one upstream call within the TTL window, got %d", a.calls)
	}
}

func TestOMDBLookupParsesPayload(t *testing.T) {
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("i") != "tt26443597" {
				t.Fatalf("unexpected imdb id in request: %s", req.URL.String())
			}
			return jsonResponse(http.StatusOK, `{
				"Title":"Zootopia 2","Year":"2025","Rated":"PG","Runtime":"108 min",
				"Genre":"Animation, Action, Adventure","Plot":"Judy and Nick team up again.",
				"Poster":"https://m.media-amazon.com/images/M/poster.jpg",
				"imdbRating":"7.8","imdbID":"tt26443597","Response":"True"}`), nil
		}),
	}

	client := newOMDBClient("test-key", httpc)

	e, err := client.lookup(context.Background(), "tt26443597")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if e.Title != "Zootopia 2" || e.Year != 2025 {
		t.Fatalf("unexpected title/year: %q %d", e.Title, e.Year)
	}
	if e.Rating != 7.8 {
		t.Fatalf("expected rating 7.8, got %v", e.Rating)
	}
	if e.Runtime != 108 {
		t.Fatalf("expected runtime 108, got %d", e.Runtime)
	}
	if len(e.Genres) != 3 || e.Genres[0] != "Animation" {
		t.Fatalf("unexpected genres: %v", e.Genres)
	}
	if e.MPARating != "PG" {
		t.Fatalf("unexpected mpa rating: %q", e.MPARating)
	}
}

func TestOMDBLookupNotFound(t *testing.T) {
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"Response":"False","Error":"Incorrect IMDb ID."}`), nil
		}),
	}

	client := newOMDBClient("test-key", httpc)

	_, err := client.lookup(context.Background(), "tt0000000")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOMDBNormalizeSparsePayload(t *testing.T) {
	e := normalizeOMDB(omdbTitleResponse{
		Title:      "Obscure Film",
		Year:       "N/A",
		Rated:      "N/A",
		Runtime:    "N/A",
		Genre:      "N/A",
		Plot:       "N/A",
		Poster:     "N/A",
		IMDBRating: "N/A",
		IMDBID:     "tt7777777",
		Response:   "True",
	})

	if e.Title != "Obscure Film" {
		t.Fatalf("unexpected title: %q", e.Title)
	}
	if e.Year != 0 || e.Rating != 0 || e.Runtime != 0 {
		t.Fatalf("expected zero defaults for absent fields, got %+v", e)
	}
	if e.Synopsis != "" || e.Thumbnail != "" || e.MPARating != "" {
		t.Fatalf("expected empty-string defaults for absent fields, got %+v", e)
	}
	if len(e.Genres) != 0 {
		t.Fatalf("expected no genres, got %v", e.Genres)
	}
}

func TestTMDBLookupResolvesIMDBID(t *testing.T) {
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			path := req.URL.Path
			if strings.HasPrefix(path, "/3/find/tt1375666") {
				return jsonResponse(http.StatusOK, `{"movie_results":[{"id":27205}]}`), nil
			}
			if path == "/3/movie/27205" {
				return jsonResponse(http.StatusOK, `{
					"id":27205,"title":"Inception","overview":"A thief who steals secrets.",
					"poster_path":"/poster.jpg","backdrop_path":"/backdrop.jpg",
					"release_date":"2010-07-16","vote_average":8.4,"runtime":148,
					"imdb_id":"tt1375666","genres":[{"id":28,"name":"Action"},{"id":878,"name":"Science Fiction"}]}`), nil
			}
			t.Fatalf("unhandled request: %s", req.URL.String())
			return nil, nil
		}),
	}

	client := newTMDBClient("test-key", httpc)

	e, err := client.lookup(context.Background(), "tt1375666")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if e.Title != "Inception" || e.Year != 2010 {
		t.Fatalf("unexpected title/year: %q %d", e.Title, e.Year)
	}
	if e.Runtime != 148 || e.Rating != 8.4 {
		t.Fatalf("unexpected runtime/rating: %d %v", e.Runtime, e.Rating)
	}
	if !strings.Contains(e.Thumbnail, "w500/poster.jpg") {
		t.Fatalf("unexpected thumbnail: %q", e.Thumbnail)
	}
	if !strings.Contains(e.BackgroundImage, "w1280/backdrop.jpg") {
		t.Fatalf("unexpected backdrop: %q", e.BackgroundImage)
	}
}

func TestTMDBLookupNotFound(t *testing.T) {
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"movie_results":[]}`), nil
		}),
	}

	client := newTMDBClient("test-key", httpc)

	_, err := client.lookup(context.Background(), "tt0000000")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMergePreservesTorrentsAndIdentity(t *testing.T) {
	listing := models.Movie{
		Source:   models.SourceAPIBay,
		IMDBCode: "tt1375666",
		Title:    "Inception 2010 1080p x265-RMTeam",
		Torrents: []models.Torrent{{Hash: "abc", Quality: "1080p", Seeds: 100}},
	}
	e := &models.Enrichment{
		Provider: models.SourceOMDb,
		IMDBCode: "tt1375666",
		Title:    "Inception",
		Year:     2010,
		Rating:   8.8,
		Synopsis: "A thief who steals corporate secrets.",
		Genres:   []string{"Action", "Sci-Fi"},
	}

	merged := Merge(listing, e)

	if merged.Title != "Inception" {
		t.Fatalf("descriptive fields must come from enrichment, got title %q", merged.Title)
	}
	if merged.Source != models.SourceAPIBay {
		t.Fatalf("listing source must be preserved, got %q", merged.Source)
	}
	if merged.IMDBCode != "tt1375666" {
		t.Fatalf("listing identifier must be preserved, got %q", merged.IMDBCode)
	}
	if len(merged.Torrents) != 1 || merged.Torrents[0].Hash != "abc" {
		t.Fatalf("torrents must never be touched by enrichment: %+v", merged.Torrents)
	}
}

func TestAsMovieHasEmptyTorrents(t *testing.T) {
	m := AsMovie(&models.Enrichment{Provider: models.SourceTMDB, IMDBCode: "tt0816692", Title: "Interstellar"})
	if m.Source != models.SourceTMDB {
		t.Fatalf("expected TMDB source tag, got %q", m.Source)
	}
	if m.Torrents == nil || len(m.Torrents) != 0 {
		t.Fatalf("expected empty (non-nil) torrents, got %#v", m.Torrents)
	}
}
