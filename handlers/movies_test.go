package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"cinebay/internal/auth"
	"cinebay/models"
)

type stubCatalog struct {
	trending []models.Movie
	searched []models.Movie
	library  []models.Movie
	total    int
	byID     map[string]models.Movie
	err      error
}

func (s *stubCatalog) Trending(ctx context.Context, page, limit int) ([]models.Movie, error) {
	return s.trending, s.err
}

func (s *stubCatalog) Search(ctx context.Context, query string) ([]models.Movie, error) {
	return s.searched, s.err
}

func (s *stubCatalog) Library(ctx context.Context, filters models.LibraryFilters) ([]models.Movie, int, error) {
	return s.library, s.total, s.err
}

func (s *stubCatalog) Get(ctx context.Context, imdbID string) (*models.Movie, error) {
	if s.err != nil {
		return nil, s.err
	}
	m, ok := s.byID[imdbID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &m, nil
}

type stubOverlay struct {
	attached bool
}

func (s *stubOverlay) AttachAll(userID int64, movies []models.Movie) []models.Movie {
	s.attached = true
	for i := range movies {
		watched := true
		movies[i].Watched = &watched
	}
	return movies
}

func (s *stubOverlay) Attach(userID int64, movie *models.Movie) {
	s.attached = true
	watched := true
	movie.Watched = &watched
}

func withUser(r *http.Request, userID int64) *http.Request {
	return r.WithContext(auth.WithUserID(r.Context(), userID))
}

func TestTrendingAnonymousSkipsOverlay(t *testing.T) {
	overlay := &stubOverlay{}
	h := NewMoviesHandler(&stubCatalog{trending: []models.Movie{{IMDBCode: "tt1375666", Title: "Inception"}}}, overlay)

	req := httptest.NewRequest(http.MethodGet, "/api/movies/trending", nil)
	rec := httptest.NewRecorder()
	h.Trending(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if overlay.attached {
		t.Fatal("overlay must not run without a user identity")
	}

	var movies []models.Movie
	if err := json.NewDecoder(rec.Body).Decode(&movies); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(movies) != 1 || movies[0].Watched != nil {
		t.Fatalf("unexpected body: %+v", movies)
	}
}

func TestTrendingWithUserAttachesOverlay(t *testing.T) {
	overlay := &stubOverlay{}
	h := NewMoviesHandler(&stubCatalog{trending: []models.Movie{{IMDBCode: "tt1375666"}}}, overlay)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/movies/trending", nil), 7)
	rec := httptest.NewRecorder()
	h.Trending(rec, req)

	if !overlay.attached {
		t.Fatal("expected overlay to run for an authenticated request")
	}

	var movies []models.Movie
	if err := json.NewDecoder(rec.Body).Decode(&movies); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if movies[0].Watched == nil || !*movies[0].Watched {
		t.Fatalf("expected watched flag in body: %+v", movies[0])
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	h := NewMoviesHandler(&stubCatalog{}, &stubOverlay{})

	req := httptest.NewRequest(http.MethodGet, "/api/movies/search", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without q, got %d", rec.Code)
	}
}

func TestSearchWrapsResults(t *testing.T) {
	h := NewMoviesHandler(&stubCatalog{searched: []models.Movie{{IMDBCode: "tt1375666"}}}, &stubOverlay{})

	req := httptest.NewRequest(http.MethodGet, "/api/movies/search?q=inception", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	var body models.SearchResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Query != "inception" || body.Count != 1 {
		t.Fatalf("unexpected envelope: %+v", body)
	}
}

func TestGetUnknownMovieIs404(t *testing.T) {
	h := NewMoviesHandler(&stubCatalog{byID: map[string]models.Movie{}}, &stubOverlay{})

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/movies/tt0000000", nil), map[string]string{"id": "tt0000000"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestLibraryEnvelope(t *testing.T) {
	h := NewMoviesHandler(&stubCatalog{
		library: []models.Movie{{IMDBCode: "tt0000001"}},
		total:   123,
	}, &stubOverlay{})

	req := httptest.NewRequest(http.MethodGet, "/api/movies/library?page=2&limit=10", nil)
	rec := httptest.NewRecorder()
	h.Library(rec, req)

	var body struct {
		MovieCount int            `json:"movie_count"`
		Page       int            `json:"page"`
		Limit      int            `json:"limit"`
		Movies     []models.Movie `json:"movies"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.MovieCount != 123 || body.Page != 2 || body.Limit != 10 || len(body.Movies) != 1 {
		t.Fatalf("unexpected envelope: %+v", body)
	}
}
