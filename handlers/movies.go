package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"cinebay/internal/auth"
	"cinebay/models"
	"cinebay/services/catalog"
	"cinebay/services/watched"
)

type movieService interface {
	Trending(ctx context.Context, page, limit int) ([]models.Movie, error)
	Search(ctx context.Context, query string) ([]models.Movie, error)
	Library(ctx context.Context, filters models.LibraryFilters) ([]models.Movie, int, error)
	Get(ctx context.Context, imdbID string) (*models.Movie, error)
}

var _ movieService = (*catalog.Service)(nil)

type overlayService interface {
	AttachAll(userID int64, movies []models.Movie) []models.Movie
	Attach(userID int64, movie *models.Movie)
}

var _ overlayService = (*watched.Service)(nil)

type MoviesHandler struct {
	Catalog movieService
	Overlay overlayService
}

func NewMoviesHandler(catalog movieService, overlay overlayService) *MoviesHandler {
	return &MoviesHandler{Catalog: catalog, Overlay: overlay}
}

func (h *MoviesHandler) Trending(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)

	movies, err := h.Catalog.Trending(r.Context(), page, limit)
	if err != nil {
		http.Error(w, "failed to load trending movies", http.StatusBadGateway)
		return
	}

	if userID, ok := auth.UserID(r); ok {
		movies = h.Overlay.AttachAll(userID, movies)
	}

	writeJSON(w, movies)
}

func (h *MoviesHandler) Library(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := models.LibraryFilters{
		Page:      queryInt(r, "page", 1),
		Limit:     queryInt(r, "limit", 20),
		QueryTerm: strings.TrimSpace(q.Get("query_term")),
		Genre:     strings.TrimSpace(q.Get("genre")),
		SortBy:    strings.TrimSpace(q.Get("sort_by")),
		OrderBy:   strings.TrimSpace(q.Get("order_by")),
	}
	if v, err := strconv.Atoi(q.Get("minimum_rating")); err == nil {
		filters.MinimumRating = v
	}

	movies, total, err := h.Catalog.Library(r.Context(), filters)
	if err != nil {
		http.Error(w, "failed to load movie library", http.StatusBadGateway)
		return
	}

	if userID, ok := auth.UserID(r); ok {
		movies = h.Overlay.AttachAll(userID, movies)
	}

	writeJSON(w, map[string]any{
		"movie_count": total,
		"page":        filters.Page,
		"limit":       filters.Limit,
		"movies":      movies,
	})
}

func (h *MoviesHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Error(w, "query parameter q is required", http.StatusBadRequest)
		return
	}

	results, err := h.Catalog.Search(r.Context(), query)
	if err != nil {
		http.Error(w, "search failed", http.StatusBadGateway)
		return
	}

	if userID, ok := auth.UserID(r); ok {
		results = h.Overlay.AttachAll(userID, results)
	}

	writeJSON(w, models.SearchResponse{
		Query:   query,
		Count:   len(results),
		Results: results,
	})
}

func (h *MoviesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		http.Error(w, "movie id is required", http.StatusBadRequest)
		return
	}

	movie, err := h.Catalog.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.Error(w, "movie not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load movie", http.StatusBadGateway)
		return
	}

	if userID, ok := auth.UserID(r); ok {
		h.Overlay.Attach(userID, movie)
	}

	writeJSON(w, movie)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
