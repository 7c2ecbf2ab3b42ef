package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"cinebay/internal/auth"
	"cinebay/internal/database"
	"cinebay/models"
	"cinebay/services/watched"
)

type watchedService interface {
	MarkWatched(userID int64, movieID string) error
	UnmarkWatched(userID int64, movieID string) error
	AddWatchLater(userID int64, movieID string) error
	RemoveWatchLater(userID int64, movieID string) error
	ListWatched(userID int64, page, limit int) ([]database.MovieRef, int, error)
	ListWatchLater(userID int64, page, limit int) ([]database.MovieRef, int, error)
	AttachAll(userID int64, movies []models.Movie) []models.Movie
}

var _ watchedService = (*watched.Service)(nil)

// WatchedHandler owns the per-user mutation endpoints and the profile
// listings. The catalog dependency resolves stored movie ids back into
// full records for the profile surface.
type WatchedHandler struct {
	Service watchedService
	Catalog movieService
}

func NewWatchedHandler(service watchedService, catalog movieService) *WatchedHandler {
	return &WatchedHandler{Service: service, Catalog: catalog}
}

func (h *WatchedHandler) requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.UserID(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return 0, false
	}
	return userID, true
}

func (h *WatchedHandler) mutation(w http.ResponseWriter, r *http.Request, apply func(userID int64, movieID string) error) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	movieID := strings.TrimSpace(mux.Vars(r)["id"])
	if movieID == "" {
		http.Error(w, "movie id is required", http.StatusBadRequest)
		return
	}

	if err := apply(userID, movieID); err != nil {
		http.Error(w, "failed to update watch state", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "ok", "movie_id": movieID})
}

func (h *WatchedHandler) MarkWatched(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, h.Service.MarkWatched)
}

func (h *WatchedHandler) UnmarkWatched(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, h.Service.UnmarkWatched)
}

func (h *WatchedHandler) AddWatchLater(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, h.Service.AddWatchLater)
}

func (h *WatchedHandler) RemoveWatchLater(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, h.Service.RemoveWatchLater)
}

func (h *WatchedHandler) ListWatched(w http.ResponseWriter, r *http.Request) {
	h.profileList(w, r, h.Service.ListWatched)
}

func (h *WatchedHandler) ListWatchLater(w http.ResponseWriter, r *http.Request) {
	h.profileList(w, r, h.Service.ListWatchLater)
}

func (h *WatchedHandler) profileList(w http.ResponseWriter, r *http.Request, list func(userID int64, page, limit int) ([]database.MovieRef, int, error)) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	pathUser, err := strconv.ParseInt(mux.Vars(r)["userID"], 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	if pathUser != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)
	if limit > 50 {
		limit = 50
	}

	refs, total, err := list(userID, page, limit)
	if err != nil {
		http.Error(w, "failed to load list", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"user_id": userID,
		"total":   total,
		"page":    page,
		"limit":   limit,
		"movies":  h.resolve(r.Context(), userID, refs),
	})
}

// resolve turns stored movie ids back into catalog records. Titles the
// catalog no longer knows are skipped rather than failing the page.
func (h *WatchedHandler) resolve(ctx context.Context, userID int64, refs []database.MovieRef) []models.Movie {
	movies := make([]models.Movie, 0, len(refs))
	for _, ref := range refs {
		movie, err := h.Catalog.Get(ctx, ref.MovieID)
		if err != nil {
			continue
		}
		movies = append(movies, *movie)
	}
	return h.Service.AttachAll(userID, movies)
}
