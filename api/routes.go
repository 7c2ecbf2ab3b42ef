// Package api wires the HTTP surface: route registration plus the
// request-scoped middleware stack.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"cinebay/handlers"
)

func Register(
	r *mux.Router,
	movies *handlers.MoviesHandler,
	watched *handlers.WatchedHandler,
	jwtSecret string,
) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(loggingMiddleware)
	api.Use(identityMiddleware(jwtSecret))

	// Catalog reads. Fixed paths registered before the {id} route.
	api.HandleFunc("/movies/trending", movies.Trending).Methods(http.MethodGet)
	api.HandleFunc("/movies/library", movies.Library).Methods(http.MethodGet)
	api.HandleFunc("/movies/search", movies.Search).Methods(http.MethodGet)
	api.HandleFunc("/movies/{id}", movies.Get).Methods(http.MethodGet)

	// Per-user state, identity required.
	api.HandleFunc("/movies/{id}/watched", watched.MarkWatched).Methods(http.MethodPost)
	api.HandleFunc("/movies/{id}/watched", watched.UnmarkWatched).Methods(http.MethodDelete)
	api.HandleFunc("/movies/{id}/watch-later", watched.AddWatchLater).Methods(http.MethodPost)
	api.HandleFunc("/movies/{id}/watch-later", watched.RemoveWatchLater).Methods(http.MethodDelete)

	// Profile surface.
	api.HandleFunc("/users/{userID}/watched", watched.ListWatched).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}/watch-later", watched.ListWatchLater).Methods(http.MethodGet)
}
