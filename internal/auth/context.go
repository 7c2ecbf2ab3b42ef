package auth

import (
	"context"
	"net/http"
)

// ContextKey is the type used for context keys
type ContextKey string

// ContextKeyUserID is the key for the authenticated user id in the context
const ContextKeyUserID ContextKey = "userID"

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// UserID retrieves the authenticated user id from the request context.
// The second return is false for anonymous requests.
func UserID(r *http.Request) (int64, bool) {
	id, ok := r.Context().Value(ContextKeyUserID).(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}
