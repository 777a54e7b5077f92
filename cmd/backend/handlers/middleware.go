package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/stepwright/stepwright/logger"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// UserIDKey is the context key for the caller's user ID.
	UserIDKey ContextKey = "user_id"

	// UserIDHeader carries the already-authenticated caller identity,
	// injected by the upstream auth layer. This service trusts it as opaque.
	UserIDHeader = "X-User-ID"
)

// IdentityMiddleware extracts the caller identity header and adds it to the
// request context. Requests without a valid identity are rejected.
type IdentityMiddleware struct {
	logger logger.Logger
}

// NewIdentityMiddleware creates a new identity middleware.
func NewIdentityMiddleware(log logger.Logger) *IdentityMiddleware {
	return &IdentityMiddleware{logger: log}
}

// Handler wraps an HTTP handler with identity extraction.
func (m *IdentityMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(UserIDHeader)
		if raw == "" {
			m.logger.Warn(r.Context(), "missing identity header", map[string]interface{}{
				"path": r.URL.Path,
			})
			respondError(w, http.StatusUnauthorized, CodeValidationError, "authentication required")
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			m.logger.Warn(r.Context(), "invalid identity header", map[string]interface{}{
				"path": r.URL.Path,
			})
			respondError(w, http.StatusUnauthorized, CodeValidationError, "invalid user identity")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID extracts the user ID from the request context.
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}
