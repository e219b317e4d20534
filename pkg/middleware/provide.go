package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/chathub-dev/chathub/pkg/constants"
)

// Provide attaches a fixed value to every request context under the given
// key. Used to thread the application container and the pool through to
// handlers.
func Provide(key constants.ContextKey, value any) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), key, value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
