package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/warp/leave-engine/engine"
)

type contextKey struct{}

var sessionKey contextKey

// SessionFromContext returns the session placed by Middleware.
func SessionFromContext(ctx context.Context) (engine.Session, bool) {
	session, ok := ctx.Value(sessionKey).(engine.Session)
	return session, ok
}

// WithSession injects a session into a context. Exported for tests.
func WithSession(ctx context.Context, session engine.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// Middleware validates the bearer token and attaches the resulting session
// to the request context. Requests without a valid token get 401.
func Middleware(tokens *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "invalid authorization header", http.StatusUnauthorized)
				return
			}

			session, err := tokens.Parse(parts[1])
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// RequireCapability gates a route on one capability of the session.
func RequireCapability(check func(engine.Capabilities) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
				return
			}
			if !check(session.Caps) {
				http.Error(w, "insufficient role", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
