package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-weather-auth/internal/domain"
	"github.com/go-weather-auth/internal/metrics"
)

type contextKey string

const userIDKey contextKey = "user_id"

const bearerPrefix = "Bearer "

// Client-facing 401 messages.
const (
	msgUnauthenticated     = "You are not authorized to access the requested resource"
	msgInvalidToken        = "Invalid token."
	msgMalformedCredential = "Invalid token. It must start with 'Bearer '"
)

// TokenVerifier is satisfied by *jwtinfra.Provider.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// PublicRoute is an allow-list entry. Path must match the request path
// exactly; Method is only enforced in strict mode.
type PublicRoute struct {
	Method string
	Path   string
}

// DefaultPublicRoutes are the account endpoints reachable without a token.
var DefaultPublicRoutes = []PublicRoute{
	{http.MethodPost, "/api/login"},
	{http.MethodPost, "/api/register"},
	{http.MethodGet, "/api/verify-email"},
	{http.MethodPost, "/api/forgot-password"},
	{http.MethodPost, "/api/reset-password"},
}

type GateOptions struct {
	Public []PublicRoute
	Strict bool
}

// Gate admits a request when it is a CORS pre-flight, hits the allow-list, or
// carries a valid bearer token. Otherwise it answers 401 with a JSON
// {"message": ...} body. The verified subject is available through
// UserIDFromContext.
func Gate(verifier TokenVerifier, opts GateOptions) func(http.Handler) http.Handler {
	public := opts.Public
	if public == nil {
		public = DefaultPublicRoutes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Access-Control-Request-Method") != "" {
				next.ServeHTTP(w, r)
				return
			}
			if isPublic(public, opts.Strict, r) {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := authenticate(verifier, r.Header.Get("Authorization"))
			if err != nil {
				reject(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func isPublic(routes []PublicRoute, strict bool, r *http.Request) bool {
	for _, p := range routes {
		if p.Path != r.URL.Path {
			continue
		}
		if !strict || p.Method == r.Method {
			return true
		}
	}
	return false
}

func authenticate(verifier TokenVerifier, header string) (string, error) {
	if header == "" {
		return "", domain.ErrUnauthenticated
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", domain.ErrMalformedCredential
	}
	userID, err := verifier.Verify(strings.TrimPrefix(header, bearerPrefix))
	if err != nil {
		return "", err
	}
	return userID, nil
}

func reject(w http.ResponseWriter, r *http.Request, err error) {
	reason, msg := "invalid_token", msgInvalidToken
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		reason, msg = "unauthenticated", msgUnauthenticated
	case errors.Is(err, domain.ErrMalformedCredential):
		reason, msg = "malformed_credential", msgMalformedCredential
	}
	metrics.GateRejectionsTotal.WithLabelValues(reason).Inc()
	slog.InfoContext(r.Context(), "request rejected", "op", "gate", "method", r.Method, "path", r.URL.Path, "reason", reason)
	writeJSONError(w, http.StatusUnauthorized, msg)
}

// WithUserID stores the authenticated subject on ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the subject attached by Gate.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
