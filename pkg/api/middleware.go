package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/marmos91/parley/pkg/api/auth"
)

// contextKey is a private type for context values to avoid collisions.
type contextKey string

// claimsContextKey is the context key under which validated claims are stored.
const claimsContextKey contextKey = "jwt_claims"

// JWTAuth returns middleware that validates the Bearer token on every
// request and rejects unauthenticated ones with 401.
//
// On success the validated claims are stored in the request context and can
// be retrieved with GetClaimsFromContext.
func JWTAuth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or malformed Authorization header")
				return
			}

			claims, err := jwtService.Validate(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaimsFromContext returns the validated claims stored by JWTAuth, or
// nil if the request was not authenticated.
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

// extractBearerToken pulls the token out of the Authorization header.
// The "Bearer" scheme is matched case-insensitively.
func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}

	return token, true
}
