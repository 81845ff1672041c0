package http

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/siriwatk/bookstore-backend/internal/auth"
)

const (
	accessTokenCookie  = "token"
	refreshTokenCookie = "refresh_token"

	// The refresh cookie is scoped so browsers only send it to API calls.
	refreshCookiePath = "/api"
)

// Principal is the authenticated caller, placed on the request context by
// RequireAuth.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

type principalContextKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

// RequireAuth parses the access-token cookie and attaches the caller to the
// request context. Missing or invalid tokens end the request with 401.
func RequireAuth(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(accessTokenCookie)
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			claims, err := tokens.ParseAccessToken(cookie.Value)
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "Token is invalid or expired")
				return
			}

			userID, err := uuid.FromString(claims.UserID)
			if err != nil {
				log.Warn().Str("user_id", claims.UserID).Msg("Access token carries malformed user id")
				respondWithError(w, http.StatusUnauthorized, "Token is invalid or expired")
				return
			}

			principal := Principal{
				UserID: userID,
				Email:  claims.Email,
				Role:   claims.Role,
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireAdmin must be mounted after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok || principal.Role != auth.RoleAdmin {
			respondWithError(w, http.StatusForbidden, "Admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
