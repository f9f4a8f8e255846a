package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kukiwrite/kukiwrite/internal/api"
)

type contextKey string

const UserClaimsKey contextKey = "user_claims"

// APIKeyHeader carries a personal API key as an alternative to a bearer token.
const APIKeyHeader = "X-API-Key"

// KeyAuthenticator resolves a raw API key to its owner's user ID.
// It returns an empty ID when the key is unknown or expired.
type KeyAuthenticator interface {
	AuthenticateKey(ctx context.Context, rawKey string) (string, error)
}

// Middleware authenticates requests by bearer JWT, or by API key when keys is non-nil.
func Middleware(svc *Service, keys KeyAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rawKey := r.Header.Get(APIKeyHeader); rawKey != "" && keys != nil {
				userID, err := keys.AuthenticateKey(r.Context(), rawKey)
				if err != nil {
					slog.Error("authenticating api key", "error", err)
					api.HandleError(w, api.ErrInternalServer)
					return
				}
				if userID == "" {
					api.HandleError(w, api.ErrInvalidToken)
					return
				}
				next.ServeHTTP(w, r.WithContext(WithUserClaims(r.Context(), &AccessClaims{UserID: userID})))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.HandleError(w, api.ErrUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				api.HandleError(w, api.ErrUnauthorized)
				return
			}

			claims, err := svc.jwt.ValidateAccessToken(parts[1])
			if err != nil {
				api.HandleError(w, api.ErrInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserClaims(r.Context(), claims)))
		})
	}
}

// OptionalMiddleware attaches claims when a valid bearer token is present
// and lets anonymous requests through untouched.
func OptionalMiddleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				if claims, err := svc.jwt.ValidateAccessToken(parts[1]); err == nil {
					r = r.WithContext(WithUserClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func GetUserClaims(ctx context.Context) *AccessClaims {
	claims, _ := ctx.Value(UserClaimsKey).(*AccessClaims)
	return claims
}

// WithUserClaims returns a copy of ctx carrying claims.
func WithUserClaims(ctx context.Context, claims *AccessClaims) context.Context {
	return context.WithValue(ctx, UserClaimsKey, claims)
}
