package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fcgregorio/jbj-trading/internal/platform/httpx"
	"github.com/fcgregorio/jbj-trading/internal/shared"
)

// RequireAuth resolves the bearer token and injects the actor into the
// request context. Requests without a valid token get 401.
func RequireAuth(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenID, ok := bearerToken(r)
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			actor, err := service.Resolve(r.Context(), tokenID)
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			ctx := shared.ContextWithActor(r.Context(), &actor)
			ctx = contextWithToken(ctx, tokenID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates administrative routes.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := shared.ActorFromContext(r.Context())
		if actor == nil || !actor.Admin {
			httpx.RespondError(w, httpx.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (uuid.UUID, bool) {
	header := r.Header.Get("Authorization")
	value, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return uuid.Nil, false
	}
	tokenID, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil, false
	}
	return tokenID, true
}

type tokenContextKey struct{}

func contextWithToken(ctx context.Context, tokenID uuid.UUID) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, tokenID)
}

// TokenFromContext returns the bearer token id of the current request.
func TokenFromContext(ctx context.Context) (uuid.UUID, bool) {
	tokenID, ok := ctx.Value(tokenContextKey{}).(uuid.UUID)
	return tokenID, ok
}
