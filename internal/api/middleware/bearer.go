package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/WOOWTECH/paas-operator/internal/errdefs"
	"github.com/WOOWTECH/paas-operator/internal/oauth"
)

type identityKey struct{}

// IdentityFromContext returns the verified bearer identity, or nil when the
// request did not pass through RequireScopes.
func IdentityFromContext(ctx context.Context) *oauth.Identity {
	id, _ := ctx.Value(identityKey{}).(*oauth.Identity)
	return id
}

// RequireScopes verifies the Authorization: Bearer token and checks it
// carries every listed scope. On success the identity is stored in the
// request context for handlers.
func RequireScopes(srv *oauth.Server, scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := srv.Verify(r.Context(), oauth.BearerToken(r), scopes...)
			if err != nil {
				writeAuthError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), identityKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	var accessErr *errdefs.AccessError
	if errors.As(err, &accessErr) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"insufficient scope"}`))
		return
	}
	w.Header().Set("WWW-Authenticate", `Bearer realm="paas-operator"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"invalid or missing bearer token"}`))
}
