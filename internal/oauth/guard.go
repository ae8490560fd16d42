package oauth

import (
	"context"
	"net/http"
	"strings"

	"github.com/WOOWTECH/paas-operator/internal/errdefs"
	"github.com/WOOWTECH/paas-operator/internal/pkg/metrics"
)

// Identity is the outcome of a successful bearer-token check, carried in
// the request context by the middleware layer.
type Identity struct {
	ClientID string
	UserID   string
	Scopes   []string
}

// BearerToken extracts the token from an Authorization header. Returns ""
// when the header is absent or not a Bearer scheme.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Verify resolves an opaque access token to its identity. Unknown, revoked,
// or expired tokens are an UnauthorizedError; a valid token missing any of
// the required scopes is an AccessError.
func (s *Server) Verify(ctx context.Context, value string, required ...string) (*Identity, error) {
	if value == "" {
		metrics.BearerValidationsTotal.WithLabelValues("missing").Inc()
		return nil, &errdefs.UnauthorizedError{Message: "missing bearer token"}
	}
	token, err := s.store.GetTokenByAccess(ctx, value)
	if err != nil {
		s.log.Error("token lookup failed", "error", err)
		return nil, &errdefs.UnauthorizedError{Message: "token verification failed"}
	}
	if token == nil || !token.AccessValid() {
		metrics.BearerValidationsTotal.WithLabelValues("invalid").Inc()
		return nil, &errdefs.UnauthorizedError{Message: "invalid or expired token"}
	}
	if !HasScopes(token.Scope, required) {
		metrics.BearerValidationsTotal.WithLabelValues("forbidden").Inc()
		return nil, &errdefs.AccessError{Message: "token lacks required scope " + JoinScopes(required)}
	}
	metrics.BearerValidationsTotal.WithLabelValues("valid").Inc()
	return &Identity{
		ClientID: token.ClientID,
		UserID:   token.UserID,
		Scopes:   ParseScopes(token.Scope),
	}, nil
}
