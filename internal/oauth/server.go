// Package oauth implements the OAuth 2.0 authorization server: the
// authorization-code (+PKCE), refresh-token, and client-credentials grants,
// plus RFC 7662 introspection and RFC 7009 revocation. Tokens are opaque
// random values persisted through repository.Store.
package oauth

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/WOOWTECH/paas-operator/internal/models"
	"github.com/WOOWTECH/paas-operator/internal/pkg/metrics"
	"github.com/WOOWTECH/paas-operator/internal/repository"
)

type Server struct {
	store      repository.Store
	accessTTL  time.Duration
	refreshTTL time.Duration
	codeTTL    time.Duration
	log        *slog.Logger
}

func NewServer(store repository.Store, accessTTL, refreshTTL, codeTTL time.Duration, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		store:      store,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		codeTTL:    codeTTL,
		log:        log,
	}
}

// AuthenticateClient verifies client_id + client_secret against the stored
// hash. All failure modes collapse to invalid_client so a caller cannot
// probe which part was wrong.
func (s *Server) AuthenticateClient(ctx context.Context, clientID, clientSecret string) (*models.OAuthClient, *RFCError) {
	invalid := rfcErr(http.StatusUnauthorized, ErrInvalidClient, "client authentication failed")
	if clientID == "" || clientSecret == "" {
		return nil, invalid
	}
	client, err := s.store.GetOAuthClientByClientID(ctx, clientID)
	if err != nil {
		s.log.Error("client lookup failed", "error", err)
		return nil, invalid
	}
	if client == nil || !client.IsActive {
		return nil, invalid
	}
	if CheckClientSecret(client.ClientSecretHash, clientSecret) != nil {
		return nil, invalid
	}
	return client, nil
}

// ValidateAuthorize checks a GET /oauth2/authorize request before the
// consent page is rendered. Returns the client and the granted scope
// string.
func (s *Server) ValidateAuthorize(ctx context.Context, responseType, clientID, redirectURI, scope string) (*models.OAuthClient, string, *RFCError) {
	if responseType != "code" {
		return nil, "", rfcErr(http.StatusBadRequest, ErrUnsupportedResponseType, "only response_type=code is supported")
	}
	client, err := s.store.GetOAuthClientByClientID(ctx, clientID)
	if err != nil {
		s.log.Error("client lookup failed", "error", err)
		return nil, "", rfcErr(http.StatusBadRequest, ErrInvalidClient, "unknown client")
	}
	if client == nil || !client.IsActive {
		return nil, "", rfcErr(http.StatusBadRequest, ErrInvalidClient, "unknown client")
	}
	if !client.AllowsGrant(string(GrantAuthorizationCode)) {
		return nil, "", rfcErr(http.StatusBadRequest, ErrUnauthorizedClient, "client may not use the authorization_code grant")
	}
	if !client.AllowsRedirectURI(redirectURI) {
		// Never redirect to an unregistered URI.
		return nil, "", rfcErr(http.StatusBadRequest, ErrInvalidRequest, "redirect_uri is not registered for this client")
	}
	requested := ParseScopes(scope)
	if len(requested) == 0 {
		return client, client.Scopes, nil
	}
	if !ScopesSubset(requested, client.AllowedScopes()) {
		return nil, "", rfcErr(http.StatusBadRequest, ErrInvalidScope, "requested scope exceeds client allow-list")
	}
	return client, JoinScopes(requested), nil
}

// Approve creates a single-use authorization code after the user consented
// and returns the redirect URL carrying code (+ state if provided).
func (s *Server) Approve(ctx context.Context, client *models.OAuthClient, userID, redirectURI, scope, challenge, challengeMethod, state string) (string, error) {
	if challenge != "" && !ValidPKCEMethod(challengeMethod) {
		return "", rfcErr(http.StatusBadRequest, ErrInvalidRequest, "unsupported code_challenge_method")
	}
	code, err := newAuthCode()
	if err != nil {
		return "", err
	}
	rec := &models.OAuthCode{
		Code:            code,
		ClientID:        client.ClientID,
		UserID:          userID,
		RedirectURI:     redirectURI,
		Scope:           scope,
		CodeChallenge:   challenge,
		ChallengeMethod: challengeMethod,
		ExpiresAt:       time.Now().Add(s.codeTTL),
	}
	if err := s.store.CreateAuthCode(ctx, rec); err != nil {
		return "", err
	}
	s.log.Info("authorization code issued", "client_id", client.ClientID, "user_id", userID)
	return redirectWith(redirectURI, url.Values{"code": {code}}, state), nil
}

// Deny returns the access_denied redirect URL for a declined consent.
func Deny(redirectURI, state string) string {
	return redirectWith(redirectURI, url.Values{"error": {ErrAccessDenied}}, state)
}

func redirectWith(redirectURI string, params url.Values, state string) string {
	if state != "" {
		params.Set("state", state)
	}
	u, err := url.Parse(redirectURI)
	if err != nil {
		return redirectURI
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Token dispatches POST /oauth2/token by grant type over the closed enum.
func (s *Server) Token(ctx context.Context, req TokenRequest) (*TokenResponse, *RFCError) {
	switch GrantType(req.GrantType) {
	case GrantAuthorizationCode:
		return s.tokenAuthorizationCode(ctx, req)
	case GrantRefreshToken:
		return s.tokenRefresh(ctx, req)
	case GrantClientCredentials:
		return s.tokenClientCredentials(ctx, req)
	case "":
		return nil, rfcErr(http.StatusBadRequest, ErrInvalidRequest, "grant_type is required")
	default:
		return nil, rfcErr(http.StatusBadRequest, ErrUnsupportedGrantType, "unsupported grant_type "+req.GrantType)
	}
}

func (s *Server) tokenAuthorizationCode(ctx context.Context, req TokenRequest) (*TokenResponse, *RFCError) {
	client, rfcerr := s.AuthenticateClient(ctx, req.ClientID, req.ClientSecret)
	if rfcerr != nil {
		return nil, rfcerr
	}
	if !client.AllowsGrant(string(GrantAuthorizationCode)) {
		return nil, rfcErr(http.StatusBadRequest, ErrUnauthorizedClient, "client may not use the authorization_code grant")
	}
	if req.Code == "" {
		return nil, rfcErr(http.StatusBadRequest, ErrInvalidRequest, "code is required")
	}

	// Consuming claims the code atomically; a replay loses the race and
	// falls into the nil branch.
	code, err := s.store.ConsumeAuthCode(ctx, req.Code, client.ClientID)
	if err != nil {
		s.log.Error("code consumption failed", "error", err)
		return nil, rfcErr(http.StatusInternalServerError, ErrInvalidRequest, "token issuance failed")
	}
	if code == nil {
		return nil, rfcErr(http.StatusBadRequest, ErrInvalidGrant, "authorization code is invalid or already used")
	}
	if code.IsExpired() {
		return nil, rfcErr(http.StatusBadRequest, ErrInvalidGrant, "authorization code expired")
	}
	if code.RedirectURI != req.RedirectURI {
		return nil, rfcErr(http.StatusBadRequest, ErrInvalidGrant, "redirect_uri does not match the authorization request")
	}
	if code.CodeChallenge != "" {
		if !VerifyPKCE(req.CodeVerifier, code.CodeChallenge, code.ChallengeMethod) {
			return nil, rfcErr(http.StatusBadRequest, ErrInvalidGrant, "PKCE verification failed")
		}
	}

	return s.issuePair(ctx, client, code.UserID, code.Scope, true, string(GrantAuthorizationCode))
}

func (s *Server) tokenRefresh(ctx context.Context, req TokenRequest) (*TokenResponse, *RFCError) {
	client, rfcerr := s.AuthenticateClient(ctx, req.ClientID, req.ClientSecret)
	if rfcerr != nil {
		return nil, rfcerr
	}
	if !client.AllowsGrant(string(GrantRefreshToken)) {
		return nil, rfcErr(http.StatusBadRequest, ErrUnauthorizedClient, "client may not use the refresh_token grant")
	}
	if req.RefreshToken == "" {
		return nil, rfcErr(http.StatusBadRequest, ErrInvalidRequest, "refresh_token is required")
	}

	old, err := s.store.GetTokenByRefresh(ctx, req.RefreshToken, client.ClientID)
	if err != nil {
		s.log.Error("refresh lookup failed", "error", err)
		return nil, rfcErr(http.StatusInternalServerError, ErrInvalidRequest, "token issuance failed")
	}
	if old == nil || !old.RefreshValid() {
		return nil, rfcErr(http.StatusBadRequest, ErrInvalidGrant, "refresh token is invalid, revoked, or expired")
	}

	// Rotation: the old pair dies before the new one is born. A reused
	// refresh token after rotation hits the RefreshValid check above.
	if err := s.store.RevokeToken(ctx, old.ID); err != nil {
		s.log.Error("rotation revoke failed", "error", err)
		return nil, rfcErr(http.StatusInternalServerError, ErrInvalidRequest, "token issuance failed")
	}

	return s.issuePair(ctx, client, old.UserID, old.Scope, true, string(GrantRefreshToken))
}

func (s *Server) tokenClientCredentials(ctx context.Context, req TokenRequest) (*TokenResponse, *RFCError) {
	client, rfcerr := s.AuthenticateClient(ctx, req.ClientID, req.ClientSecret)
	if rfcerr != nil {
		return nil, rfcerr
	}
	if !client.AllowsGrant(string(GrantClientCredentials)) {
		return nil, rfcErr(http.StatusBadRequest, ErrUnauthorizedClient, "client may not use the client_credentials grant")
	}

	scope := client.Scopes
	if requested := ParseScopes(req.Scope); len(requested) > 0 {
		if !ScopesSubset(requested, client.AllowedScopes()) {
			return nil, rfcErr(http.StatusBadRequest, ErrInvalidScope, "requested scope exceeds client allow-list")
		}
		scope = JoinScopes(requested)
	}

	// No end-user and no refresh token for service principals.
	return s.issuePair(ctx, client, "", scope, false, string(GrantClientCredentials))
}

func (s *Server) issuePair(ctx context.Context, client *models.OAuthClient, userID, scope string, withRefresh bool, grant string) (*TokenResponse, *RFCError) {
	internal := rfcErr(http.StatusInternalServerError, ErrInvalidRequest, "token issuance failed")

	access, err := newAccessToken()
	if err != nil {
		return nil, internal
	}
	token := &models.OAuthToken{
		AccessToken: access,
		TokenType:   "bearer",
		ClientID:    client.ClientID,
		UserID:      userID,
		Scope:       scope,
		ExpiresAt:   time.Now().Add(s.accessTTL),
	}
	if withRefresh {
		refresh, err := newRefreshToken()
		if err != nil {
			return nil, internal
		}
		refreshExp := time.Now().Add(s.refreshTTL)
		token.RefreshToken = refresh
		token.RefreshExpiresAt = &refreshExp
	}
	if err := s.store.CreateToken(ctx, token); err != nil {
		s.log.Error("token persist failed", "error", err)
		return nil, internal
	}

	metrics.OAuthTokensIssuedTotal.WithLabelValues(grant).Inc()
	s.log.Info("token issued", "client_id", client.ClientID, "grant_type", grant, "scope", scope)
	return &TokenResponse{
		AccessToken:  token.AccessToken,
		TokenType:    "bearer",
		ExpiresIn:    int(s.accessTTL.Seconds()),
		RefreshToken: token.RefreshToken,
		Scope:        scope,
	}, nil
}

// Introspect implements RFC 7662. Any token that cannot be found or is
// invalid yields {"active": false}, never an error.
func (s *Server) Introspect(ctx context.Context, value string, client *models.OAuthClient) IntrospectionResponse {
	inactive := IntrospectionResponse{Active: false}
	if value == "" {
		return inactive
	}
	token, err := s.store.GetTokenByValue(ctx, value, client.ClientID)
	if err != nil {
		s.log.Error("introspection lookup failed", "error", err)
		return inactive
	}
	if token == nil {
		return inactive
	}

	var exp time.Time
	switch value {
	case token.AccessToken:
		if !token.AccessValid() {
			return inactive
		}
		exp = token.ExpiresAt
	case token.RefreshToken:
		if !token.RefreshValid() {
			return inactive
		}
		exp = *token.RefreshExpiresAt
	default:
		return inactive
	}

	return IntrospectionResponse{
		Active:    true,
		Scope:     token.Scope,
		ClientID:  token.ClientID,
		Sub:       token.UserID,
		TokenType: token.TokenType,
		Exp:       exp.Unix(),
	}
}

// Revoke implements RFC 7009: always succeeds, whether or not the token
// existed, so token existence never leaks.
func (s *Server) Revoke(ctx context.Context, value string, client *models.OAuthClient) {
	if value == "" {
		return
	}
	token, err := s.store.GetTokenByValue(ctx, value, client.ClientID)
	if err != nil {
		s.log.Error("revocation lookup failed", "error", err)
		return
	}
	if token == nil {
		return
	}
	if err := s.store.RevokeToken(ctx, token.ID); err != nil {
		s.log.Error("revocation failed", "error", err)
		return
	}
	s.log.Info("token revoked", "client_id", client.ClientID)
}
