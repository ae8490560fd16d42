package oauth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WOOWTECH/paas-operator/internal/models"
	"github.com/WOOWTECH/paas-operator/internal/pkg/metrics"
)

// fakeStore is an in-memory Store for grant-flow tests.
type fakeStore struct {
	clients map[string]*models.OAuthClient
	codes   map[string]*models.OAuthCode
	tokens  map[string]*models.OAuthToken // by row ID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clients: map[string]*models.OAuthClient{},
		codes:   map[string]*models.OAuthCode{},
		tokens:  map[string]*models.OAuthToken{},
	}
}

func (f *fakeStore) CreateOAuthClient(_ context.Context, c *models.OAuthClient) error {
	f.clients[c.ClientID] = c
	return nil
}

func (f *fakeStore) GetOAuthClientByClientID(_ context.Context, clientID string) (*models.OAuthClient, error) {
	return f.clients[clientID], nil
}

func (f *fakeStore) UpdateOAuthClientSecret(_ context.Context, clientID, hash string) error {
	if c, ok := f.clients[clientID]; ok {
		c.ClientSecretHash = hash
	}
	return nil
}

func (f *fakeStore) CreateAuthCode(_ context.Context, code *models.OAuthCode) error {
	if code.ID == "" {
		code.ID = uuid.New().String()
	}
	f.codes[code.Code] = code
	return nil
}

func (f *fakeStore) ConsumeAuthCode(_ context.Context, code, clientID string) (*models.OAuthCode, error) {
	rec, ok := f.codes[code]
	if !ok || rec.ClientID != clientID || rec.IsUsed {
		return nil, nil
	}
	rec.IsUsed = true
	return rec, nil
}

func (f *fakeStore) CreateToken(_ context.Context, token *models.OAuthToken) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	token.CreatedAt = time.Now()
	f.tokens[token.ID] = token
	return nil
}

func (f *fakeStore) GetTokenByAccess(_ context.Context, access string) (*models.OAuthToken, error) {
	for _, t := range f.tokens {
		if t.AccessToken == access {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetTokenByRefresh(_ context.Context, refresh, clientID string) (*models.OAuthToken, error) {
	for _, t := range f.tokens {
		if t.RefreshToken != "" && t.RefreshToken == refresh && t.ClientID == clientID {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetTokenByValue(_ context.Context, value, clientID string) (*models.OAuthToken, error) {
	for _, t := range f.tokens {
		if t.ClientID != clientID {
			continue
		}
		if t.AccessToken == value || (t.RefreshToken != "" && t.RefreshToken == value) {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) RevokeToken(_ context.Context, id string) error {
	if t, ok := f.tokens[id]; ok {
		t.IsRevoked = true
	}
	return nil
}

func (f *fakeStore) ListWorkspaces(_ context.Context, _ string) ([]*models.Workspace, error) {
	return nil, nil
}
func (f *fakeStore) GetWorkspace(_ context.Context, _ string) (*models.Workspace, error) {
	return nil, nil
}
func (f *fakeStore) ListHomes(_ context.Context, _ string) ([]*models.Home, error) { return nil, nil }
func (f *fakeStore) GetHome(_ context.Context, _ string) (*models.Home, error)    { return nil, nil }
func (f *fakeStore) Ping(_ context.Context) error                                  { return nil }
func (f *fakeStore) Close() error                                                  { return nil }

const testRedirect = "https://app.example.com/callback"

func newTestServer(t *testing.T) (*Server, *fakeStore, *models.OAuthClient, string) {
	t.Helper()
	store := newFakeStore()
	srv := NewServer(store, time.Hour, 30*24*time.Hour, 10*time.Minute, nil)

	secret, hash, err := NewClientSecret()
	require.NoError(t, err)
	client := &models.OAuthClient{
		ClientID:         "client-1",
		ClientSecretHash: hash,
		Name:             "Test App",
		RedirectURIs:     testRedirect,
		Scopes:           "smarthome:read smarthome:tunnel",
		GrantTypes:       "authorization_code,refresh_token,client_credentials",
		IsActive:         true,
	}
	require.NoError(t, store.CreateOAuthClient(context.Background(), client))
	return srv, store, client, secret
}

func issueCode(t *testing.T, srv *Server, client *models.OAuthClient, challenge, method string) string {
	t.Helper()
	redirectTo, err := srv.Approve(context.Background(), client, "user-7", testRedirect,
		"smarthome:read", challenge, method, "xyz")
	require.NoError(t, err)
	require.Contains(t, redirectTo, "code=")
	require.Contains(t, redirectTo, "state=xyz")

	// Extract the code query parameter.
	i := strings.Index(redirectTo, "code=")
	code := redirectTo[i+len("code="):]
	if j := strings.IndexByte(code, '&'); j >= 0 {
		code = code[:j]
	}
	return code
}

func TestAuthorizationCodeGrant_FullFlow(t *testing.T) {
	srv, _, client, secret := newTestServer(t)
	verifier := "correct-horse-battery-staple-0123456789abcdef"
	code := issueCode(t, srv, client, s256Challenge(verifier), PKCEMethodS256)

	resp, rfcerr := srv.Token(context.Background(), TokenRequest{
		GrantType:    "authorization_code",
		Code:         code,
		RedirectURI:  testRedirect,
		CodeVerifier: verifier,
		ClientID:     client.ClientID,
		ClientSecret: secret,
	})
	require.Nil(t, rfcerr)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 3600, resp.ExpiresIn)
	assert.Equal(t, "smarthome:read", resp.Scope)
}

func TestAuthorizationCodeGrant_CodeIsSingleUse(t *testing.T) {
	srv, _, client, secret := newTestServer(t)
	code := issueCode(t, srv, client, "", "")

	req := TokenRequest{
		GrantType: "authorization_code", Code: code, RedirectURI: testRedirect,
		ClientID: client.ClientID, ClientSecret: secret,
	}
	_, rfcerr := srv.Token(context.Background(), req)
	require.Nil(t, rfcerr)

	_, rfcerr = srv.Token(context.Background(), req)
	require.NotNil(t, rfcerr)
	assert.Equal(t, ErrInvalidGrant, rfcerr.Code)
}

func TestAuthorizationCodeGrant_RedirectMismatchBurnsCode(t *testing.T) {
	srv, _, client, secret := newTestServer(t)
	code := issueCode(t, srv, client, "", "")

	_, rfcerr := srv.Token(context.Background(), TokenRequest{
		GrantType: "authorization_code", Code: code,
		RedirectURI: "https://evil.example.com/callback",
		ClientID:    client.ClientID, ClientSecret: secret,
	})
	require.NotNil(t, rfcerr)
	assert.Equal(t, ErrInvalidGrant, rfcerr.Code)

	// The code was claimed during the failed attempt; a retry with the
	// right redirect must also fail.
	_, rfcerr = srv.Token(context.Background(), TokenRequest{
		GrantType: "authorization_code", Code: code, RedirectURI: testRedirect,
		ClientID: client.ClientID, ClientSecret: secret,
	})
	require.NotNil(t, rfcerr)
	assert.Equal(t, ErrInvalidGrant, rfcerr.Code)
}

func TestAuthorizationCodeGrant_WrongPKCEVerifier(t *testing.T) {
	srv, _, client, secret := newTestServer(t)
	code := issueCode(t, srv, client, s256Challenge("the-real-verifier"), PKCEMethodS256)

	_, rfcerr := srv.Token(context.Background(), TokenRequest{
		GrantType: "authorization_code", Code: code, RedirectURI: testRedirect,
		CodeVerifier: "not-the-verifier",
		ClientID:     client.ClientID, ClientSecret: secret,
	})
	require.NotNil(t, rfcerr)
	assert.Equal(t, ErrInvalidGrant, rfcerr.Code)
}

func TestAuthorizationCodeGrant_BadClientSecret(t *testing.T) {
	srv, _, client, _ := newTestServer(t)
	code := issueCode(t, srv, client, "", "")

	_, rfcerr := srv.Token(context.Background(), TokenRequest{
		GrantType: "authorization_code", Code: code, RedirectURI: testRedirect,
		ClientID: client.ClientID, ClientSecret: "wrong",
	})
	require.NotNil(t, rfcerr)
	assert.Equal(t, ErrInvalidClient, rfcerr.Code)
	assert.Equal(t, 401, rfcerr.Status)
}

func TestRefreshGrant_RotatesTokens(t *testing.T) {
	srv, store, client, secret := newTestServer(t)
	code := issueCode(t, srv, client, "", "")

	first, rfcerr := srv.Token(context.Background(), TokenRequest{
		GrantType: "authorization_code", Code: code, RedirectURI: testRedirect,
		ClientID: client.ClientID, ClientSecret: secret,
	})
	require.Nil(t, rfcerr)

	second, rfcerr := srv.Token(context.Background(), TokenRequest{
		GrantType: "refresh_token", RefreshToken: first.RefreshToken,
		ClientID: client.ClientID, ClientSecret: secret,
	})
	require.Nil(t, rfcerr)
	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, first.Scope, second.Scope)

	// The old pair is dead: its access token fails verification and its
	// refresh token cannot be replayed.
	old, err := store.GetTokenByAccess(context.Background(), first.AccessToken)
	require.NoError(t, err)
	assert.False(t, old.AccessValid())

	_, rfcerr = srv.Token(context.Background(), TokenRequest{
		GrantType: "refresh_token", RefreshToken: first.RefreshToken,
		ClientID: client.ClientID, ClientSecret: secret,
	})
	require.NotNil(t, rfcerr)
	assert.Equal(t, ErrInvalidGrant, rfcerr.Code)
}

func TestClientCredentialsGrant(t *testing.T) {
	srv, _, client, secret := newTestServer(t)

	resp, rfcerr := srv.Token(context.Background(), TokenRequest{
		GrantType: "client_credentials",
		Scope:     "smarthome:read",
		ClientID:  client.ClientID, ClientSecret: secret,
	})
	require.Nil(t, rfcerr)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Empty(t, resp.RefreshToken, "client_credentials must not issue a refresh token")
	assert.Equal(t, "smarthome:read", resp.Scope)
}

func TestClientCredentialsGrant_ScopeExceedsAllowList(t *testing.T) {
	srv, _, client, secret := newTestServer(t)

	_, rfcerr := srv.Token(context.Background(), TokenRequest{
		GrantType: "client_credentials",
		Scope:     "smarthome:read admin:everything",
		ClientID:  client.ClientID, ClientSecret: secret,
	})
	require.NotNil(t, rfcerr)
	assert.Equal(t, ErrInvalidScope, rfcerr.Code)
}

func TestToken_UnsupportedGrantType(t *testing.T) {
	srv, _, client, secret := newTestServer(t)

	_, rfcerr := srv.Token(context.Background(), TokenRequest{
		GrantType: "password",
		ClientID:  client.ClientID, ClientSecret: secret,
	})
	require.NotNil(t, rfcerr)
	assert.Equal(t, ErrUnsupportedGrantType, rfcerr.Code)
	assert.Equal(t, 400, rfcerr.Status)

	_, rfcerr = srv.Token(context.Background(), TokenRequest{})
	require.NotNil(t, rfcerr)
	assert.Equal(t, ErrInvalidRequest, rfcerr.Code)
}

func TestToken_GrantNotAllowedForClient(t *testing.T) {
	srv, store, _, _ := newTestServer(t)

	secret, hash, err := NewClientSecret()
	require.NoError(t, err)
	limited := &models.OAuthClient{
		ClientID:         "cc-only",
		ClientSecretHash: hash,
		RedirectURIs:     testRedirect,
		Scopes:           "smarthome:read",
		GrantTypes:       "client_credentials",
		IsActive:         true,
	}
	require.NoError(t, store.CreateOAuthClient(context.Background(), limited))

	_, rfcerr := srv.Token(context.Background(), TokenRequest{
		GrantType: "authorization_code", Code: "whatever", RedirectURI: testRedirect,
		ClientID: limited.ClientID, ClientSecret: secret,
	})
	require.NotNil(t, rfcerr)
	assert.Equal(t, ErrUnauthorizedClient, rfcerr.Code)
}

func TestIntrospect(t *testing.T) {
	srv, _, client, secret := newTestServer(t)
	ctx := context.Background()

	resp, rfcerr := srv.Token(ctx, TokenRequest{
		GrantType: "client_credentials",
		ClientID:  client.ClientID, ClientSecret: secret,
	})
	require.Nil(t, rfcerr)

	active := srv.Introspect(ctx, resp.AccessToken, client)
	assert.True(t, active.Active)
	assert.Equal(t, client.ClientID, active.ClientID)
	assert.Equal(t, "bearer", active.TokenType)
	assert.Greater(t, active.Exp, time.Now().Unix())

	// Unknown and empty tokens are active:false, never an error.
	assert.False(t, srv.Introspect(ctx, "no-such-token", client).Active)
	assert.False(t, srv.Introspect(ctx, "", client).Active)
}

func TestRevoke_KillsWholePair(t *testing.T) {
	srv, _, client, secret := newTestServer(t)
	ctx := context.Background()
	code := issueCode(t, srv, client, "", "")

	resp, rfcerr := srv.Token(ctx, TokenRequest{
		GrantType: "authorization_code", Code: code, RedirectURI: testRedirect,
		ClientID: client.ClientID, ClientSecret: secret,
	})
	require.Nil(t, rfcerr)

	// Revoking by access token invalidates the refresh token too.
	srv.Revoke(ctx, resp.AccessToken, client)

	assert.False(t, srv.Introspect(ctx, resp.AccessToken, client).Active)
	assert.False(t, srv.Introspect(ctx, resp.RefreshToken, client).Active)

	// Revoking again, or revoking garbage, is silent.
	srv.Revoke(ctx, resp.AccessToken, client)
	srv.Revoke(ctx, "no-such-token", client)
}

func TestVerify_BearerGuard(t *testing.T) {
	srv, _, client, secret := newTestServer(t)
	ctx := context.Background()

	resp, rfcerr := srv.Token(ctx, TokenRequest{
		GrantType: "client_credentials", Scope: "smarthome:read",
		ClientID: client.ClientID, ClientSecret: secret,
	})
	require.Nil(t, rfcerr)

	identity, err := srv.Verify(ctx, resp.AccessToken, "smarthome:read")
	require.NoError(t, err)
	assert.Equal(t, client.ClientID, identity.ClientID)
	assert.Equal(t, []string{"smarthome:read"}, identity.Scopes)

	_, err = srv.Verify(ctx, resp.AccessToken, "smarthome:tunnel")
	require.Error(t, err, "missing scope must be rejected")

	_, err = srv.Verify(ctx, "bogus")
	require.Error(t, err)

	_, err = srv.Verify(ctx, "")
	require.Error(t, err)
}

func TestVerify_CountsBearerMetricNotAPIKey(t *testing.T) {
	srv, _, client, secret := newTestServer(t)
	ctx := context.Background()

	resp, rfcerr := srv.Token(ctx, TokenRequest{
		GrantType: "client_credentials", Scope: "smarthome:read",
		ClientID: client.ClientID, ClientSecret: secret,
	})
	require.Nil(t, rfcerr)

	bearerBefore := testutil.ToFloat64(metrics.BearerValidationsTotal.WithLabelValues("valid"))
	apiKeyBefore := testutil.ToFloat64(metrics.APIKeyValidationsTotal.WithLabelValues("valid"))

	_, err := srv.Verify(ctx, resp.AccessToken, "smarthome:read")
	require.NoError(t, err)

	assert.Equal(t, bearerBefore+1,
		testutil.ToFloat64(metrics.BearerValidationsTotal.WithLabelValues("valid")))
	assert.Equal(t, apiKeyBefore,
		testutil.ToFloat64(metrics.APIKeyValidationsTotal.WithLabelValues("valid")),
		"bearer checks must not count as API-key checks")
}

func TestValidateAuthorize(t *testing.T) {
	srv, _, client, _ := newTestServer(t)
	ctx := context.Background()

	_, scope, rfcerr := srv.ValidateAuthorize(ctx, "code", client.ClientID, testRedirect, "smarthome:read")
	require.Nil(t, rfcerr)
	assert.Equal(t, "smarthome:read", scope)

	// Empty scope falls back to the client's full allow-list.
	_, scope, rfcerr = srv.ValidateAuthorize(ctx, "code", client.ClientID, testRedirect, "")
	require.Nil(t, rfcerr)
	assert.Equal(t, client.Scopes, scope)

	_, _, rfcerr = srv.ValidateAuthorize(ctx, "token", client.ClientID, testRedirect, "")
	require.NotNil(t, rfcerr)
	assert.Equal(t, ErrUnsupportedResponseType, rfcerr.Code)

	_, _, rfcerr = srv.ValidateAuthorize(ctx, "code", "ghost", testRedirect, "")
	require.NotNil(t, rfcerr)
	assert.Equal(t, ErrInvalidClient, rfcerr.Code)

	// Unregistered redirect URIs are rejected outright, never redirected to.
	_, _, rfcerr = srv.ValidateAuthorize(ctx, "code", client.ClientID, "https://evil.example.com/cb", "")
	require.NotNil(t, rfcerr)
	assert.Equal(t, ErrInvalidRequest, rfcerr.Code)

	_, _, rfcerr = srv.ValidateAuthorize(ctx, "code", client.ClientID, testRedirect, "admin:everything")
	require.NotNil(t, rfcerr)
	assert.Equal(t, ErrInvalidScope, rfcerr.Code)
}

func TestDeny_RedirectCarriesError(t *testing.T) {
	u := Deny(testRedirect, "xyz")
	assert.Contains(t, u, "error=access_denied")
	assert.Contains(t, u, "state=xyz")
}
