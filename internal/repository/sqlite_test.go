package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WOOWTECH/paas-operator/internal/models"
	"github.com/WOOWTECH/paas-operator/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	require.NoError(t, repo.RunMigrations(migrations.FS))
	return repo
}

func seedClient(t *testing.T, repo *SQLiteRepository) *models.OAuthClient {
	t.Helper()
	client := &models.OAuthClient{
		ClientID:         "client-1",
		ClientSecretHash: "$2a$12$fakehash",
		Name:             "Test App",
		RedirectURIs:     "https://app.example.com/callback",
		Scopes:           "smarthome:read smarthome:tunnel",
		GrantTypes:       "authorization_code,refresh_token",
		IsActive:         true,
	}
	require.NoError(t, repo.CreateOAuthClient(context.Background(), client))
	return client
}

func TestOAuthClient_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedClient(t, repo)

	got, err := repo.GetOAuthClientByClientID(ctx, "client-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Test App", got.Name)
	assert.True(t, got.IsActive)

	missing, err := repo.GetOAuthClientByClientID(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing, "missing client must be (nil, nil)")
}

func TestUpdateOAuthClientSecret(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedClient(t, repo)

	require.NoError(t, repo.UpdateOAuthClientSecret(ctx, "client-1", "new-hash"))
	got, err := repo.GetOAuthClientByClientID(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.ClientSecretHash)

	assert.Error(t, repo.UpdateOAuthClientSecret(ctx, "ghost", "hash"))
}

func TestConsumeAuthCode_SingleUse(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedClient(t, repo)

	code := &models.OAuthCode{
		Code:        "abc",
		ClientID:    "client-1",
		UserID:      "user-7",
		RedirectURI: "https://app.example.com/callback",
		Scope:       "smarthome:read",
		ExpiresAt:   time.Now().Add(10 * time.Minute),
	}
	require.NoError(t, repo.CreateAuthCode(ctx, code))

	got, err := repo.ConsumeAuthCode(ctx, "abc", "client-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "user-7", got.UserID)
	assert.True(t, got.IsUsed)

	// A second claim loses.
	replay, err := repo.ConsumeAuthCode(ctx, "abc", "client-1")
	require.NoError(t, err)
	assert.Nil(t, replay)
}

func TestConsumeAuthCode_WrongClientOrMissing(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedClient(t, repo)

	code := &models.OAuthCode{
		Code: "abc", ClientID: "client-1", UserID: "u",
		RedirectURI: "https://app.example.com/callback",
		ExpiresAt:   time.Now().Add(time.Minute),
	}
	require.NoError(t, repo.CreateAuthCode(ctx, code))

	got, err := repo.ConsumeAuthCode(ctx, "abc", "other-client")
	require.NoError(t, err)
	assert.Nil(t, got)

	// The failed claim must not have burned the code for its owner.
	got, err = repo.ConsumeAuthCode(ctx, "abc", "client-1")
	require.NoError(t, err)
	assert.NotNil(t, got)

	got, err = repo.ConsumeAuthCode(ctx, "never-existed", "client-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTokens_LookupAndRevoke(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedClient(t, repo)

	refreshExp := time.Now().Add(30 * 24 * time.Hour)
	token := &models.OAuthToken{
		AccessToken:      "access-1",
		RefreshToken:     "refresh-1",
		TokenType:        "bearer",
		ClientID:         "client-1",
		UserID:           "user-7",
		Scope:            "smarthome:read",
		ExpiresAt:        time.Now().Add(time.Hour),
		RefreshExpiresAt: &refreshExp,
	}
	require.NoError(t, repo.CreateToken(ctx, token))

	byAccess, err := repo.GetTokenByAccess(ctx, "access-1")
	require.NoError(t, err)
	require.NotNil(t, byAccess)
	assert.True(t, byAccess.AccessValid())

	byRefresh, err := repo.GetTokenByRefresh(ctx, "refresh-1", "client-1")
	require.NoError(t, err)
	require.NotNil(t, byRefresh)
	assert.True(t, byRefresh.RefreshValid())

	wrongClient, err := repo.GetTokenByRefresh(ctx, "refresh-1", "other")
	require.NoError(t, err)
	assert.Nil(t, wrongClient)

	// GetTokenByValue matches either half of the pair.
	byValue, err := repo.GetTokenByValue(ctx, "refresh-1", "client-1")
	require.NoError(t, err)
	require.NotNil(t, byValue)
	assert.Equal(t, byAccess.ID, byValue.ID)

	require.NoError(t, repo.RevokeToken(ctx, token.ID))
	revoked, err := repo.GetTokenByAccess(ctx, "access-1")
	require.NoError(t, err)
	assert.False(t, revoked.AccessValid())
	assert.False(t, revoked.RefreshValid())

	// Idempotent.
	require.NoError(t, repo.RevokeToken(ctx, token.ID))
}

func TestGetTokenByValue_EmptyRefreshNeverMatches(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedClient(t, repo)

	token := &models.OAuthToken{
		AccessToken: "access-cc",
		TokenType:   "bearer",
		ClientID:    "client-1",
		Scope:       "smarthome:read",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.CreateToken(ctx, token))

	got, err := repo.GetTokenByValue(ctx, "", "client-1")
	require.NoError(t, err)
	assert.Nil(t, got, "an empty value must not match a row with no refresh token")
}

func TestWorkspacesAndHomes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO workspaces (id, name, namespace, owner_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		"ws-1", "Acme", "paas-ws-acme", "user-7", now)
	require.NoError(t, err)
	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO homes (id, workspace_id, name, release_name, tunnel_id, dns_record_id, hostname, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		"home-1", "ws-1", "Main Home", "ha", "tun-1", "rec-1", "acme.paas.example.com", now)
	require.NoError(t, err)

	workspaces, err := repo.ListWorkspaces(ctx, "user-7")
	require.NoError(t, err)
	require.Len(t, workspaces, 1)
	assert.Equal(t, "paas-ws-acme", workspaces[0].Namespace)

	none, err := repo.ListWorkspaces(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, none)

	homes, err := repo.ListHomes(ctx, "ws-1")
	require.NoError(t, err)
	require.Len(t, homes, 1)
	assert.Equal(t, "tun-1", homes[0].TunnelID)

	home, err := repo.GetHome(ctx, "home-1")
	require.NoError(t, err)
	require.NotNil(t, home)
	assert.Equal(t, "acme.paas.example.com", home.Hostname)

	missing, err := repo.GetHome(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
