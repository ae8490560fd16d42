package repository

import (
	"context"

	"github.com/WOOWTECH/paas-operator/internal/models"
)

// Store is the persistence contract for the OAuth2 subsystem and the
// smart-home records read by the device API. The sqlite implementation is
// the default; tests may substitute their own.
type Store interface {
	// OAuth clients
	CreateOAuthClient(ctx context.Context, client *models.OAuthClient) error
	GetOAuthClientByClientID(ctx context.Context, clientID string) (*models.OAuthClient, error)
	UpdateOAuthClientSecret(ctx context.Context, clientID, secretHash string) error

	// Authorization codes
	CreateAuthCode(ctx context.Context, code *models.OAuthCode) error
	// ConsumeAuthCode atomically marks the code used and returns it.
	// Returns (nil, nil) when the code does not exist or was already
	// consumed — both collapse to invalid_grant at the token endpoint.
	ConsumeAuthCode(ctx context.Context, code, clientID string) (*models.OAuthCode, error)

	// Tokens
	CreateToken(ctx context.Context, token *models.OAuthToken) error
	GetTokenByAccess(ctx context.Context, accessToken string) (*models.OAuthToken, error)
	GetTokenByRefresh(ctx context.Context, refreshToken, clientID string) (*models.OAuthToken, error)
	GetTokenByValue(ctx context.Context, value, clientID string) (*models.OAuthToken, error)
	// RevokeToken revokes by row ID; idempotent.
	RevokeToken(ctx context.Context, id string) error

	// Smart-home records
	ListWorkspaces(ctx context.Context, ownerID string) ([]*models.Workspace, error)
	GetWorkspace(ctx context.Context, id string) (*models.Workspace, error)
	ListHomes(ctx context.Context, workspaceID string) ([]*models.Home, error)
	GetHome(ctx context.Context, id string) (*models.Home, error)

	Ping(ctx context.Context) error
	Close() error
}
