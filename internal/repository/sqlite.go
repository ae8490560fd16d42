package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/WOOWTECH/paas-operator/internal/models"
)

// SQLiteRepository implements Store using SQLite (pure-Go driver).
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository opens (or creates) the database at dbPath.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	// Enable foreign keys; serialize writers to avoid SQLITE_BUSY under
	// concurrent token issuance.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	db.SetMaxOpenConns(1)

	return &SQLiteRepository{db: db}, nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Ping verifies database connectivity (readiness probe).
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// RunMigrations executes every *.sql file in fsys in lexical order.
func (r *SQLiteRepository) RunMigrations(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.db.Exec(string(data)); err != nil {
			return fmt.Errorf("run migration %s: %w", name, err)
		}
	}
	return nil
}

// OAuth clients

func (r *SQLiteRepository) CreateOAuthClient(ctx context.Context, client *models.OAuthClient) error {
	if client.ID == "" {
		client.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now

	query := `
		INSERT INTO oauth_clients (id, client_id, client_secret_hash, name, redirect_uris, scopes, grant_types, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		client.ID,
		client.ClientID,
		client.ClientSecretHash,
		client.Name,
		client.RedirectURIs,
		client.Scopes,
		client.GrantTypes,
		client.IsActive,
		client.CreatedAt,
		client.UpdatedAt,
	)
	return err
}

func (r *SQLiteRepository) GetOAuthClientByClientID(ctx context.Context, clientID string) (*models.OAuthClient, error) {
	var client models.OAuthClient
	query := `SELECT * FROM oauth_clients WHERE client_id = ?`

	err := r.db.GetContext(ctx, &client, query, clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *SQLiteRepository) UpdateOAuthClientSecret(ctx context.Context, clientID, secretHash string) error {
	query := `UPDATE oauth_clients SET client_secret_hash = ?, updated_at = ? WHERE client_id = ?`
	res, err := r.db.ExecContext(ctx, query, secretHash, time.Now().UTC(), clientID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Authorization codes

func (r *SQLiteRepository) CreateAuthCode(ctx context.Context, code *models.OAuthCode) error {
	if code.ID == "" {
		code.ID = uuid.New().String()
	}
	code.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO oauth_codes (id, code, client_id, user_id, redirect_uri, scope, code_challenge, code_challenge_method, expires_at, is_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		code.ID,
		code.Code,
		code.ClientID,
		code.UserID,
		code.RedirectURI,
		code.Scope,
		code.CodeChallenge,
		code.ChallengeMethod,
		code.ExpiresAt,
		code.CreatedAt,
	)
	return err
}

// ConsumeAuthCode claims the code with a conditional update so the window
// between validation and marking is closed: replaying a code loses the race
// and gets nothing back. Expiry and redirect checks happen on the returned
// row; by then the code is already burned either way.
func (r *SQLiteRepository) ConsumeAuthCode(ctx context.Context, code, clientID string) (*models.OAuthCode, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE oauth_codes SET is_used = 1 WHERE code = ? AND client_id = ? AND is_used = 0`,
		code, clientID,
	)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return nil, err
	}

	var out models.OAuthCode
	err = r.db.GetContext(ctx, &out,
		`SELECT * FROM oauth_codes WHERE code = ? AND client_id = ?`, code, clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Tokens

func (r *SQLiteRepository) CreateToken(ctx context.Context, token *models.OAuthToken) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.TokenType == "" {
		token.TokenType = "bearer"
	}
	token.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO oauth_tokens (id, access_token, refresh_token, token_type, client_id, user_id, scope, expires_at, refresh_expires_at, is_revoked, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.AccessToken,
		token.RefreshToken,
		token.TokenType,
		token.ClientID,
		token.UserID,
		token.Scope,
		token.ExpiresAt,
		token.RefreshExpiresAt,
		token.CreatedAt,
	)
	return err
}

func (r *SQLiteRepository) GetTokenByAccess(ctx context.Context, accessToken string) (*models.OAuthToken, error) {
	return r.getToken(ctx, `SELECT * FROM oauth_tokens WHERE access_token = ?`, accessToken)
}

func (r *SQLiteRepository) GetTokenByRefresh(ctx context.Context, refreshToken, clientID string) (*models.OAuthToken, error) {
	return r.getToken(ctx,
		`SELECT * FROM oauth_tokens WHERE refresh_token = ? AND refresh_token != '' AND client_id = ?`,
		refreshToken, clientID)
}

// GetTokenByValue looks a token up by either its access or refresh value,
// scoped to the authenticated client (introspection and revocation input).
func (r *SQLiteRepository) GetTokenByValue(ctx context.Context, value, clientID string) (*models.OAuthToken, error) {
	return r.getToken(ctx,
		`SELECT * FROM oauth_tokens WHERE (access_token = ? OR (refresh_token = ? AND refresh_token != '')) AND client_id = ?`,
		value, value, clientID)
}

func (r *SQLiteRepository) getToken(ctx context.Context, query string, args ...interface{}) (*models.OAuthToken, error) {
	var token models.OAuthToken
	err := r.db.GetContext(ctx, &token, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// RevokeToken revokes the whole token record, invalidating both the access
// token and any refresh token derived from it. Idempotent.
func (r *SQLiteRepository) RevokeToken(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE oauth_tokens SET is_revoked = 1 WHERE id = ? AND is_revoked = 0`, id)
	return err
}

// Smart-home records

func (r *SQLiteRepository) ListWorkspaces(ctx context.Context, ownerID string) ([]*models.Workspace, error) {
	var out []*models.Workspace
	query := `SELECT * FROM workspaces WHERE owner_id = ? ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &out, query, ownerID)
	return out, err
}

func (r *SQLiteRepository) GetWorkspace(ctx context.Context, id string) (*models.Workspace, error) {
	var ws models.Workspace
	err := r.db.GetContext(ctx, &ws, `SELECT * FROM workspaces WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

func (r *SQLiteRepository) ListHomes(ctx context.Context, workspaceID string) ([]*models.Home, error) {
	var out []*models.Home
	query := `SELECT * FROM homes WHERE workspace_id = ? ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &out, query, workspaceID)
	return out, err
}

func (r *SQLiteRepository) GetHome(ctx context.Context, id string) (*models.Home, error) {
	var home models.Home
	err := r.db.GetContext(ctx, &home, `SELECT * FROM homes WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &home, nil
}
