package models

import (
	"strings"
	"time"
)

// OAuthClient is a registered third-party application. The client secret is
// stored only as a bcrypt hash; the plaintext is shown once at creation or
// regeneration and never retrievable again.
type OAuthClient struct {
	ID               string    `json:"id" db:"id"`
	ClientID         string    `json:"client_id" db:"client_id"`
	ClientSecretHash string    `json:"-" db:"client_secret_hash"`
	Name             string    `json:"name" db:"name"`
	RedirectURIs     string    `json:"redirect_uris" db:"redirect_uris"` // newline-separated exact-match list
	Scopes           string    `json:"scopes" db:"scopes"`               // space-separated allow-list
	GrantTypes       string    `json:"grant_types" db:"grant_types"`     // comma-separated allow-list
	IsActive         bool      `json:"is_active" db:"is_active"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// AllowedScopes returns the client's scope allow-list.
func (c *OAuthClient) AllowedScopes() []string {
	return strings.Fields(c.Scopes)
}

// AllowsGrant reports whether grantType is in the client's allow-list.
func (c *OAuthClient) AllowsGrant(grantType string) bool {
	for _, g := range strings.Split(c.GrantTypes, ",") {
		if strings.TrimSpace(g) == grantType {
			return true
		}
	}
	return false
}

// AllowsRedirectURI does an exact match against the registered list. No
// prefix or wildcard matching.
func (c *OAuthClient) AllowsRedirectURI(uri string) bool {
	for _, line := range strings.Split(c.RedirectURIs, "\n") {
		if strings.TrimSpace(line) == uri && uri != "" {
			return true
		}
	}
	return false
}
