package models

import "time"

// OAuthToken is an issued access/refresh pair. Revocation applies to the
// whole record, so revoking an access token also invalidates the refresh
// token derived from it. RefreshToken is empty for client_credentials
// grants.
type OAuthToken struct {
	ID               string     `json:"id" db:"id"`
	AccessToken      string     `json:"-" db:"access_token"`
	RefreshToken     string     `json:"-" db:"refresh_token"`
	TokenType        string     `json:"token_type" db:"token_type"` // always "bearer"
	ClientID         string     `json:"client_id" db:"client_id"`
	UserID           string     `json:"user_id" db:"user_id"`
	Scope            string     `json:"scope" db:"scope"` // granted subset, space-separated
	ExpiresAt        time.Time  `json:"expires_at" db:"expires_at"`
	RefreshExpiresAt *time.Time `json:"refresh_expires_at,omitempty" db:"refresh_expires_at"`
	IsRevoked        bool       `json:"is_revoked" db:"is_revoked"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// AccessValid reports whether the access token can still be used.
func (t *OAuthToken) AccessValid() bool {
	return !t.IsRevoked && time.Now().Before(t.ExpiresAt)
}

// RefreshValid reports whether the refresh token can still be used.
func (t *OAuthToken) RefreshValid() bool {
	if t.IsRevoked || t.RefreshToken == "" || t.RefreshExpiresAt == nil {
		return false
	}
	return time.Now().Before(*t.RefreshExpiresAt)
}
