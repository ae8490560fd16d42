package models

import "time"

// OAuthCode is a single-use authorization code tied to client + user +
// exact redirect URI. Marked used atomically with validation at the token
// endpoint to prevent replay.
type OAuthCode struct {
	ID              string    `json:"id" db:"id"`
	Code            string    `json:"-" db:"code"`
	ClientID        string    `json:"client_id" db:"client_id"`
	UserID          string    `json:"user_id" db:"user_id"`
	RedirectURI     string    `json:"redirect_uri" db:"redirect_uri"`
	Scope           string    `json:"scope" db:"scope"`
	CodeChallenge   string    `json:"-" db:"code_challenge"`        // PKCE, optional
	ChallengeMethod string    `json:"-" db:"code_challenge_method"` // S256 | plain | ""
	ExpiresAt       time.Time `json:"expires_at" db:"expires_at"`
	IsUsed          bool      `json:"is_used" db:"is_used"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// IsExpired reports whether the code's 10-minute lifetime has elapsed.
func (c *OAuthCode) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}
