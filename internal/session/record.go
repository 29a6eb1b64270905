// Package session is the single source of truth for the current sign-in:
// the token record, its persistence, and the refresh lifecycle. Every
// authenticated call in the SDK reads its credentials from here and nowhere
// else.
package session

import (
	"encoding/json"
	"time"
)

// DefaultExpiresIn is applied when the backend omits expiresIn.
const DefaultExpiresIn = 3600

// DefaultTokenType is assumed whenever the stored token type is empty.
const DefaultTokenType = "Bearer"

// Record holds one session's credentials. The four token fields are written
// and removed as a group; an access token without an expiry never occurs,
// and a missing expiry is read back as "expired".
type Record struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	// ExpiresAt is the absolute expiry as epoch milliseconds.
	ExpiresAt int64 `json:"token_expiry"`
	// User is the last-known profile snapshot, kept for display before a
	// fresh profile fetch completes.
	User json.RawMessage `json:"user,omitempty"`
}

// NewRecord derives a Record from a token response. The expiry is always
// computed from the local clock at issue time. A negative expiresIn (the
// backend omitted the field) falls back to DefaultExpiresIn; zero is taken
// literally and produces an already-expired record.
func NewRecord(accessToken, refreshToken, tokenType string, expiresIn int64, user json.RawMessage) Record {
	if expiresIn < 0 {
		expiresIn = DefaultExpiresIn
	}
	if tokenType == "" {
		tokenType = DefaultTokenType
	}
	return Record{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenType,
		ExpiresAt:    time.Now().UnixMilli() + expiresIn*1000,
		User:         user,
	}
}

// Type returns the authorization scheme label, defaulting to "Bearer".
func (r Record) Type() string {
	if r.TokenType == "" {
		return DefaultTokenType
	}
	return r.TokenType
}

// Expired reports whether the access token must be treated as invalid.
// A zero expiry counts as expired, and the comparison is inclusive so a
// token expiring exactly now is already unusable.
func (r Record) Expired() bool {
	if r.ExpiresAt <= 0 {
		return true
	}
	return time.Now().UnixMilli() >= r.ExpiresAt
}

// HasRefreshToken reports whether the session can self-heal past expiry.
func (r Record) HasRefreshToken() bool {
	return r.RefreshToken != ""
}
