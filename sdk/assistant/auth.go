package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/thaithanhnhat/assistant-cli/internal/session"
)

// AuthService covers account entry points: login, registration, email
// verification, and password recovery. Login and refresh are the only calls
// that write to the session store.
type AuthService struct {
	client *Client
}

// Login exchanges credentials for a token pair and persists it, replacing
// any prior session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*User, error) {
	body, _ := sjson.SetBytes([]byte(`{}`), "email", email)
	body, _ = sjson.SetBytes(body, "password", password)

	respBody, err := s.client.do(ctx, s.client.bareClient, http.MethodPost, "/api/auth/login", body)
	if err != nil {
		return nil, err
	}

	var tokens TokenResponse
	if err = decode(respBody, &tokens); err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("login response carried no access token")
	}

	var userJSON json.RawMessage
	if tokens.User != nil {
		userJSON, _ = json.Marshal(tokens.User)
	}
	expiresIn := tokens.ExpiresIn
	if !gjson.GetBytes(respBody, "expiresIn").Exists() {
		// Missing field selects the default lifetime; an explicit zero is
		// honored as already expired.
		expiresIn = -1
	}
	if err = s.client.sessions.SaveTokens(tokens.AccessToken, tokens.RefreshToken, tokens.TokenType, expiresIn, userJSON); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	log.Debugf("logged in as %s", email)
	return tokens.User, nil
}

// Logout drops the local session. The backend holds no server-side session
// state for this client beyond the refresh token, which simply goes unused.
func (s *AuthService) Logout() error {
	return s.client.sessions.Clear()
}

// refreshRecord is the session manager's refresh exchange: it redeems the
// refresh token at the backend and returns the replacement record.
func (s *AuthService) refreshRecord(ctx context.Context, refreshToken string) (session.Record, error) {
	body, _ := sjson.SetBytes([]byte(`{}`), "refreshToken", refreshToken)

	respBody, err := s.client.do(ctx, s.client.bareClient, http.MethodPost, "/api/auth/refresh-token", body)
	if err != nil {
		return session.Record{}, err
	}

	var tokens TokenResponse
	if err = decode(respBody, &tokens); err != nil {
		return session.Record{}, err
	}
	if tokens.AccessToken == "" {
		return session.Record{}, fmt.Errorf("refresh response carried no access token")
	}

	var userJSON json.RawMessage
	if tokens.User != nil {
		userJSON, _ = json.Marshal(tokens.User)
	}
	expiresIn := tokens.ExpiresIn
	if !gjson.GetBytes(respBody, "expiresIn").Exists() {
		expiresIn = -1
	}
	return session.NewRecord(tokens.AccessToken, tokens.RefreshToken, tokens.TokenType, expiresIn, userJSON), nil
}

// Register creates a new account. The backend sends a verification email;
// the account stays unusable until VerifyToken succeeds.
func (s *AuthService) Register(ctx context.Context, email, password, fullname string) error {
	body, _ := sjson.SetBytes([]byte(`{}`), "email", email)
	body, _ = sjson.SetBytes(body, "password", password)
	body, _ = sjson.SetBytes(body, "fullname", fullname)

	_, err := s.client.do(ctx, s.client.bareClient, http.MethodPost, "/api/auth/register", body)
	return err
}

// ResendVerification asks for a fresh verification email.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	body, _ := sjson.SetBytes([]byte(`{}`), "email", email)
	_, err := s.client.do(ctx, s.client.bareClient, http.MethodPost, "/api/auth/resend-verification", body)
	return err
}

// CheckToken asks whether a verification token is still valid without
// consuming it.
func (s *AuthService) CheckToken(ctx context.Context, token string) (bool, error) {
	respBody, err := s.client.do(ctx, s.client.bareClient, http.MethodGet,
		"/api/auth/check-token?token="+url.QueryEscape(token), nil)
	if err != nil {
		return false, err
	}
	return gjson.GetBytes(respBody, "valid").Bool(), nil
}

// VerifyToken consumes an email verification token.
func (s *AuthService) VerifyToken(ctx context.Context, token string) error {
	body, _ := sjson.SetBytes([]byte(`{}`), "token", token)
	_, err := s.client.do(ctx, s.client.bareClient, http.MethodPost, "/api/auth/verify-token", body)
	return err
}

// ForgotPassword starts the password reset flow for an email.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	body, _ := sjson.SetBytes([]byte(`{}`), "email", email)
	_, err := s.client.do(ctx, s.client.bareClient, http.MethodPost, "/api/auth/forgot-password", body)
	return err
}

// ValidateResetToken checks a password reset token before showing the reset
// form.
func (s *AuthService) ValidateResetToken(ctx context.Context, token string) (bool, error) {
	respBody, err := s.client.do(ctx, s.client.bareClient, http.MethodGet,
		"/api/password/validate-token?token="+url.QueryEscape(token), nil)
	if err != nil {
		return false, err
	}
	return gjson.GetBytes(respBody, "valid").Bool(), nil
}

// ResetPassword completes the reset flow with the emailed token.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	body, _ := sjson.SetBytes([]byte(`{}`), "token", token)
	body, _ = sjson.SetBytes(body, "password", newPassword)
	_, err := s.client.do(ctx, s.client.bareClient, http.MethodPost, "/api/auth/reset-password", body)
	return err
}
