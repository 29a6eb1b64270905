package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ErrNoSession is returned when an authenticated call is attempted with no
// stored credentials at all.
var ErrNoSession = errors.New("no active session, please log in")

// ErrSessionExpired is returned when the session cannot self-heal: the
// refresh token is missing or the refresh call itself failed. The store is
// always cleared before this error is surfaced.
var ErrSessionExpired = errors.New("session expired, please log in again")

// RefreshFunc exchanges a refresh token for a fresh Record at the backend.
type RefreshFunc func(ctx context.Context, refreshToken string) (Record, error)

// Manager owns the session lifecycle: persisting new token pairs, answering
// freshness queries, and refreshing through the backend when needed.
// Concurrent refresh attempts are coalesced into a single in-flight call so
// simultaneous expired requests redeem the refresh token only once.
type Manager struct {
	store   Store
	refresh RefreshFunc
	group   singleflight.Group
}

// NewManager builds a Manager over the given store. The refresh function is
// wired afterwards via SetRefreshFunc because the auth service that
// implements it needs the manager first.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// SetRefreshFunc installs the backend refresh exchange.
func (m *Manager) SetRefreshFunc(fn RefreshFunc) {
	m.refresh = fn
}

// SaveTokens persists a new token pair, overwriting any prior session.
func (m *Manager) SaveTokens(accessToken, refreshToken, tokenType string, expiresIn int64, user json.RawMessage) error {
	return m.store.Save(NewRecord(accessToken, refreshToken, tokenType, expiresIn, user))
}

// SaveRecord persists an explicit record, replacing the stored one. Used to
// refresh the cached user snapshot without touching the token fields' source.
func (m *Manager) SaveRecord(r Record) error {
	return m.store.Save(r)
}

// Current returns the stored record. Storage read failures degrade to an
// empty record so callers treat them as "logged out" rather than crashing.
func (m *Manager) Current() Record {
	r, err := m.store.Load()
	if err != nil {
		log.Warnf("session: failed to read store, treating as logged out: %v", err)
		return Record{}
	}
	return r
}

// AccessToken returns the stored access token, empty when logged out.
func (m *Manager) AccessToken() string {
	return m.Current().AccessToken
}

// TokenType returns the authorization scheme label, defaulting to "Bearer".
func (m *Manager) TokenType() string {
	return m.Current().Type()
}

// Expired reports whether the stored access token is unusable.
func (m *Manager) Expired() bool {
	return m.Current().Expired()
}

// HasRefreshToken reports whether a refresh token is stored.
func (m *Manager) HasRefreshToken() bool {
	return m.Current().HasRefreshToken()
}

// Clear drops the session. Idempotent.
func (m *Manager) Clear() error {
	return m.store.Clear()
}

// EnsureValid verifies the session is usable before network I/O, refreshing
// eagerly when the access token has expired. It performs no I/O when the
// token is still fresh.
func (m *Manager) EnsureValid(ctx context.Context) error {
	r := m.Current()
	if r.AccessToken == "" {
		return ErrNoSession
	}
	if !r.Expired() {
		return nil
	}
	if !r.HasRefreshToken() {
		if err := m.store.Clear(); err != nil {
			log.Warnf("session: failed to clear store: %v", err)
		}
		return ErrSessionExpired
	}
	return m.Refresh(ctx)
}

// Refresh redeems the stored refresh token for a new token pair and persists
// it. Concurrent calls share one flight. Any failure is terminal for the
// session: the store is cleared and ErrSessionExpired is returned.
func (m *Manager) Refresh(ctx context.Context) error {
	_, err, _ := m.group.Do("refresh", func() (any, error) {
		r := m.Current()
		if !r.HasRefreshToken() {
			return nil, ErrSessionExpired
		}
		if m.refresh == nil {
			return nil, fmt.Errorf("session: no refresh function configured")
		}
		fresh, errRefresh := m.refresh(ctx, r.RefreshToken)
		if errRefresh != nil {
			log.Debugf("session: token refresh failed: %v", errRefresh)
			return nil, fmt.Errorf("%w: %v", ErrSessionExpired, errRefresh)
		}
		// Carry the cached user snapshot over when the refresh response
		// does not include one.
		if len(fresh.User) == 0 {
			fresh.User = r.User
		}
		if errSave := m.store.Save(fresh); errSave != nil {
			return nil, fmt.Errorf("session: failed to persist refreshed tokens: %w", errSave)
		}
		log.Debug("session: tokens refreshed")
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			if errClear := m.store.Clear(); errClear != nil {
				log.Warnf("session: failed to clear store: %v", errClear)
			}
		}
		return err
	}
	return nil
}
