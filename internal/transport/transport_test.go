package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thaithanhnhat/assistant-cli/internal/session"
)

func newSessionManager(t *testing.T, r session.Record) (*session.Manager, *session.MemStore) {
	t.Helper()
	store := session.NewMemStore()
	require.NoError(t, store.Save(r))
	return session.NewManager(store), store
}

func activeRecord(access, refresh string) session.Record {
	return session.Record{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresAt:    time.Now().Add(time.Hour).UnixMilli(),
	}
}

func TestAttachesAuthorizationHeader(t *testing.T) {
	var gotAuth, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	manager, _ := newSessionManager(t, activeRecord("token-1", "refresh-1"))
	client := &http.Client{Transport: NewAuthTransport(nil, manager)}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	require.Equal(t, "Bearer token-1", gotAuth)
	require.NotEmpty(t, gotRequestID)
}

func TestNoTokenSendsUnauthenticated(t *testing.T) {
	var gotAuth string
	var sawAuthHeader bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, sawAuthHeader = r.Header["Authorization"]
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	manager := session.NewManager(session.NewMemStore())
	client := &http.Client{Transport: NewAuthTransport(nil, manager)}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.Empty(t, gotAuth)
	require.False(t, sawAuthHeader)
}

func TestTransparentRefreshAndRetry(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch hits.Add(1) {
		case 1:
			require.Equal(t, "Bearer stale", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"token_expired","message":"expired"}`))
		default:
			require.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
			body, _ := io.ReadAll(r.Body)
			require.Equal(t, `{"name":"x"}`, string(body))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer server.Close()

	manager, store := newSessionManager(t, activeRecord("stale", "refresh-1"))
	var refreshes atomic.Int32
	manager.SetRefreshFunc(func(ctx context.Context, refreshToken string) (session.Record, error) {
		refreshes.Add(1)
		require.Equal(t, "refresh-1", refreshToken)
		return session.NewRecord("fresh", "refresh-2", "Bearer", 3600, nil), nil
	})

	client := &http.Client{Transport: NewAuthTransport(nil, manager)}
	req, err := http.NewRequest(http.MethodPost, server.URL, strings.NewReader(`{"name":"x"}`))
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	// The caller never sees the intervening 401.
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	require.JSONEq(t, `{"ok":true}`, string(body))
	require.Equal(t, int32(2), hits.Load())
	require.Equal(t, int32(1), refreshes.Load())

	saved, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "fresh", saved.AccessToken)
	require.Equal(t, "refresh-2", saved.RefreshToken)
}

func TestAtMostOneRetry(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"token_expired","message":"expired"}`))
	}))
	defer server.Close()

	manager, _ := newSessionManager(t, activeRecord("stale", "refresh-1"))
	var refreshes atomic.Int32
	manager.SetRefreshFunc(func(ctx context.Context, refreshToken string) (session.Record, error) {
		refreshes.Add(1)
		return session.NewRecord("fresh", "refresh-2", "Bearer", 3600, nil), nil
	})

	client := &http.Client{Transport: NewAuthTransport(nil, manager)}
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	// One original call, one refresh, one replay, then a terminal 401.
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, int32(2), hits.Load())
	require.Equal(t, int32(1), refreshes.Load())
}

func TestNoRefreshTokenFailsTerminally(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"token_expired"}`))
	}))
	defer server.Close()

	manager, store := newSessionManager(t, activeRecord("stale", ""))
	client := &http.Client{Transport: NewAuthTransport(nil, manager)}

	_, err := client.Get(server.URL)
	require.ErrorIs(t, err, session.ErrSessionExpired)

	saved, errLoad := store.Load()
	require.NoError(t, errLoad)
	require.Empty(t, saved.AccessToken)
}

func TestFailedRefreshFailsTerminally(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_token"}`))
	}))
	defer server.Close()

	manager, store := newSessionManager(t, activeRecord("stale", "refresh-1"))
	manager.SetRefreshFunc(func(ctx context.Context, refreshToken string) (session.Record, error) {
		return session.Record{}, context.DeadlineExceeded
	})

	client := &http.Client{Transport: NewAuthTransport(nil, manager)}
	_, err := client.Get(server.URL)
	require.ErrorIs(t, err, session.ErrSessionExpired)

	saved, errLoad := store.Load()
	require.NoError(t, errLoad)
	require.Empty(t, saved.RefreshToken)
}

func TestUnrecognized401PassesThrough(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad_credentials","message":"wrong password"}`))
	}))
	defer server.Close()

	manager, store := newSessionManager(t, activeRecord("token-1", "refresh-1"))
	client := &http.Client{Transport: NewAuthTransport(nil, manager)}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	require.Contains(t, string(body), "wrong password")
	require.Equal(t, int32(1), hits.Load())

	// A business 401 does not destroy the session.
	saved, errLoad := store.Load()
	require.NoError(t, errLoad)
	require.Equal(t, "token-1", saved.AccessToken)
}
