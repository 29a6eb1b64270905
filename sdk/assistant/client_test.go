package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thaithanhnhat/assistant-cli/internal/apierr"
	"github.com/thaithanhnhat/assistant-cli/internal/config"
	"github.com/thaithanhnhat/assistant-cli/internal/session"
)

func newTestClient(baseURL string) (*Client, *session.MemStore) {
	store := session.NewMemStore()
	cfg := &config.Config{
		BaseURL:        baseURL,
		RequestTimeout: 10,
		ImageTimeout:   20,
	}
	return New(cfg, store), store
}

func seedActiveSession(t *testing.T, store *session.MemStore) {
	t.Helper()
	require.NoError(t, store.Save(session.Record{
		AccessToken:  "seed-access",
		RefreshToken: "seed-refresh",
		TokenType:    "Bearer",
		ExpiresAt:    time.Now().Add(time.Hour).UnixMilli(),
	}))
}

func TestLoginPersistsSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		require.Equal(t, "a@b.c", creds["email"])
		require.Equal(t, "secret", creds["password"])
		// Login must not carry a stale Authorization header.
		require.Empty(t, r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{
			"accessToken":"access-1","refreshToken":"refresh-1",
			"tokenType":"Bearer","expiresIn":3600,
			"user":{"id":7,"email":"a@b.c","fullname":"Alice"}
		}`))
	}))
	defer server.Close()

	client, store := newTestClient(server.URL)
	user, err := client.Auth.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	require.Equal(t, "Alice", user.Fullname)

	saved, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "access-1", saved.AccessToken)
	require.Equal(t, "refresh-1", saved.RefreshToken)
	require.False(t, saved.Expired())
	require.JSONEq(t, `{"id":7,"email":"a@b.c","fullname":"Alice","balance":0,"isAdmin":false,"verified":false}`,
		string(saved.User))
}

func TestLoginMissingExpiresInUsesDefaultLifetime(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"accessToken":"access-1","refreshToken":"refresh-1","tokenType":"Bearer"}`))
	}))
	defer server.Close()

	client, store := newTestClient(server.URL)
	_, err := client.Auth.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)

	saved, err := store.Load()
	require.NoError(t, err)
	require.False(t, saved.Expired())
}

func TestLoginExplicitZeroExpiresInIsExpired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"accessToken":"access-1","refreshToken":"refresh-1","tokenType":"Bearer","expiresIn":0}`))
	}))
	defer server.Close()

	client, store := newTestClient(server.URL)
	_, err := client.Auth.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)

	saved, err := store.Load()
	require.NoError(t, err)
	require.True(t, saved.Expired())
}

func TestLoginBadCredentialsSurfacesBackendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad_credentials","message":"Email or password is incorrect"}`))
	}))
	defer server.Close()

	client, store := newTestClient(server.URL)
	_, err := client.Auth.Login(context.Background(), "a@b.c", "wrong")

	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Email or password is incorrect", apiErr.Message)

	saved, errLoad := store.Load()
	require.NoError(t, errLoad)
	require.Empty(t, saved.AccessToken)
}

func TestSecuredCallWithoutSession(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL)
	_, err := client.Shops.List(context.Background())

	require.ErrorIs(t, err, session.ErrNoSession)
	require.True(t, IsSessionError(err))
	// The guard fails before any network I/O.
	require.Equal(t, int32(0), hits.Load())
}

func TestSecuredCallRefreshesExpiredSessionFirst(t *testing.T) {
	var shopAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/refresh-token":
			var payload map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			require.Equal(t, "seed-refresh", payload["refreshToken"])
			_, _ = w.Write([]byte(`{"accessToken":"fresh","refreshToken":"refresh-2","tokenType":"Bearer","expiresIn":3600}`))
		case "/api/shops":
			shopAuth = r.Header.Get("Authorization")
			_, _ = w.Write([]byte(`[{"id":1,"name":"Tea House","active":true}]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client, store := newTestClient(server.URL)
	require.NoError(t, store.Save(session.Record{
		AccessToken:  "stale",
		RefreshToken: "seed-refresh",
		TokenType:    "Bearer",
		ExpiresAt:    time.Now().UnixMilli() - 1000,
	}))

	shops, err := client.Shops.List(context.Background())
	require.NoError(t, err)
	require.Len(t, shops, 1)
	require.Equal(t, "Tea House", shops[0].Name)
	require.Equal(t, "Bearer fresh", shopAuth)

	saved, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "refresh-2", saved.RefreshToken)
}

func TestSecuredCallExpiredWithoutRefreshToken(t *testing.T) {
	client, store := newTestClient("http://127.0.0.1:0")
	require.NoError(t, store.Save(session.Record{
		AccessToken: "stale",
		TokenType:   "Bearer",
		ExpiresAt:   time.Now().UnixMilli() - 1000,
	}))

	_, err := client.Shops.List(context.Background())
	require.ErrorIs(t, err, session.ErrSessionExpired)

	saved, errLoad := store.Load()
	require.NoError(t, errLoad)
	require.Empty(t, saved.AccessToken)
}

func TestErrorStatusBecomesStructuredError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found","message":"Shop not found"}`))
	}))
	defer server.Close()

	client, store := newTestClient(server.URL)
	seedActiveSession(t, store)

	_, err := client.Shops.Get(context.Background(), 42)

	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.Status)
	require.Equal(t, "Shop not found", apiErr.Message)
	require.False(t, IsSessionError(err))
}

func TestTransportFailureBecomesConnectivityError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, store := newTestClient(url)
	seedActiveSession(t, store)

	_, err := client.Shops.List(context.Background())

	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, apierr.ErrNoResponse, apiErr.Message)
}

func TestProfileGetRefreshesCachedUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/profile", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":7,"email":"a@b.c","fullname":"Alice Updated","balance":12.5}`))
	}))
	defer server.Close()

	client, store := newTestClient(server.URL)
	seedActiveSession(t, store)

	user, err := client.Profile.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Alice Updated", user.Fullname)

	cached := client.Profile.CachedUser()
	require.NotNil(t, cached)
	require.Equal(t, "Alice Updated", cached.Fullname)
	require.Equal(t, 12.5, cached.Balance)
}

func TestLogoutClearsSession(t *testing.T) {
	client, store := newTestClient("http://127.0.0.1:0")
	seedActiveSession(t, store)

	require.NoError(t, client.Auth.Logout())

	saved, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, saved.AccessToken)
	require.Empty(t, saved.RefreshToken)

	_, err = client.Shops.List(context.Background())
	require.ErrorIs(t, err, session.ErrNoSession)
}

func TestIsSessionError(t *testing.T) {
	require.True(t, IsSessionError(session.ErrNoSession))
	require.True(t, IsSessionError(session.ErrSessionExpired))
	require.True(t, IsSessionError(fmt.Errorf("wrapped: %w", session.ErrSessionExpired)))
	require.False(t, IsSessionError(errors.New("boom")))
	require.False(t, IsSessionError(nil))
}
