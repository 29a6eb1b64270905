package session

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func expiredRecord(refreshToken string) Record {
	return Record{
		AccessToken:  "stale",
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    time.Now().UnixMilli() - 1000,
	}
}

func TestEnsureValidNoSession(t *testing.T) {
	m := NewManager(NewMemStore())
	require.ErrorIs(t, m.EnsureValid(context.Background()), ErrNoSession)
}

func TestEnsureValidFreshTokenNoIO(t *testing.T) {
	m := NewManager(NewMemStore())
	m.SetRefreshFunc(func(ctx context.Context, refreshToken string) (Record, error) {
		t.Fatal("refresh must not run for a fresh token")
		return Record{}, nil
	})
	require.NoError(t, m.SaveTokens("access", "refresh", "Bearer", 3600, nil))

	require.NoError(t, m.EnsureValid(context.Background()))
}

func TestEnsureValidExpiredWithoutRefreshTokenClears(t *testing.T) {
	store := NewMemStore()
	m := NewManager(store)
	require.NoError(t, store.Save(expiredRecord("")))

	require.ErrorIs(t, m.EnsureValid(context.Background()), ErrSessionExpired)

	r, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, r.AccessToken)
}

func TestEnsureValidExpiredRefreshes(t *testing.T) {
	store := NewMemStore()
	m := NewManager(store)
	stale := expiredRecord("refresh-1")
	stale.User = json.RawMessage(`{"email":"a@b.c"}`)
	require.NoError(t, store.Save(stale))

	m.SetRefreshFunc(func(ctx context.Context, refreshToken string) (Record, error) {
		require.Equal(t, "refresh-1", refreshToken)
		return NewRecord("fresh", "refresh-2", "Bearer", 3600, nil), nil
	})

	require.NoError(t, m.EnsureValid(context.Background()))

	r, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "fresh", r.AccessToken)
	require.Equal(t, "refresh-2", r.RefreshToken)
	require.False(t, r.Expired())
	// Cached user snapshot survives a refresh that omits the user.
	require.JSONEq(t, `{"email":"a@b.c"}`, string(r.User))
}

func TestRefreshFailureClearsSession(t *testing.T) {
	store := NewMemStore()
	m := NewManager(store)
	require.NoError(t, store.Save(expiredRecord("refresh-1")))
	m.SetRefreshFunc(func(ctx context.Context, refreshToken string) (Record, error) {
		return Record{}, context.DeadlineExceeded
	})

	require.ErrorIs(t, m.EnsureValid(context.Background()), ErrSessionExpired)

	r, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, r.AccessToken)
	require.Empty(t, r.RefreshToken)
}

func TestConcurrentRefreshesCoalesce(t *testing.T) {
	store := NewMemStore()
	m := NewManager(store)
	require.NoError(t, store.Save(expiredRecord("refresh-1")))

	var calls atomic.Int32
	m.SetRefreshFunc(func(ctx context.Context, refreshToken string) (Record, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return NewRecord("fresh", "refresh-2", "Bearer", 3600, nil), nil
	})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- m.EnsureValid(context.Background())
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, "fresh", m.AccessToken())
}
