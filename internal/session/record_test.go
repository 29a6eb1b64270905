package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewRecordRoundTrip(t *testing.T) {
	r := NewRecord("access", "refresh", "Bearer", 3600, nil)

	require.Equal(t, "access", r.AccessToken)
	require.Equal(t, "refresh", r.RefreshToken)
	require.Equal(t, "Bearer", r.Type())
	require.True(t, r.HasRefreshToken())
	require.False(t, r.Expired())
}

func TestNewRecordZeroExpiresInIsExpired(t *testing.T) {
	r := NewRecord("access", "refresh", "Bearer", 0, nil)
	require.True(t, r.Expired())
}

func TestNewRecordNegativeExpiresInUsesDefault(t *testing.T) {
	before := time.Now().UnixMilli()
	r := NewRecord("access", "refresh", "", -1, nil)

	require.False(t, r.Expired())
	require.GreaterOrEqual(t, r.ExpiresAt, before+DefaultExpiresIn*1000)
	require.Equal(t, DefaultTokenType, r.TokenType)
}

func TestZeroRecordDefaults(t *testing.T) {
	var r Record

	require.True(t, r.Expired())
	require.False(t, r.HasRefreshToken())
	require.Equal(t, DefaultTokenType, r.Type())
}

func TestExpiredIsInclusive(t *testing.T) {
	r := Record{AccessToken: "access", ExpiresAt: time.Now().UnixMilli()}
	require.True(t, r.Expired())
}
