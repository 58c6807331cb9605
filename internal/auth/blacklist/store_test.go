package blacklist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memKV struct {
	data map[string]int
}

func (m *memKV) SetNX(_ context.Context, key string, _ []byte, ttl int) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = ttl
	return true, nil
}

func (m *memKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func TestRevoke(t *testing.T) {
	kv := &memKV{data: map[string]int{}}
	s := NewStore(kv)
	ctx := context.Background()

	revoked, err := s.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, s.Revoke(ctx, "a", time.Now().Add(10*time.Minute)))
	revoked, _ = s.IsRevoked(ctx, "a")
	assert.True(t, revoked)
	assert.InDelta(t, 600, kv.data["jti:a"], 2)

	require.NoError(t, s.Revoke(ctx, "old", time.Now().Add(-time.Hour)))
	assert.Equal(t, 61, kv.data["jti:old"])
}

func TestLocalStoreForgetsExpiredTokens(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	s := NewLocal()
	s.now = clock
	s.kv.(*localKV).now = clock
	ctx := context.Background()

	require.NoError(t, s.Revoke(ctx, "tok", now.Add(30*time.Second)))
	revoked, err := s.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)

	now = now.Add(32 * time.Second)
	revoked, _ = s.IsRevoked(ctx, "tok")
	assert.False(t, revoked)

	require.NoError(t, s.Revoke(ctx, "tok", now.Add(time.Hour)))
	revoked, _ = s.IsRevoked(ctx, "tok")
	assert.True(t, revoked)
}
