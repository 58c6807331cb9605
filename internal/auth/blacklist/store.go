// Package blacklist remembers logged-out bearer tokens until they expire.
// Tokens are issued by the ERP, so the gateway cannot invalidate them at
// the source; it refuses them at its own door instead.
package blacklist

import (
	"context"
	"sync"
	"time"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
)

// KV is the part of the cache the blacklist needs.
type KV interface {
	SetNX(ctx context.Context, key string, val []byte, ttlSeconds int) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
}

type Store struct {
	kv  KV
	now func() time.Time
}

// NewStore keeps revocations in kv (Redis), shared by every replica.
func NewStore(kv KV) *Store {
	return &Store{kv: kv, now: time.Now}
}

// NewLocal keeps revocations in process memory, for single-replica
// deployments without Redis.
func NewLocal() *Store {
	l := &localKV{expires: make(map[string]time.Time), now: time.Now}
	return &Store{kv: l, now: time.Now}
}

var _ domain.TokenBlacklist = (*Store)(nil)

// Revoke marks id revoked until exp. A past exp still blocks the token for
// a minute to cover clock skew with the ERP.
func (s *Store) Revoke(ctx context.Context, id string, exp time.Time) error {
	ttl := exp.Sub(s.now())
	if ttl <= 0 {
		ttl = time.Minute
	}
	_, err := s.kv.SetNX(ctx, domain.CacheKeyTokenJTI(id), []byte("1"), int(ttl.Seconds())+1)
	return err
}

func (s *Store) IsRevoked(ctx context.Context, id string) (bool, error) {
	return s.kv.Exists(ctx, domain.CacheKeyTokenJTI(id))
}

type localKV struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func (l *localKV) SetNX(_ context.Context, key string, _ []byte, ttlSeconds int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.sweepLocked(now)
	if _, ok := l.expires[key]; ok {
		return false, nil
	}
	l.expires[key] = now.Add(time.Duration(ttlSeconds) * time.Second)
	return true, nil
}

func (l *localKV) Exists(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	exp, ok := l.expires[key]
	if ok && !l.now().Before(exp) {
		delete(l.expires, key)
		return false, nil
	}
	return ok, nil
}

func (l *localKV) sweepLocked(now time.Time) {
	for k, exp := range l.expires {
		if !now.Before(exp) {
			delete(l.expires, k)
		}
	}
}
