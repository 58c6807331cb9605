// Package session keeps per-token state that outlives a single request:
// the classic JSESSIONID cookie, recovery attempts and the selection
// context of the open window.
package session

import (
	"sync"

	"github.com/etendosoftware/workspace-gateway/internal/cachestore"
	"github.com/etendosoftware/workspace-gateway/internal/domain"
)

// MaxRecoveryAttempts bounds consecutive failed re-logins per token.
const MaxRecoveryAttempts = 3

// Store implements erp.SessionStore. Cookies are mirrored to the
// cachestore persister so every gateway replica sees them.
type Store struct {
	cookies *cachestore.Store[string]

	mu       sync.Mutex
	attempts map[string]int
}

func NewStore(opts ...cachestore.Option) *Store {
	return &Store{
		cookies:  cachestore.New[string](0, opts...),
		attempts: make(map[string]int),
	}
}

func key(token string) string { return domain.HashKey(token) }

func (s *Store) Cookie(token string) string {
	c, _ := s.cookies.Get(key(token))
	return c
}

func (s *Store) SetCookie(token, cookie string) {
	if token == "" || cookie == "" {
		return
	}
	if cur, ok := s.cookies.Get(key(token)); ok && cur == cookie {
		return
	}
	s.cookies.Set(key(token), cookie)
}

func (s *Store) ClearCookie(token string) {
	s.cookies.Delete(key(token))
	s.mu.Lock()
	delete(s.attempts, key(token))
	s.mu.Unlock()
}

// BeginRecovery reserves one recovery attempt, false once the token has
// failed MaxRecoveryAttempts times in a row.
func (s *Store) BeginRecovery(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(token)
	if s.attempts[k] >= MaxRecoveryAttempts {
		return false
	}
	s.attempts[k]++
	return true
}

// EndRecovery resets the counter after a successful re-login.
func (s *Store) EndRecovery(token string, ok bool) {
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.attempts, key(token))
	s.mu.Unlock()
}

// Attempts is the number of failed recoveries recorded for token.
func (s *Store) Attempts(token string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts[key(token)]
}
