// Package cachestore is a generic key/value store with a time-based
// staleness check. Entries are never purged automatically: Has reports
// freshness, Get returns whatever is stored.
package cachestore

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Entry is one stored value and the moment it was written.
type Entry[T any] struct {
	Value     T         `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Persister mirrors entries outside the process (Redis in production).
// Errors are reported to the OnError hook and never fail the in-memory
// operation.
type Persister interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttlSeconds int) error
	Del(ctx context.Context, keys ...string) error
}

// PrefixStore is a Persister that can also enumerate and drop keys by
// prefix. When the store has a prefix, Keys, DeleteFunc and Clear reach
// entries written by other processes too.
type PrefixStore interface {
	Persister
	Keys(ctx context.Context, prefix string) ([]string, error)
	DelPrefix(ctx context.Context, prefix string) (int, error)
}

type Option func(*options)

type options struct {
	prefix    string
	persister Persister
	now       func() time.Time
	onError   func(op, key string, err error)
	timeout   time.Duration
}

// WithPrefix namespaces keys written to the persister.
func WithPrefix(p string) Option { return func(o *options) { o.prefix = p } }

func WithPersister(p Persister) Option { return func(o *options) { o.persister = p } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

func WithErrorHook(fn func(op, key string, err error)) Option {
	return func(o *options) { o.onError = fn }
}

type Store[T any] struct {
	mu       sync.RWMutex
	entries  map[string]Entry[T]
	duration time.Duration
	opts     options
}

// New creates a store whose entries are fresh for duration. A zero
// duration makes every entry stale immediately; negative values are
// treated as zero.
func New[T any](duration time.Duration, opts ...Option) *Store[T] {
	o := options{now: time.Now, timeout: 2 * time.Second}
	for _, fn := range opts {
		fn(&o)
	}
	if duration < 0 {
		duration = 0
	}
	return &Store[T]{entries: make(map[string]Entry[T]), duration: duration, opts: o}
}

func (s *Store[T]) Duration() time.Duration { return s.duration }

// Set stores or overwrites id with the current timestamp.
func (s *Store[T]) Set(id string, value T) {
	e := Entry[T]{Value: value, UpdatedAt: s.opts.now()}
	s.mu.Lock()
	s.entries[id] = e
	s.mu.Unlock()
	s.persist(id, e)
}

// Has reports whether id exists and is younger than the store duration.
func (s *Store[T]) Has(id string) bool {
	e, ok := s.entry(id)
	if !ok {
		return false
	}
	return s.opts.now().Sub(e.UpdatedAt) < s.duration
}

// Get returns the stored value regardless of staleness. Callers that care
// about freshness check Has first.
func (s *Store[T]) Get(id string) (T, bool) {
	e, ok := s.entry(id)
	return e.Value, ok
}

// GetEntry is Get with the write timestamp.
func (s *Store[T]) GetEntry(id string) (Entry[T], bool) {
	return s.entry(id)
}

func (s *Store[T]) Delete(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	s.unpersist(id)
}

// DeleteFunc removes every key matching pred and returns how many went.
func (s *Store[T]) DeleteFunc(pred func(key string) bool) int {
	var removed []string
	for _, k := range s.Keys() {
		if pred(k) {
			removed = append(removed, k)
		}
	}
	s.mu.Lock()
	for _, k := range removed {
		delete(s.entries, k)
	}
	s.mu.Unlock()
	s.unpersist(removed...)
	return len(removed)
}

// DeletePrefix is DeleteFunc with strings.HasPrefix.
func (s *Store[T]) DeletePrefix(prefix string) int {
	return s.DeleteFunc(func(k string) bool { return strings.HasPrefix(k, prefix) })
}

func (s *Store[T]) Clear() {
	s.mu.Lock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	s.entries = make(map[string]Entry[T])
	s.mu.Unlock()

	ps, ok := s.prefixStore()
	if !ok {
		s.unpersist(keys...)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.timeout)
	defer cancel()
	if _, err := ps.DelPrefix(ctx, s.opts.prefix); err != nil {
		s.report("clear", s.opts.prefix, err)
	}
}

// Keys lists the stored ids, including those only present in the
// persister when it supports prefix scans.
func (s *Store[T]) Keys() []string {
	s.mu.RLock()
	seen := make(map[string]bool, len(s.entries))
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		seen[k] = true
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	ps, ok := s.prefixStore()
	if !ok {
		return keys
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.timeout)
	defer cancel()
	remote, err := ps.Keys(ctx, s.opts.prefix)
	if err != nil {
		s.report("keys", s.opts.prefix, err)
		return keys
	}
	for _, rk := range remote {
		k := strings.TrimPrefix(rk, s.opts.prefix)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

func (s *Store[T]) Len() int { return len(s.Keys()) }

// prefixStore is only used with a non-empty prefix, so a scan never
// reaches keys owned by anything else.
func (s *Store[T]) prefixStore() (PrefixStore, bool) {
	if s.opts.prefix == "" {
		return nil, false
	}
	ps, ok := s.opts.persister.(PrefixStore)
	return ps, ok
}

// entry falls back to the persister on a local miss and keeps what it
// finds, with its original timestamp.
func (s *Store[T]) entry(id string) (Entry[T], bool) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if ok || s.opts.persister == nil {
		return e, ok
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.timeout)
	defer cancel()
	b, err := s.opts.persister.Get(ctx, s.opts.prefix+id)
	if err != nil {
		s.report("get", id, err)
		return e, false
	}
	if b == nil {
		return e, false
	}
	if err := json.Unmarshal(b, &e); err != nil {
		s.report("decode", id, err)
		return Entry[T]{}, false
	}

	s.mu.Lock()
	if cur, exists := s.entries[id]; exists {
		e = cur
	} else {
		s.entries[id] = e
	}
	s.mu.Unlock()
	return e, true
}

func (s *Store[T]) persist(id string, e Entry[T]) {
	if s.opts.persister == nil {
		return
	}
	b, err := json.Marshal(e)
	if err != nil {
		s.report("encode", id, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.timeout)
	defer cancel()
	// stale entries stay readable, so the mirror keeps no TTL either
	if err := s.opts.persister.Set(ctx, s.opts.prefix+id, b, 0); err != nil {
		s.report("set", id, err)
	}
}

func (s *Store[T]) unpersist(ids ...string) {
	if s.opts.persister == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.opts.prefix + id
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.timeout)
	defer cancel()
	if err := s.opts.persister.Del(ctx, keys...); err != nil {
		s.report("del", strings.Join(ids, ","), err)
	}
}

func (s *Store[T]) report(op, key string, err error) {
	if s.opts.onError != nil {
		s.opts.onError(op, key, err)
	}
}
