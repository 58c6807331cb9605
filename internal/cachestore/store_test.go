package cachestore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	redisx "github.com/etendosoftware/workspace-gateway/internal/infra/cache/redis"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock { return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memPersister struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemPersister() *memPersister { return &memPersister{data: map[string][]byte{}} }

func (p *memPersister) Get(_ context.Context, key string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.data[key], nil
}

func (p *memPersister) Set(_ context.Context, key string, val []byte, _ int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.data[key] = val
	return nil
}

func (p *memPersister) Del(_ context.Context, keys ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range keys {
		delete(p.data, k)
	}
	return p.err
}

func TestHasIsFreshUntilDurationElapses(t *testing.T) {
	clock := newClock()
	c := New[int](time.Second, WithClock(clock.Now))

	c.Set("a", 5)
	assert.True(t, c.Has("a"))

	clock.Advance(999 * time.Millisecond)
	assert.True(t, c.Has("a"))

	clock.Advance(time.Millisecond)
	assert.False(t, c.Has("a"), "entry must be stale once duration has elapsed")

	v, ok := c.Get("a")
	assert.True(t, ok, "stale entries are not purged")
	assert.Equal(t, 5, v)
}

func TestHasWithRealClock(t *testing.T) {
	c := New[int](20 * time.Millisecond)
	c.Set("a", 5)
	assert.True(t, c.Has("a"))
	time.Sleep(30 * time.Millisecond)
	assert.False(t, c.Has("a"))
}

func TestZeroDurationIsAlwaysStale(t *testing.T) {
	c := New[string](0)
	c.Set("k", "v")
	assert.False(t, c.Has("k"))
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	neg := New[string](-time.Second)
	assert.Equal(t, time.Duration(0), neg.Duration())
}

func TestSetOverwritesAndRefreshes(t *testing.T) {
	clock := newClock()
	c := New[int](time.Second, WithClock(clock.Now))
	c.Set("a", 1)
	clock.Advance(2 * time.Second)
	assert.False(t, c.Has("a"))

	c.Set("a", 2)
	assert.True(t, c.Has("a"))
	v, _ := c.Get("a")
	assert.Equal(t, 2, v)
}

func TestGetAbsentAndAfterDelete(t *testing.T) {
	c := New[*int](time.Minute)
	v, ok := c.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, v)

	n := 3
	c.Set("a", &n)
	c.Delete("a")
	v, ok = c.Get("a")
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.False(t, c.Has("a"))
}

func TestClearAndDeletePrefix(t *testing.T) {
	c := New[int](time.Minute)
	c.Set("window-1-default", 1)
	c.Set("window-2-default", 2)
	c.Set("tab-1-default", 3)

	assert.Equal(t, 2, c.DeletePrefix("window-"))
	assert.ElementsMatch(t, []string{"tab-1-default"}, c.Keys())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestPersisterMirrorsEntries(t *testing.T) {
	clock := newClock()
	p := newMemPersister()

	c := New[[]string](time.Minute, WithPersister(p), WithPrefix("etendo_metadata_"), WithClock(clock.Now))
	c.Set("labels-es_ES", []string{"a", "b"})
	require.Contains(t, p.data, "etendo_metadata_labels-es_ES")

	// a second store sharing the persister sees the entry with its timestamp
	other := New[[]string](time.Minute, WithPersister(p), WithPrefix("etendo_metadata_"), WithClock(clock.Now))
	clock.Advance(30 * time.Second)
	v, ok := other.Get("labels-es_ES")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, v)
	assert.True(t, other.Has("labels-es_ES"))

	clock.Advance(31 * time.Second)
	assert.False(t, other.Has("labels-es_ES"))

	other.Delete("labels-es_ES")
	assert.NotContains(t, p.data, "etendo_metadata_labels-es_ES")
}

func TestPersisterErrorsDoNotFailOperations(t *testing.T) {
	p := newMemPersister()
	p.err = errors.New("down")
	var ops []string
	c := New[int](time.Minute, WithPersister(p), WithErrorHook(func(op, _ string, _ error) {
		ops = append(ops, op)
	}))

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, []string{"set", "get"}, ops)
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int](time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set("k", i)
			c.Has("k")
			c.Get("k")
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
}

func TestPrefixStoreSeesEntriesOfOtherStores(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redisx.New(redisx.Config{Addr: mr.Addr()}, zap.NewNop())
	t.Cleanup(rc.Close)
	require.NoError(t, mr.Set("unrelated", "x"))

	writer := New[int](time.Hour, WithPrefix("menu_"), WithPersister(rc))
	writer.Set("a", 1)
	writer.Set("b", 2)
	writer.Set("c", 3)

	other := New[int](time.Hour, WithPrefix("menu_"), WithPersister(rc))
	assert.ElementsMatch(t, []string{"a", "b", "c"}, other.Keys())
	assert.Equal(t, 3, other.Len())

	assert.Equal(t, 1, other.DeletePrefix("a"))
	assert.False(t, mr.Exists("menu_a"))

	other.Clear()
	assert.False(t, mr.Exists("menu_b"))
	assert.False(t, mr.Exists("menu_c"))
	assert.True(t, mr.Exists("unrelated"))

	fresh := New[int](time.Hour, WithPrefix("menu_"), WithPersister(rc))
	assert.False(t, fresh.Has("b"))
	assert.Zero(t, fresh.Len())
}

func TestClearWithoutPrefixKeepsForeignKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redisx.New(redisx.Config{Addr: mr.Addr()}, zap.NewNop())
	t.Cleanup(rc.Close)
	require.NoError(t, mr.Set("foreign", "x"))

	c := New[int](time.Hour, WithPersister(rc))
	c.Set("mine", 1)
	c.Clear()
	assert.False(t, mr.Exists("mine"))
	assert.True(t, mr.Exists("foreign"))
}
