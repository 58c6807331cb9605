package debuglog

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etendosoftware/workspace-gateway/internal/erp"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestListNewestFirstAndCapped(t *testing.T) {
	c := &clock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	l := New(WithClock(c.now), WithLimits(3, time.Hour))

	for i := 0; i < 5; i++ {
		l.Add(Entry{ID: fmt.Sprintf("e%d", i), Method: "GET"})
		c.t = c.t.Add(time.Second)
	}

	got := l.List()
	require.Len(t, got, 3)
	assert.Equal(t, "e4", got[0].ID)
	assert.Equal(t, "e2", got[2].ID)
	_, ok := l.Get("e0")
	assert.False(t, ok)
}

func TestExpiredEntriesDropped(t *testing.T) {
	c := &clock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	l := New(WithClock(c.now))

	l.Add(Entry{ID: "old"})
	c.t = c.t.Add(DefaultMaxAge + time.Minute)
	l.Add(Entry{ID: "new"})

	got := l.List()
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
}

func TestObserveMasksCredentials(t *testing.T) {
	l := New()
	l.Observe(erp.Exchange{
		Method:      "POST",
		URL:         "http://erp/etendo/meta/login?token=abc&language=en_US",
		Status:      200,
		Duration:    150 * time.Millisecond,
		RequestBody: []byte(`{"username":"admin","password":"admin"}`),
	})
	l.Observe(erp.Exchange{Method: "GET", URL: "http://erp/etendo/meta/menu", Err: errors.New("dial tcp: refused")})

	got := l.List()
	require.Len(t, got, 2)

	var login Entry
	for _, e := range got {
		if e.Route == "/etendo/meta/login" {
			login = e
		}
	}
	assert.Equal(t, maskedBody, login.RequestBody)
	assert.NotContains(t, login.URL, "abc")
	assert.Contains(t, login.URL, "language=en_US")
	assert.EqualValues(t, 150, login.TimingMS)
	assert.NotEmpty(t, login.ID)
}

func TestClear(t *testing.T) {
	l := New()
	l.Add(Entry{})
	require.Equal(t, 1, l.Len())
	l.Clear()
	assert.Equal(t, 0, l.Len())
}
