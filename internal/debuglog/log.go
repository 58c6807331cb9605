// Package debuglog keeps a bounded in-memory record of upstream ERP calls
// for the developer console.
package debuglog

import (
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/etendosoftware/workspace-gateway/internal/erp"
)

const (
	DefaultMaxEntries = 500
	DefaultMaxAge     = time.Hour

	maxBodyPreview = 4 << 10
	maskedBody     = "[masked]"
)

type Entry struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Route        string    `json:"route"`
	Method       string    `json:"method"`
	URL          string    `json:"url"`
	Status       int       `json:"responseStatus"`
	TimingMS     int64     `json:"timing"`
	RequestBody  string    `json:"requestBody,omitempty"`
	ResponseBody string    `json:"responseBody,omitempty"`
	Error        string    `json:"error,omitempty"`
}

type Log struct {
	mu         sync.Mutex
	entries    map[string]Entry
	maxEntries int
	maxAge     time.Duration
	now        func() time.Time
}

type Option func(*Log)

func WithLimits(maxEntries int, maxAge time.Duration) Option {
	return func(l *Log) {
		if maxEntries > 0 {
			l.maxEntries = maxEntries
		}
		if maxAge > 0 {
			l.maxAge = maxAge
		}
	}
}

func WithClock(now func() time.Time) Option { return func(l *Log) { l.now = now } }

func New(opts ...Option) *Log {
	l := &Log{
		entries:    make(map[string]Entry),
		maxEntries: DefaultMaxEntries,
		maxAge:     DefaultMaxAge,
		now:        time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Observe records one erp.Exchange. It is meant for erp.WithObserver.
func (l *Log) Observe(ex erp.Exchange) {
	e := Entry{
		ID:           uuid.NewString(),
		Timestamp:    l.now(),
		Route:        route(ex.URL),
		Method:       ex.Method,
		URL:          redactURL(ex.URL),
		Status:       ex.Status,
		TimingMS:     ex.Duration.Milliseconds(),
		RequestBody:  preview(ex.RequestBody),
		ResponseBody: preview(ex.ResponseBody),
	}
	if strings.HasSuffix(e.Route, "/meta/login") {
		e.RequestBody = maskedBody
	}
	if ex.Err != nil {
		e.Error = ex.Err.Error()
	}
	l.Add(e)
}

func (l *Log) Add(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}
	l.entries[e.ID] = e
	l.cleanupLocked()
}

// List returns entries newest first.
func (l *Log) List() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cleanupLocked()
	return l.sortedLocked()
}

func (l *Log) Get(id string) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if ok && l.now().Sub(e.Timestamp) > l.maxAge {
		delete(l.entries, id)
		return Entry{}, false
	}
	return e, ok
}

func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = make(map[string]Entry)
	l.mu.Unlock()
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// cleanupLocked drops expired entries and then the oldest ones over the cap.
func (l *Log) cleanupLocked() {
	cutoff := l.now().Add(-l.maxAge)
	for id, e := range l.entries {
		if e.Timestamp.Before(cutoff) {
			delete(l.entries, id)
		}
	}
	if len(l.entries) <= l.maxEntries {
		return
	}
	all := l.sortedLocked()
	for _, e := range all[l.maxEntries:] {
		delete(l.entries, e.ID)
	}
}

func (l *Log) sortedLocked() []Entry {
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func route(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}

var sensitiveParams = []string{"token", "password", "csrfToken"}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	changed := false
	for _, k := range sensitiveParams {
		if q.Has(k) {
			q.Set(k, maskedBody)
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func preview(b []byte) string {
	if len(b) > maxBodyPreview {
		return string(b[:maxBodyPreview]) + "..."
	}
	return string(b)
}
