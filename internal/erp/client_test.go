package erp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
)

type memSessions struct {
	mu       sync.Mutex
	cookies  map[string]string
	attempts map[string]int
	max      int
}

func newMemSessions() *memSessions {
	return &memSessions{cookies: map[string]string{}, attempts: map[string]int{}, max: 3}
}

func (m *memSessions) Cookie(t string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cookies[t]
}
func (m *memSessions) SetCookie(t, c string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cookies[t] = c
}
func (m *memSessions) ClearCookie(t string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cookies, t)
}
func (m *memSessions) BeginRecovery(t string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attempts[t] >= m.max {
		return false
	}
	m.attempts[t]++
	return true
}
func (m *memSessions) EndRecovery(t string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		delete(m.attempts, t)
	}
}

func TestRequestEncodesJSONAndAddsHeaders(t *testing.T) {
	var got *http.Request
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json;charset=UTF-8")
		_, _ = w.Write([]byte(`{"menu":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL + "/etendo/").WithToken("tok").WithLanguage("es_ES")
	resp, err := c.Post(context.Background(), "/meta/menu", map[string]string{"role": "R"})
	require.NoError(t, err)

	assert.True(t, resp.OK())
	assert.True(t, resp.IsJSON())
	assert.Equal(t, "/etendo/meta/menu", got.URL.Path)
	assert.Equal(t, "es_ES", got.URL.Query().Get("language"))
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"role":"R"}`, string(body))
}

func TestRequestFormBody(t *testing.T) {
	var ct string
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct = r.Header.Get("Content-Type")
		_ = r.ParseForm()
		form = r.PostForm
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Post(context.Background(), "x", url.Values{"a": {"1", "2"}})
	require.NoError(t, err)
	assert.Equal(t, formContentType, ct)
	assert.Equal(t, []string{"1", "2"}, form["a"])
}

func TestNonJSONAndStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("nope"))
	}))
	defer srv.Close()

	resp, err := New(srv.URL).Get(context.Background(), "meta/window/1")
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.False(t, resp.IsJSON())
	assert.Equal(t, "nope", string(resp.Body))

	e := resp.Err("window")
	assert.ErrorIs(t, e, domain.ErrNotFound)
	assert.True(t, IsStatus(e, http.StatusNotFound))
}

func TestTransportErrorIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := New(srv.URL).Get(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestOversizedResponseIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(r.URL.Query().Get("body")))
	}))
	defer srv.Close()
	c := New(srv.URL, WithMaxBody(8))

	resp, err := c.Get(context.Background(), "x", Query(url.Values{"body": {`{"a":12}`}}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":12}`, string(resp.Data))

	_, err = c.Get(context.Background(), "x", Query(url.Values{"body": {`{"a":123}`}}))
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "exceeds 8 bytes")
}

func TestInterceptorAndObserver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"a":1}`))
	}))
	defer srv.Close()

	var seen []Exchange
	c := New(srv.URL,
		WithInterceptor(func(r *Response) (*Response, error) {
			r.Status = http.StatusAccepted
			return r, nil
		}),
		WithObserver(func(e Exchange) { seen = append(seen, e) }),
	)
	resp, err := c.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.Status)
	require.Len(t, seen, 1)
	assert.Equal(t, http.StatusAccepted, seen[0].Status)
	assert.Equal(t, http.MethodGet, seen[0].Method)
}

func TestSessionCookieIsCapturedAndSent(t *testing.T) {
	var cookies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookies = append(cookies, r.Header.Get("Cookie"))
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "abc"})
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sessions := newMemSessions()
	c := New(srv.URL, WithSessions(sessions)).WithToken("t1")
	_, err := c.Get(context.Background(), "a")
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "b")
	require.NoError(t, err)

	assert.Equal(t, []string{"", "JSESSIONID=abc"}, cookies)
}

func TestSessionRecoveryRetriesOnceWithNewToken(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		calls = append(calls, r.URL.Path+" "+auth)
		switch {
		case r.URL.Path == "/meta/login":
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "fresh"})
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "t2"})
		case auth == "Bearer t1":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	sessions := newMemSessions()
	c := New(srv.URL, WithSessions(sessions)).WithToken("t1")
	resp, err := c.Get(context.Background(), "meta/menu")
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, []string{"/meta/menu Bearer t1", "/meta/login Bearer t1", "/meta/menu Bearer t2"}, calls)
	assert.Equal(t, "JSESSIONID=fresh", sessions.Cookie("t2"))
	assert.Empty(t, sessions.Cookie("t1"))
}

func TestSessionRecoveryGivesUpAfterMaxAttempts(t *testing.T) {
	logins := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/meta/login" {
			logins++
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, WithSessions(newMemSessions())).WithToken("t1")
	for i := 0; i < 5; i++ {
		resp, err := c.Get(context.Background(), "x")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.Status)
	}
	assert.Equal(t, 3, logins)
}

func TestForSessionForwardsUserHeaders(t *testing.T) {
	var h http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h = r.Header
	}))
	defer srv.Close()

	s := domain.Session{Token: "t", User: &domain.UserContext{UserID: "U", RoleID: "R"}}
	_, err := New(srv.URL).ForSession(s).Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "U", h.Get("X-User-ID"))
	assert.Equal(t, "R", h.Get("X-Role-ID"))
	assert.Empty(t, h.Get("X-Org-ID"))
}

func TestAPIPathsResolveAgainstOrigin(t *testing.T) {
	var paths []string
	var cookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		cookie = r.Header.Get("Cookie")
	}))
	defer srv.Close()

	c := New(srv.URL + "/etendo").WithCookie("JSESSIONID=manual")
	_, err := c.Get(context.Background(), "/api/url")
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "meta/menu")
	require.NoError(t, err)

	assert.Equal(t, []string{"/api/url", "/etendo/meta/menu"}, paths)
	assert.Equal(t, "JSESSIONID=manual", cookie)
}
