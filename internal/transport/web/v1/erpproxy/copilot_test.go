package erpproxy

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/erp"
	"github.com/etendosoftware/workspace-gateway/internal/session"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/mw"
)

func newCopilot(t *testing.T, reply http.HandlerFunc) http.Handler {
	t.Helper()
	srv := httptest.NewServer(reply)
	t.Cleanup(srv.Close)
	h := &Handler{Log: zap.NewNop(), ERP: erp.New(srv.URL, erp.WithSessions(session.NewStore()))}
	m := http.NewServeMux()
	m.HandleFunc("GET /api/copilot/{path...}", h.Copilot)
	return mw.Session(mw.SessionDeps{})(m)
}

func copilotGet(h http.Handler, target, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCopilotNeedsCredentials(t *testing.T) {
	h := newCopilot(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream call %s", r.URL.Path)
	})
	rec := copilotGet(h, "/api/copilot/assistants", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing Bearer token or Basic auth")
}

func TestCopilotRecoversSessionForBearer(t *testing.T) {
	var logins atomic.Int32
	h := newCopilot(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/meta/login":
			logins.Add(1)
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "fresh"})
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		case "/copilot/assistants":
			if !strings.Contains(r.Header.Get("Cookie"), "JSESSIONID=fresh") {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			assert.Equal(t, "*/*", r.Header.Get("Accept"))
			assert.Equal(t, "1", r.URL.Query().Get("page"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"app_id":"A1"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	rec := copilotGet(h, "/api/copilot/assistants?page=1", "Bearer tok")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, `[{"app_id":"A1"}]`, rec.Body.String())
	assert.EqualValues(t, 1, logins.Load())
}

func TestCopilotBearerFailureIsServerError(t *testing.T) {
	h := newCopilot(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("down"))
	})
	rec := copilotGet(h, "/api/copilot/assistants", "Bearer tok")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"down"}`, rec.Body.String())
}

func TestCopilotPassesBasicAuthThrough(t *testing.T) {
	h := newCopilot(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Basic YWRtaW46YWRtaW4=" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("bad credentials"))
			return
		}
		assert.Equal(t, "/copilot/labels", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hello":"world"}`))
	})

	rec := copilotGet(h, "/api/copilot/labels", "Basic YWRtaW46YWRtaW4=")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"hello":"world"}`, rec.Body.String())

	rec = copilotGet(h, "/api/copilot/labels", "Basic d3Jvbmc6d3Jvbmc=")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"bad credentials"}`, rec.Body.String())
}

