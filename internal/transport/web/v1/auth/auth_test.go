package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
	"github.com/etendosoftware/workspace-gateway/internal/erp"
	"github.com/etendosoftware/workspace-gateway/internal/session"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/mw"
)

func serve(h http.HandlerFunc, method, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mw.Session(mw.SessionDeps{})(h).ServeHTTP(rec, req)
	return rec
}

func upstream(t *testing.T, fn http.HandlerFunc) *erp.Client {
	t.Helper()
	srv := httptest.NewServer(fn)
	t.Cleanup(srv.Close)
	return erp.New(srv.URL)
}

func TestLoginKeepsClassicCookie(t *testing.T) {
	var got map[string]string
	ec := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/meta/login", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "abc"})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"new-token","roleList":[]}`))
	})
	sessions := session.NewStore()
	sessions.SetCookie("old-token", "JSESSIONID=old")
	h := &HandlerLogin{Log: zap.NewNop(), ERP: ec, Sessions: sessions}

	rec := serve(h.Login, http.MethodPost, `{"username":"admin","password":"admin","role":"0"}`, "old-token")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"token":"new-token","roleList":[]}`, rec.Body.String())
	assert.Equal(t, "admin", got["username"])
	assert.Equal(t, "0", got["role"])

	assert.Equal(t, "JSESSIONID=abc", sessions.Cookie("new-token"))
	assert.Empty(t, sessions.Cookie("old-token"))
}

func TestLoginRequiresCredentialsWithoutToken(t *testing.T) {
	h := &HandlerLogin{Log: zap.NewNop(), ERP: erp.New("http://127.0.0.1:1")}
	rec := serve(h.Login, http.MethodPost, `{"username":"admin"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginPassesRejection(t *testing.T) {
	ec := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid user name or password"}`))
	})
	h := &HandlerLogin{Log: zap.NewNop(), ERP: ec}

	rec := serve(h.Login, http.MethodPost, `{"username":"a","password":"b"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid user name or password"}`, rec.Body.String())
}

func TestKeepAliveWithoutSession(t *testing.T) {
	h := &HandlerKeepAlive{Log: zap.NewNop(), ERP: erp.New("http://127.0.0.1:1"), Sessions: session.NewStore()}
	rec := serve(h.KeepAlive, http.MethodPost, "", "tok")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"No session found"}`, rec.Body.String())
}

func TestKeepAliveReportsExpiredSession(t *testing.T) {
	var renew atomic.Bool
	ec := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+erp.KernelServlet, r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("ignoreForSessionTimeout"))
		if renew.Load() {
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "fresh"})
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"success"}`))
	})
	sessions := session.NewStore()
	sessions.SetCookie("tok", "JSESSIONID=live")
	h := &HandlerKeepAlive{Log: zap.NewNop(), ERP: ec, Sessions: sessions}

	rec := serve(h.KeepAlive, http.MethodPost, "", "tok")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":"success"}`, rec.Body.String())

	renew.Store(true)
	rec = serve(h.KeepAlive, http.MethodPost, "", "tok")
	assert.JSONEq(t, `{"result":"failed"}`, rec.Body.String())
}

type memBlacklist map[string]time.Time

func (b memBlacklist) Revoke(_ context.Context, id string, exp time.Time) error {
	b[id] = exp
	return nil
}
func (b memBlacklist) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := b[id]
	return ok, nil
}

func TestLogoutWithoutJTIRevokesByHash(t *testing.T) {
	bl := memBlacklist{}
	sessions := session.NewStore()
	sessions.SetCookie("opaque", "JSESSIONID=x")
	h := &HandlerLogout{Log: zap.NewNop(), Blacklist: bl, Sessions: sessions}

	rec := serve(h.Logout, http.MethodPost, "", "opaque")
	require.Equal(t, http.StatusOK, rec.Code)

	exp, ok := bl[domain.HashKey("opaque")]
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(unknownExpiry), exp, time.Minute)
	assert.Empty(t, sessions.Cookie("opaque"))
}
