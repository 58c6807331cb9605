package erpproxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/erp"
	"github.com/etendosoftware/workspace-gateway/internal/process"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/mw"
)

type seen struct {
	mu    sync.Mutex
	paths []string
	query url.Values
	body  string
}

func newProxy(t *testing.T, reply http.HandlerFunc) (http.Handler, *seen) {
	t.Helper()
	s := &seen{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(strings.Builder)
		_, _ = io.Copy(buf, r.Body)
		s.mu.Lock()
		s.paths = append(s.paths, r.Method+" "+r.URL.Path)
		s.query = r.URL.Query()
		s.body = buf.String()
		s.mu.Unlock()
		reply(w, r)
	}))
	t.Cleanup(srv.Close)

	h := &Handler{Log: zap.NewNop(), ERP: erp.New(srv.URL)}
	m := http.NewServeMux()
	m.HandleFunc("/api/erp", h.Base)
	m.HandleFunc("/api/erp/{slug...}", h.Slug)
	return mw.Session(mw.SessionDeps{})(m), s
}

func send(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonReply(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestBaseRoutesProcessToKernel(t *testing.T) {
	h, s := newProxy(t, jsonReply(`{"ok":true}`))

	rec := send(h, http.MethodPost, "/api/erp?processId=ABC&other=1", `{"a":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"POST /meta/forward/" + erp.KernelServlet}, s.paths)
	assert.Equal(t, "ABC", s.query.Get("processId"))
	assert.Equal(t, process.ActionExecute, s.query.Get("_action"))
	assert.Empty(t, s.query.Get("other"))
	assert.JSONEq(t, `{"a":1}`, s.body)
}

func TestBaseRoutesFormInitToKernel(t *testing.T) {
	h, s := newProxy(t, jsonReply(`{}`))
	rec := send(h, http.MethodPost, "/api/erp?_action="+FormInitAction+"&MODE=NEW", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"POST /meta/forward/" + erp.KernelServlet}, s.paths)
	assert.Equal(t, "NEW", s.query.Get("MODE"))
}

func TestMutationWithTextReply(t *testing.T) {
	h, s := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("deleted"))
	})

	rec := send(h, http.MethodGet, "/api/erp/sws/record/delete?id=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"deleted"}`, rec.Body.String())
	assert.Equal(t, []string{"GET /sws/record/delete"}, s.paths)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestReadWithTextReplyIsUpstreamError(t *testing.T) {
	h, _ := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	})
	rec := send(h, http.MethodGet, "/api/erp/sws/list", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSlugQueryOnlyForwardedOnGet(t *testing.T) {
	h, s := newProxy(t, jsonReply(`{}`))
	rec := send(h, http.MethodPost, "/api/erp/sws/save?debug=1", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, s.query.Get("debug"))
}
