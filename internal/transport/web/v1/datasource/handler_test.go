package datasource

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/erp"
	"github.com/etendosoftware/workspace-gateway/internal/metadata"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/mw"
)

func newServer(t *testing.T) http.Handler {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/" + erp.DatasourceServlet + "/Order":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "0", r.PostForm.Get("_startRow"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"response":{"status":0,"data":[{"id":"1"}]}}`))
		case "/" + erp.DatasourceServlet + "/Invoice":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>login</html>"))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)

	h := &Handler{Log: zap.NewNop(), Meta: metadata.New(erp.New(srv.URL), time.Hour)}
	m := http.NewServeMux()
	m.HandleFunc("POST /datasource", h.Fetch)
	return mw.Session(mw.SessionDeps{})(m)
}

func fetch(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/datasource", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestFetchPassesResponseThrough(t *testing.T) {
	rec := fetch(newServer(t), `{"entity":"Order","params":{"_startRow":0}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"response":{"status":0,"data":[{"id":"1"}]}}`, rec.Body.String())
}

func TestFetchErrorMapping(t *testing.T) {
	h := newServer(t)
	cases := []struct {
		name, body string
		status     int
	}{
		{"missing entity", `{"params":{}}`, http.StatusBadRequest},
		{"bad entity", `{"entity":"../etc"}`, http.StatusBadRequest},
		{"bad body", `{"entity":`, http.StatusBadRequest},
		{"upstream failure", `{"entity":"Product"}`, http.StatusBadGateway},
		{"non-json reply", `{"entity":"Invoice"}`, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, fetch(h, tc.body).Code)
		})
	}
}
