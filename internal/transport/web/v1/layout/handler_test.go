package layout

import (
	"encoding/json"
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

const tabJSON = `{"id":"186","name":"Header","entityName":"Order","fields":{
 "documentNo":{"id":"f1","name":"Document No.","hqlName":"documentNo","displayed":true,"showInGridView":true,
   "column":{"reference":"10"},"gridProps":{"sort":1}},
 "docStatus":{"id":"f2","name":"Status","hqlName":"docStatus","displayed":true,"showInGridView":false,
   "column":{"reference":"17"}}}}`

func newServer(t *testing.T) http.Handler {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/meta/tab/186" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(tabJSON))
	}))
	t.Cleanup(srv.Close)

	h := &Handler{Log: zap.NewNop(), Meta: metadata.New(erp.New(srv.URL), time.Hour)}
	m := http.NewServeMux()
	m.HandleFunc("GET /tab/{id}", h.Tab)
	m.HandleFunc("POST /tab/{id}", h.Tab)
	return mw.Session(mw.SessionDeps{})(m)
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTabLayout(t *testing.T) {
	h := newServer(t)
	rec := do(h, http.MethodGet, "/tab/186", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env struct {
		Data tabLayout `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "186", env.Data.TabID)
	assert.Equal(t, "Order", env.Data.Entity)
	require.Len(t, env.Data.Columns, 1)
	assert.Equal(t, "documentNo", env.Data.Columns[0].ColumnName)

	var names []string
	for _, g := range env.Data.Form.Groups {
		for _, f := range g.Fields {
			names = append(names, f.HQLName)
		}
	}
	assert.ElementsMatch(t, []string{"documentNo", "docStatus"}, names)
}

func TestTabLayoutErrors(t *testing.T) {
	h := newServer(t)

	rec := do(h, http.MethodGet, "/tab/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/tab/186", `{"values":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodGet, "/tab/999", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":{"code":502,"text":"upstream error"}}`, rec.Body.String())
}

func TestTabLayoutAcceptsValues(t *testing.T) {
	h := newServer(t)
	rec := do(h, http.MethodPost, "/tab/186", `{"values":{"docStatus":"DR"}}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
