package web

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/etendosoftware/workspace-gateway/internal/docs"
	"github.com/etendosoftware/workspace-gateway/internal/erp"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/mw"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/v1/apiurl"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/v1/attachments"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/v1/auth"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/v1/datasource"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/v1/debug"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/v1/erpproxy"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/v1/health"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/v1/layout"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/v1/meta"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/v1/process"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/v1/recent"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/v1/revalidate"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/v1/selection"
)

func newRouter(logger *zap.Logger, d Deps) http.Handler {
	named := func(n string) *zap.Logger { return logger.Named(n) }
	auth1 := mw.RequireToken

	// erp.SessionStore must stay a nil interface when there is no store
	var sessions erp.SessionStore
	if d.Sessions != nil {
		sessions = d.Sessions
	}

	hh := &health.Handler{Log: named("health"), ERP: d.ERP, DB: d.DB, Cache: d.Cache, Storage: d.Storage}
	uh := &apiurl.Handler{BaseURL: d.BaseURL}
	mh := &meta.Handler{Log: named("meta"), Meta: d.Meta}
	lh := &layout.Handler{Log: named("layout"), Meta: d.Meta}
	dh := &datasource.Handler{Log: named("datasource"), Meta: d.Meta}
	ph := &erpproxy.Handler{Log: named("erp"), ERP: d.ERP, Cache: d.Cache, TTL: d.ERPCacheTTL}
	rh := &revalidate.Handler{Log: named("revalidate"), Meta: d.Meta}
	sh := &selection.Handler{Log: named("selection"), Selections: d.Selections}
	reh := &recent.Handler{Log: named("recent"), Repo: d.Recent}
	prh := &process.Handler{Log: named("process"), Registry: d.Processes}
	ah := &attachments.Handler{Log: named("attachments"), Service: d.Attachments}
	dbg := &debug.Handler{Log: named("debug"), Entries: d.DebugLog, Verifier: d.Auth.Verifier, PasswordHash: d.DebugPasswordHash}

	login := &auth.HandlerLogin{Log: named("auth"), ERP: d.ERP, Sessions: sessions, Tokens: d.Auth.Tokens, Meta: d.Meta}
	logout := &auth.HandlerLogout{Log: named("auth"), Tokens: d.Auth.Tokens, Blacklist: d.Auth.Blacklist, Sessions: sessions, Selections: d.Selections}
	keep := &auth.HandlerKeepAlive{Log: named("auth"), ERP: d.ERP, Sessions: sessions}

	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /v1/healthz", hh.Liveness)
	mux.HandleFunc("GET /v1/readyz", hh.Readiness)

	mux.HandleFunc("GET /api/url", uh.Get)

	// auth
	mux.HandleFunc("POST /api/auth/login", login.Login)
	mux.HandleFunc("POST /api/auth/logout", auth1(logout.Logout))
	mux.HandleFunc("POST /api/auth/keep-alive", auth1(keep.KeepAlive))

	// metadata
	mux.HandleFunc("GET /api/meta/menu", auth1(mh.Menu))
	mux.HandleFunc("GET /api/meta/menu/cached", auth1(mh.CachedMenu))
	mux.HandleFunc("GET /api/meta/window/{id}", auth1(mh.Window))
	mux.HandleFunc("GET /api/meta/tab/{id}", auth1(mh.Tab))
	mux.HandleFunc("GET /api/meta/labels", auth1(mh.Labels))
	mux.HandleFunc("GET /api/meta/toolbar", auth1(mh.Toolbar))
	mux.HandleFunc("GET /api/layout/tab/{id}", auth1(lh.Tab))
	mux.HandleFunc("POST /api/layout/tab/{id}", auth1(lh.Tab))
	mux.HandleFunc("POST /api/revalidate", auth1(rh.Revalidate))

	// data
	mux.HandleFunc("POST /api/datasource", auth1(dh.Fetch))
	mux.HandleFunc("/api/erp", auth1(ph.Base))
	mux.HandleFunc("/api/erp/{slug...}", auth1(ph.Slug))
	// bearer or Basic, checked by the handler
	mux.HandleFunc("GET /api/copilot/{path...}", ph.Copilot)

	// workspace state
	mux.HandleFunc("GET /api/session/selection/{windowId}", auth1(sh.Get))
	mux.HandleFunc("PUT /api/session/selection/{windowId}", auth1(sh.Put))
	mux.HandleFunc("DELETE /api/session/selection", auth1(sh.Delete))
	mux.HandleFunc("GET /api/recent", auth1(reh.List))
	mux.HandleFunc("POST /api/recent", auth1(reh.Touch))

	// processes
	mux.HandleFunc("GET /api/process", auth1(prh.Names))
	mux.HandleFunc("POST /api/process/{name}/load", auth1(prh.Load))
	mux.HandleFunc("POST /api/process/{name}/execute", auth1(prh.Execute))

	// attachments
	mux.HandleFunc("GET /api/attachments", auth1(ah.List))
	mux.HandleFunc("POST /api/attachments", auth1(ah.Upload))
	mux.HandleFunc("DELETE /api/attachments", auth1(ah.DeleteAll))
	mux.HandleFunc("GET /api/attachments/archive", auth1(ah.DownloadAll))
	mux.HandleFunc("PATCH /api/attachments/{id}", auth1(ah.Edit))
	mux.HandleFunc("DELETE /api/attachments/{id}", auth1(ah.Delete))
	mux.HandleFunc("GET /api/attachments/{id}/download", auth1(ah.Download))

	// debug console
	mux.HandleFunc("GET /debug/requests", dbg.Guard(dbg.List))
	mux.HandleFunc("GET /debug/requests/{id}", dbg.Guard(dbg.Get))
	mux.HandleFunc("DELETE /debug/requests", dbg.Guard(dbg.Clear))

	// swagger
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	session := mw.Session(mw.SessionDeps{Tokens: d.Auth.Tokens, Blacklist: d.Auth.Blacklist})
	return mw.WithRequestID(mw.Logging(logger.Named("http"))(session(mux)))
}
