// Package meta serves cached ERP metadata: menu, windows, tabs, labels and
// the toolbar.
package meta

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
	"github.com/etendosoftware/workspace-gateway/internal/metadata"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/logx"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/mw"
	v1 "github.com/etendosoftware/workspace-gateway/internal/transport/web/v1"
)

type Handler struct {
	Log  *zap.Logger
	Meta *metadata.Client
}

func truthy(v string) bool { return v == "1" || v == "true" }

// Menu godoc
// @Summary     Application menu
// @Description Menu tree for the caller's role. refresh=1 bypasses the cache.
// @Tags        meta
// @Produce     json
// @Security    BearerAuth
// @Param       refresh query string false "1 to force a refetch"
// @Success     200 {object} domain.APIEnvelope{data=[]domain.Menu}
// @Failure     401 {object} domain.APIEnvelope
// @Failure     502 {object} domain.APIEnvelope
// @Router      /api/meta/menu [get]
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	const op = "meta.menu"
	reqID := mw.RequestIDFromCtx(r.Context())
	s := v1.Session(r)

	menu, err := h.Meta.GetMenu(r.Context(), s, truthy(r.URL.Query().Get("refresh")))
	if err != nil {
		logx.Error(h.Log, reqID, op, "get menu failed", err, "role", s.Role())
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteOKData(w, r, menu)
}

// CachedMenu returns whatever menu is cached for the role, possibly empty.
func (h *Handler) CachedMenu(w http.ResponseWriter, r *http.Request) {
	v1.WriteOKData(w, r, h.Meta.GetCachedMenu(v1.Session(r)))
}

// Window godoc
// @Summary     Window metadata
// @Tags        meta
// @Produce     json
// @Security    BearerAuth
// @Param       id     path  string true  "window id"
// @Param       reload query string false "1 to bypass the cache"
// @Success     200 {object} domain.APIEnvelope{data=domain.WindowMetadata}
// @Failure     400 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /api/meta/window/{id} [get]
func (h *Handler) Window(w http.ResponseWriter, r *http.Request) {
	const op = "meta.window"
	reqID := mw.RequestIDFromCtx(r.Context())

	id := r.PathValue("id")
	if !domain.ValidID(id) {
		logx.Warn(h.Log, reqID, op, "bad window id", "window_id", id)
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	s := v1.Session(r)
	var (
		win domain.WindowMetadata
		err error
	)
	if truthy(r.URL.Query().Get("reload")) {
		win, err = h.Meta.ForceWindowReload(r.Context(), s, id)
	} else {
		win, err = h.Meta.GetWindow(r.Context(), s, id)
	}
	if err != nil {
		logx.Error(h.Log, reqID, op, "get window failed", err, "window_id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteOKData(w, r, win)
}

// Tab godoc
// @Summary     Tab metadata
// @Tags        meta
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "tab id"
// @Success     200 {object} domain.APIEnvelope{data=domain.Tab}
// @Router      /api/meta/tab/{id} [get]
func (h *Handler) Tab(w http.ResponseWriter, r *http.Request) {
	const op = "meta.tab"
	reqID := mw.RequestIDFromCtx(r.Context())

	id := r.PathValue("id")
	if !domain.ValidID(id) {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	tab, err := h.Meta.GetTab(r.Context(), v1.Session(r), id)
	if err != nil {
		logx.Error(h.Log, reqID, op, "get tab failed", err, "tab_id", id)
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteOKData(w, r, tab)
}

func (h *Handler) Labels(w http.ResponseWriter, r *http.Request) {
	const op = "meta.labels"
	labels, err := h.Meta.GetLabels(r.Context(), v1.Session(r))
	if err != nil {
		logx.Error(h.Log, mw.RequestIDFromCtx(r.Context()), op, "get labels failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteOKData(w, r, labels)
}

func (h *Handler) Toolbar(w http.ResponseWriter, r *http.Request) {
	const op = "meta.toolbar"
	buttons, err := h.Meta.GetToolbar(r.Context(), v1.Session(r))
	if err != nil {
		logx.Error(h.Log, mw.RequestIDFromCtx(r.Context()), op, "get toolbar failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteOKData(w, r, buttons)
}
