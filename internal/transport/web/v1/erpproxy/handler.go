// Package erpproxy forwards arbitrary calls to the ERP on behalf of the
// browser, caching read-only GET responses per caller.
package erpproxy

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
	"github.com/etendosoftware/workspace-gateway/internal/erp"
	"github.com/etendosoftware/workspace-gateway/internal/process"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/logx"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/mw"
	v1 "github.com/etendosoftware/workspace-gateway/internal/transport/web/v1"
)

const (
	// FormInitAction is reached through the kernel forward servlet.
	FormInitAction = "org.openbravo.client.application.window.FormInitializationComponent"

	kernelForward = "meta/forward/" + erp.KernelServlet
	maxBody       = 16 << 20
)

type Handler struct {
	Log   *zap.Logger
	ERP   *erp.Client
	Cache domain.Cache // nil disables the GET cache
	TTL   time.Duration
}

type target struct {
	path     string
	query    url.Values
	mutation bool
}

// Base godoc
// @Summary     ERP base proxy
// @Description POST with processId runs the process through the kernel.
// @Description _action=FormInitializationComponent is routed to the kernel too.
// @Tags        erp
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{}
// @Router      /api/erp [get]
// @Router      /api/erp [post]
func (h *Handler) Base(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t := target{query: q, mutation: r.Method != http.MethodGet}

	switch {
	case r.Method == http.MethodPost && q.Get("processId") != "":
		t.path = kernelForward
		t.query = url.Values{"processId": {q.Get("processId")}, "_action": {process.ActionExecute}}
	case q.Get("_action") == FormInitAction:
		t.path = kernelForward
	}
	h.forward(w, r, "erp.base", t)
}

// Slug godoc
// @Summary     ERP path proxy
// @Description Forwards /api/erp/{slug} to <erp>/{slug}. GETs are cached unless
// @Description the slug names a create, update or delete.
// @Tags        erp
// @Security    BearerAuth
// @Param       slug path string true "ERP path"
// @Success     200 {object} map[string]interface{}
// @Failure     400 {object} domain.APIEnvelope
// @Router      /api/erp/{slug} [get]
func (h *Handler) Slug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if !domain.ValidSlug(slug) {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}
	t := target{path: slug, mutation: r.Method != http.MethodGet || isMutationSlug(slug)}
	if r.Method == http.MethodGet {
		t.query = r.URL.Query()
	}
	h.forward(w, r, "erp.slug", t)
}

func isMutationSlug(slug string) bool {
	return strings.Contains(slug, "create") || strings.Contains(slug, "update") || strings.Contains(slug, "delete")
}

func (h *Handler) forward(w http.ResponseWriter, r *http.Request, op string, t target) {
	reqID := mw.RequestIDFromCtx(r.Context())
	s := v1.Session(r)

	var key string
	if !t.mutation && h.Cache != nil {
		key = domain.CacheKeyERP(s.Token, t.path, t.query.Encode())
		if hit, err := h.Cache.Get(r.Context(), key); err == nil && hit != nil {
			w.Header().Set("X-Cache", "HIT")
			v1.WriteRaw(w, r, http.StatusOK, hit)
			return
		} else if err != nil {
			logx.Warn(h.Log, reqID, op, "cache read failed", "err", err.Error())
		}
	}

	opts := []erp.RequestOption{erp.Query(t.query)}
	var body any
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
		if err != nil {
			v1.WriteDomainError(w, r, fmt.Errorf("%w: body: %v", domain.ErrBadParams, err))
			return
		}
		if len(raw) > 0 {
			body = raw
			ct := r.Header.Get("Content-Type")
			if ct == "" {
				ct = "application/json"
			}
			opts = append(opts, erp.ContentType(ct))
		}
	}

	resp, err := h.ERP.ForSession(s).Request(r.Context(), r.Method, t.path, body, opts...)
	if err != nil {
		logx.Error(h.Log, reqID, op, "erp request failed", err, "path", t.path)
		v1.WriteDomainError(w, r, err)
		return
	}
	if !resp.OK() {
		logx.Warn(h.Log, reqID, op, "erp returned error", "path", t.path, "status", resp.Status)
		v1.WriteJSON(w, r, resp.Status, map[string]string{
			"error": fmt.Sprintf("ERP request failed: %d %s", resp.Status, http.StatusText(resp.Status)),
		})
		return
	}

	if !resp.IsJSON() {
		if !t.mutation {
			logx.Warn(h.Log, reqID, op, "non-JSON response to GET", "path", t.path)
			v1.WriteDomainError(w, r, fmt.Errorf("%w: non-JSON response", domain.ErrUpstream))
			return
		}
		v1.WriteJSON(w, r, http.StatusOK, map[string]any{"success": true, "message": string(resp.Body)})
		return
	}

	if key != "" {
		ttl := int(h.TTL.Seconds())
		if ttl <= 0 {
			ttl = 60
		}
		if err := h.Cache.Set(r.Context(), key, resp.Data, ttl); err != nil {
			logx.Warn(h.Log, reqID, op, "cache write failed", "err", err.Error())
		}
		w.Header().Set("X-Cache", "MISS")
	}
	v1.WriteRaw(w, r, http.StatusOK, resp.Data)
}
