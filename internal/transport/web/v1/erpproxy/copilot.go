package erpproxy

import (
	"net/http"
	"strings"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
	"github.com/etendosoftware/workspace-gateway/internal/erp"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/logx"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/mw"
	v1 "github.com/etendosoftware/workspace-gateway/internal/transport/web/v1"
)

const (
	copilotPrefix    = "copilot/"
	defaultUserAgent = "EtendoWorkspaceUI/1.0"
)

// Copilot godoc
// @Summary     Copilot proxy
// @Description Forwards GET /api/copilot/{path} to <erp>/copilot/{path}.
// @Description Accepts a bearer token, which reuses the classic session and
// @Description recovers it on 401, or Basic credentials passed through as-is.
// @Tags        erp
// @Produce     plain
// @Security    BearerAuth
// @Param       path path string true "copilot path"
// @Success     200 {string} string
// @Failure     400 {object} domain.APIEnvelope
// @Failure     401 {object} map[string]string
// @Failure     500 {object} map[string]string
// @Router      /api/copilot/{path} [get]
func (h *Handler) Copilot(w http.ResponseWriter, r *http.Request) {
	const op = "erp.copilot"
	reqID := mw.RequestIDFromCtx(r.Context())
	s := v1.Session(r)

	authz := r.Header.Get("Authorization")
	basic := len(authz) > 6 && strings.EqualFold(authz[:6], "Basic ")
	if s.Token == "" && !basic {
		v1.WriteJSON(w, r, http.StatusUnauthorized, map[string]string{"error": "Unauthorized - Missing Bearer token or Basic auth"})
		return
	}
	path := r.PathValue("path")
	if !domain.ValidSlug(path) {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	ua := r.Header.Get("User-Agent")
	if ua == "" {
		ua = defaultUserAgent
	}
	opts := []erp.RequestOption{
		erp.Query(r.URL.Query()),
		erp.Header("Accept", "*/*"),
		erp.Header("Accept-Language", "en-US,en;q=0.9"),
		erp.Header("User-Agent", ua),
	}

	client := h.ERP.ForSession(s)
	if s.Token == "" {
		client = h.ERP.WithHeaders(map[string]string{"Authorization": authz})
	}
	resp, err := client.Get(r.Context(), copilotPrefix+path, opts...)
	if err != nil {
		logx.Error(h.Log, reqID, op, "copilot request failed", err, "path", path)
		v1.WriteJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch copilot data"})
		return
	}

	if !resp.OK() {
		logx.Warn(h.Log, reqID, op, "copilot returned error", "path", path, "status", resp.Status)
		msg := strings.TrimSpace(string(resp.Body))
		if msg == "" {
			msg = "Copilot request failed"
		}
		// a bearer caller already had its session recovered once
		status := http.StatusInternalServerError
		if s.Token == "" {
			status = resp.Status
		}
		v1.WriteJSON(w, r, status, map[string]string{"error": msg})
		return
	}

	ct := "text/plain"
	if s.Token == "" {
		if got := resp.Header.Get("Content-Type"); got != "" {
			ct = got
		}
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set(mw.HeaderRequestID, reqID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp.Body)
	logx.Info(h.Log, reqID, op, "ok", "path", path, "bytes", len(resp.Body))
}
