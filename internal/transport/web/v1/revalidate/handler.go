package revalidate

import (
	"net/http"
	"strings"

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

type request struct {
	Tag string `json:"tag"`
}

// Revalidate godoc
// @Summary     Invalidate cached data by tag
// @Description Tags: menu, toolbar, labels, window[:id], datasource[:entity], erp.
// @Description Failures come back as success=false, never as an error status.
// @Tags        cache
// @Accept      json
// @Produce     json
// @Param       request body request false "tag (or ?tag=)"
// @Security    BearerAuth
// @Success     200 {object} domain.RevalidateResult
// @Failure     401 {object} domain.APIEnvelope
// @Router      /api/revalidate [post]
func (h *Handler) Revalidate(w http.ResponseWriter, r *http.Request) {
	const op = "revalidate"
	reqID := mw.RequestIDFromCtx(r.Context())

	var req request
	if err := v1.DecodeJSON(w, r, 4<<10, &req); err != nil {
		v1.WriteJSON(w, r, http.StatusOK, domain.RevalidateResult{Error: "invalid body"})
		return
	}
	tag := strings.TrimSpace(req.Tag)
	if tag == "" {
		tag = strings.TrimSpace(r.URL.Query().Get("tag"))
	}

	res := h.Meta.Revalidate(r.Context(), tag)
	if !res.Success {
		logx.Warn(h.Log, reqID, op, "revalidate failed", "tag", tag, "error", res.Error)
	} else {
		logx.Info(h.Log, reqID, op, "ok", "tag", tag, "removed", res.Removed)
	}
	v1.WriteJSON(w, r, http.StatusOK, res)
}
