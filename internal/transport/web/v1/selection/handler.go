package selection

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
	"github.com/etendosoftware/workspace-gateway/internal/session"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/logx"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/mw"
	v1 "github.com/etendosoftware/workspace-gateway/internal/transport/web/v1"
)

type Handler struct {
	Log        *zap.Logger
	Selections *session.Selections
}

type putRequest struct {
	TabID     string            `json:"tabId"`
	RecordIDs map[string]string `json:"records"`
}

// Get godoc
// @Summary     Selected tab and records of a window
// @Tags        session
// @Produce     json
// @Security    BearerAuth
// @Param       windowId path string true "window id"
// @Success     200 {object} domain.APIEnvelope{data=domain.Selection}
// @Failure     404 {object} domain.APIEnvelope
// @Router      /api/session/selection/{windowId} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sel, err := h.Selections.Get(v1.Session(r).Token, r.PathValue("windowId"))
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteOKData(w, r, sel)
}

// Put godoc
// @Summary     Replace the selection
// @Description Selecting in another window discards the previous selection.
// @Tags        session
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       windowId path string true "window id"
// @Param       request body putRequest true "tab and records"
// @Success     200 {object} domain.APIEnvelope{data=domain.Selection}
// @Failure     400 {object} domain.APIEnvelope
// @Router      /api/session/selection/{windowId} [put]
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	const op = "selection.put"
	reqID := mw.RequestIDFromCtx(r.Context())

	var req putRequest
	if err := v1.DecodeJSON(w, r, 64<<10, &req); err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	sel, err := h.Selections.Put(v1.Session(r).Token, domain.Selection{
		WindowID:  r.PathValue("windowId"),
		TabID:     req.TabID,
		RecordIDs: req.RecordIDs,
	})
	if err != nil {
		logx.Warn(h.Log, reqID, op, "rejected", "err", err.Error())
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteOKData(w, r, sel)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	h.Selections.Clear(v1.Session(r).Token)
	w.WriteHeader(http.StatusNoContent)
}
