package recent

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/logx"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/mw"
	v1 "github.com/etendosoftware/workspace-gateway/internal/transport/web/v1"
)

type Handler struct {
	Log  *zap.Logger
	Repo domain.RecentRepo
}

type touchRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	WindowID string `json:"windowId"`
	Type     string `json:"type"`
}

// owner keys the list by ERP user when the token carries one, else by token.
func owner(s domain.Session) domain.RecentOwner {
	o := domain.RecentOwner{RoleID: s.Role()}
	if s.User != nil && s.User.UserID != "" {
		o.UserID = s.User.UserID
	} else {
		o.UserID = domain.HashKey(s.Token)
	}
	return o
}

// List godoc
// @Summary     Recently viewed windows
// @Tags        recent
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} domain.APIEnvelope{data=[]domain.RecentItem}
// @Router      /api/recent [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "recent.list"
	items, err := h.Repo.List(r.Context(), owner(v1.Session(r)))
	if err != nil {
		logx.Error(h.Log, mw.RequestIDFromCtx(r.Context()), op, "list failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteOKData(w, r, items)
}

// Touch godoc
// @Summary     Record a window visit
// @Description Moves the item to the front; the list keeps the five newest.
// @Tags        recent
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body touchRequest true "visited item"
// @Success     200 {object} domain.APIEnvelope{data=[]domain.RecentItem}
// @Failure     400 {object} domain.APIEnvelope
// @Router      /api/recent [post]
func (h *Handler) Touch(w http.ResponseWriter, r *http.Request) {
	const op = "recent.touch"
	reqID := mw.RequestIDFromCtx(r.Context())

	var req touchRequest
	if err := v1.DecodeJSON(w, r, 16<<10, &req); err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	if req.ID == "" || req.Name == "" {
		v1.WriteDomainError(w, r, fmt.Errorf("%w: id and name required", domain.ErrBadParams))
		return
	}
	if req.WindowID == "" {
		req.WindowID = req.ID
	}

	items, err := h.Repo.Touch(r.Context(), owner(v1.Session(r)), domain.RecentItem{
		ID:       req.ID,
		Name:     req.Name,
		WindowID: req.WindowID,
		Type:     req.Type,
	})
	if err != nil {
		logx.Error(h.Log, reqID, op, "touch failed", err, "item_id", req.ID)
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteOKData(w, r, items)
}
