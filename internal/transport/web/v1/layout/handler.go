package layout

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
	"github.com/etendosoftware/workspace-gateway/internal/layout"
	"github.com/etendosoftware/workspace-gateway/internal/metadata"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/logx"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/mw"
	v1 "github.com/etendosoftware/workspace-gateway/internal/transport/web/v1"
)

type Handler struct {
	Log  *zap.Logger
	Meta *metadata.Client
}

type tabLayout struct {
	TabID   string              `json:"tabId"`
	Entity  string              `json:"entityName,omitempty"`
	Columns []layout.GridColumn `json:"columns"`
	Form    layout.FormLayout   `json:"form"`
}

type valuesRequest struct {
	Values map[string]any `json:"values"`
}

// Tab godoc
// @Summary     Table and form layout of a tab
// @Description Grid columns with their cell editors and the form fields with
// @Description their selectors. POST evaluates display logic against values.
// @Tags        layout
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "tab id"
// @Param       request body valuesRequest false "current record values"
// @Success     200 {object} domain.APIEnvelope{data=tabLayout}
// @Failure     400 {object} domain.APIEnvelope
// @Router      /api/layout/tab/{id} [get]
// @Router      /api/layout/tab/{id} [post]
func (h *Handler) Tab(w http.ResponseWriter, r *http.Request) {
	const op = "layout.tab"
	reqID := mw.RequestIDFromCtx(r.Context())

	id := r.PathValue("id")
	if !domain.ValidID(id) {
		v1.WriteDomainError(w, r, domain.ErrBadParams)
		return
	}

	var req valuesRequest
	if r.Method == http.MethodPost {
		if err := v1.DecodeJSON(w, r, 0, &req); err != nil {
			logx.Warn(h.Log, reqID, op, "bad body", "err", err.Error())
			v1.WriteDomainError(w, r, err)
			return
		}
	}

	tab, err := h.Meta.GetTab(r.Context(), v1.Session(r), id)
	if err != nil {
		logx.Error(h.Log, reqID, op, "get tab failed", err, "tab_id", id)
		v1.WriteDomainError(w, r, err)
		return
	}

	v1.WriteOKData(w, r, tabLayout{
		TabID:   tab.ID,
		Entity:  tab.Entity,
		Columns: layout.Columns(tab),
		Form:    layout.Form(tab, req.Values),
	})
}
