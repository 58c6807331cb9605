package datasource

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

// Fetch godoc
// @Summary     Datasource proxy
// @Description Forwards {entity, params} to the ERP datasource servlet and
// @Description returns its JSON untouched.
// @Tags        datasource
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body domain.DatasourceRequest true "entity and params"
// @Success     200 {object} map[string]interface{}
// @Failure     400 {object} domain.APIEnvelope
// @Failure     401 {object} domain.APIEnvelope
// @Failure     502 {object} domain.APIEnvelope
// @Router      /api/datasource [post]
func (h *Handler) Fetch(w http.ResponseWriter, r *http.Request) {
	const op = "datasource.fetch"
	reqID := mw.RequestIDFromCtx(r.Context())

	var req domain.DatasourceRequest
	if err := v1.DecodeJSON(w, r, 0, &req); err != nil {
		logx.Warn(h.Log, reqID, op, "bad body", "err", err.Error())
		v1.WriteDomainError(w, r, err)
		return
	}
	if req.Params == nil {
		req.Params = map[string]any{}
	}

	asJSON := strings.Contains(r.Header.Get("Content-Type"), "application/json")
	data, err := h.Meta.GetDatasource(r.Context(), v1.Session(r), req, asJSON)
	if err != nil {
		logx.Error(h.Log, reqID, op, "datasource failed", err, "entity", req.Entity)
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteRaw(w, r, http.StatusOK, data)
}
