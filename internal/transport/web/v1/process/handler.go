package process

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/process"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/logx"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/mw"
	v1 "github.com/etendosoftware/workspace-gateway/internal/transport/web/v1"
)

type Handler struct {
	Log      *zap.Logger
	Registry *process.Registry
}

type loadRequest struct {
	Definition process.Definition  `json:"definition"`
	Context    process.LoadContext `json:"context"`
}

type executeRequest struct {
	Definition process.Definition `json:"definition"`
	Params     process.ExecParams `json:"params"`
}

// Names lists the registered process scripts.
func (h *Handler) Names(w http.ResponseWriter, r *http.Request) {
	v1.WriteOKData(w, r, h.Registry.Names())
}

// Load godoc
// @Summary     Run a process load hook
// @Description Called when the process dialog opens; returns defaults or the
// @Description popup parameters depending on the script.
// @Tags        process
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       name    path string      true "script name (kernel, manual)"
// @Param       request body loadRequest true "definition and context"
// @Success     200 {object} domain.APIEnvelope{data=process.Result}
// @Failure     404 {object} domain.APIEnvelope
// @Router      /api/process/{name}/load [post]
func (h *Handler) Load(w http.ResponseWriter, r *http.Request) {
	const op = "process.load"
	reqID := mw.RequestIDFromCtx(r.Context())
	name := r.PathValue("name")

	var req loadRequest
	if err := v1.DecodeJSON(w, r, 0, &req); err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	res, err := h.Registry.Load(r.Context(), v1.Session(r), name, req.Definition, req.Context)
	if err != nil {
		logx.Error(h.Log, reqID, op, "load failed", err, "name", name, "process_id", req.Definition.ID)
		v1.WriteDomainError(w, r, err)
		return
	}
	v1.WriteOKData(w, r, res)
}

// Execute godoc
// @Summary     Run a process
// @Tags        process
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       name    path string         true "script name (kernel, manual)"
// @Param       request body executeRequest true "definition and params"
// @Success     200 {object} domain.APIEnvelope{data=process.Result}
// @Failure     400 {object} domain.APIEnvelope
// @Failure     502 {object} domain.APIEnvelope
// @Router      /api/process/{name}/execute [post]
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	const op = "process.execute"
	reqID := mw.RequestIDFromCtx(r.Context())
	name := r.PathValue("name")

	var req executeRequest
	if err := v1.DecodeJSON(w, r, 0, &req); err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	res, err := h.Registry.Execute(r.Context(), v1.Session(r), name, req.Definition, req.Params)
	if err != nil {
		logx.Error(h.Log, reqID, op, "execute failed", err, "name", name, "process_id", req.Definition.ID)
		v1.WriteDomainError(w, r, err)
		return
	}
	logx.Info(h.Log, reqID, op, "ok", "name", name, "process_id", req.Definition.ID, "records", len(req.Params.RecordIDs))
	v1.WriteOKData(w, r, res)
}
