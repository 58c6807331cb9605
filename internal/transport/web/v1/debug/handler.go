// Package debug exposes the recorded ERP calls behind a password.
package debug

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/debuglog"
	"github.com/etendosoftware/workspace-gateway/internal/domain"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/logx"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/mw"
	v1 "github.com/etendosoftware/workspace-gateway/internal/transport/web/v1"
)

type Handler struct {
	Log          *zap.Logger
	Entries      *debuglog.Log
	Verifier     domain.PasswordVerifier
	PasswordHash string // argon2id; empty disables the console
}

// Guard requires HTTP basic auth whose password matches PasswordHash.
func (h *Handler) Guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.Entries == nil || h.PasswordHash == "" {
			v1.WriteDomainError(w, r, domain.ErrNotFound)
			return
		}
		_, pass, ok := r.BasicAuth()
		if ok {
			match, err := h.Verifier.Verify(pass, h.PasswordHash)
			if err != nil {
				logx.Error(h.Log, mw.RequestIDFromCtx(r.Context()), "debug.guard", "verify failed", err)
			}
			if match {
				next(w, r)
				return
			}
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="erp-debug"`)
		v1.WriteDomainError(w, r, domain.ErrUnauth)
	}
}

// List godoc
// @Summary     Recorded ERP calls
// @Tags        debug
// @Produce     json
// @Success     200 {object} domain.APIEnvelope{data=[]debuglog.Entry}
// @Failure     401 {object} domain.APIEnvelope
// @Router      /debug/requests [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	v1.WriteOKData(w, r, h.Entries.List())
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	e, ok := h.Entries.Get(r.PathValue("id"))
	if !ok {
		v1.WriteDomainError(w, r, domain.ErrNotFound)
		return
	}
	v1.WriteOKData(w, r, e)
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	h.Entries.Clear()
	w.WriteHeader(http.StatusNoContent)
}
