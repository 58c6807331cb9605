package auth

import (
	"encoding/json"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/erp"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/logx"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/mw"
	v1 "github.com/etendosoftware/workspace-gateway/internal/transport/web/v1"
)

const alertAction = "org.openbravo.client.application.AlertActionHandler"

type HandlerKeepAlive struct {
	Log      *zap.Logger
	ERP      *erp.Client
	Sessions erp.SessionStore
}

// KeepAlive godoc
// @Summary     Keep the classic session alive
// @Description Pings the kernel alert action with the stored JSESSIONID. A
// @Description reply that sets a new cookie means the old session is gone and
// @Description is reported as result=failed.
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{}
// @Failure     401 {object} map[string]string
// @Router      /api/auth/keep-alive [post]
func (h *HandlerKeepAlive) KeepAlive(w http.ResponseWriter, r *http.Request) {
	const op = "auth.keep_alive"
	reqID := mw.RequestIDFromCtx(r.Context())
	s := v1.Session(r)

	if h.Sessions == nil || h.Sessions.Cookie(s.Token) == "" {
		v1.WriteJSON(w, r, http.StatusUnauthorized, map[string]string{"error": "No session found"})
		return
	}

	q := url.Values{
		"IsAjaxCall":              {"1"},
		"ignoreForSessionTimeout": {"1"},
		"_action":                 {alertAction},
	}
	resp, err := h.ERP.WithToken(s.Token).Post(r.Context(), erp.KernelServlet, map[string]any{}, erp.Query(q))
	if err != nil {
		logx.Error(h.Log, reqID, op, "erp not reachable", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	var body map[string]any
	if !resp.IsJSON() || json.Unmarshal(resp.Data, &body) != nil || body == nil {
		logx.Warn(h.Log, reqID, op, "invalid keep-alive response", "status", resp.Status)
		v1.WriteJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "Invalid response format from Etendo Classic"})
		return
	}
	if resp.Header.Get("Set-Cookie") != "" {
		body["result"] = "failed"
	}
	v1.WriteJSON(w, r, resp.Status, body)
}
