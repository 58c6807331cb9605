package auth

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
	"github.com/etendosoftware/workspace-gateway/internal/erp"
	"github.com/etendosoftware/workspace-gateway/internal/metadata"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/logx"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/mw"
	v1 "github.com/etendosoftware/workspace-gateway/internal/transport/web/v1"
)

const loginPath = "meta/login"

type HandlerLogin struct {
	Log      *zap.Logger
	ERP      *erp.Client
	Sessions erp.SessionStore // nil: classic cookies are not kept
	Tokens   domain.TokenParser
	Meta     *metadata.Client // nil: no menu warm-up
}

type loginRequest struct {
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
	Role         string `json:"role,omitempty"`
	Organization string `json:"organization,omitempty"`
	Warehouse    string `json:"warehouse,omitempty"`
}

// Login godoc
// @Summary     Log in to the ERP
// @Description Forwards credentials (or a role switch with the current bearer
// @Description token) to meta/login, keeps the classic JSESSIONID for the new
// @Description token and returns the ERP answer as-is.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body loginRequest true "credentials or role switch"
// @Success     200 {object} map[string]interface{}
// @Failure     400 {object} domain.APIEnvelope
// @Failure     401 {object} map[string]string
// @Router      /api/auth/login [post]
func (h *HandlerLogin) Login(w http.ResponseWriter, r *http.Request) {
	const op = "auth.login"
	reqID := mw.RequestIDFromCtx(r.Context())
	s := v1.Session(r)

	var req loginRequest
	if err := v1.DecodeJSON(w, r, 64<<10, &req); err != nil {
		logx.Warn(h.Log, reqID, op, "bad json", "err", err.Error())
		v1.WriteDomainError(w, r, err)
		return
	}
	if s.Token == "" && (req.Username == "" || req.Password == "") {
		logx.Warn(h.Log, reqID, op, "empty credentials")
		v1.WriteDomainError(w, r, fmt.Errorf("%w: username and password required", domain.ErrBadParams))
		return
	}

	resp, err := h.ERP.ForSession(s).Post(r.Context(), loginPath, req)
	if err != nil {
		logx.Error(h.Log, reqID, op, "erp login failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	if !resp.OK() || !resp.IsJSON() {
		logx.Warn(h.Log, reqID, op, "login rejected", "status", resp.Status, "username", req.Username)
		status := resp.Status
		if resp.OK() {
			status = http.StatusBadGateway
		}
		v1.WriteJSON(w, r, status, map[string]string{"error": loginError(resp)})
		return
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := resp.Decode(&out); err != nil || out.Token == "" {
		logx.Error(h.Log, reqID, op, "login response without token", err)
		v1.WriteDomainError(w, r, fmt.Errorf("%w: login response without token", domain.ErrUpstream))
		return
	}

	if h.Sessions != nil {
		if cookie := erp.SessionCookie(resp.Header); cookie != "" {
			h.Sessions.SetCookie(out.Token, cookie)
		}
		if s.Token != "" && s.Token != out.Token {
			h.Sessions.ClearCookie(s.Token)
		}
	}
	h.warmMenu(r, reqID, out.Token, s.Language)

	logx.Info(h.Log, reqID, op, "ok", "username", req.Username, "role", req.Role)
	v1.WriteRaw(w, r, http.StatusOK, resp.Data)
}

func (h *HandlerLogin) warmMenu(r *http.Request, reqID, token, lang string) {
	if h.Meta == nil {
		return
	}
	ns := domain.Session{Token: token, Language: lang}
	if h.Tokens != nil {
		if claims, err := h.Tokens.Parse(r.Context(), token); err == nil {
			u := claims.User
			ns.User = &u
		}
	}
	if _, err := h.Meta.RefreshMenuOnLogin(r.Context(), ns); err != nil {
		logx.Warn(h.Log, reqID, "auth.login", "menu refresh failed", "err", err.Error())
	}
}

func loginError(resp *erp.Response) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if resp.IsJSON() && json.Unmarshal(resp.Data, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return fmt.Sprintf("login failed: %d %s", resp.Status, http.StatusText(resp.Status))
}
