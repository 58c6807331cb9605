package auth

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
	"github.com/etendosoftware/workspace-gateway/internal/erp"
	"github.com/etendosoftware/workspace-gateway/internal/session"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/logx"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/mw"
	v1 "github.com/etendosoftware/workspace-gateway/internal/transport/web/v1"
)

// unknownExpiry bounds the revocation of tokens that carry no exp claim.
const unknownExpiry = 24 * time.Hour

type HandlerLogout struct {
	Log        *zap.Logger
	Tokens     domain.TokenParser
	Blacklist  domain.TokenBlacklist // nil: nothing is revoked
	Sessions   erp.SessionStore
	Selections *session.Selections
}

type logoutResponse struct {
	Revoked string `json:"revoked,omitempty"`
}

// Logout godoc
// @Summary     Log out
// @Description Revokes the bearer token until it expires and drops the
// @Description classic session and the record selection kept for it.
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} domain.APIEnvelope{response=logoutResponse}
// @Failure     401 {object} domain.APIEnvelope
// @Failure     500 {object} domain.APIEnvelope
// @Router      /api/auth/logout [post]
func (h *HandlerLogout) Logout(w http.ResponseWriter, r *http.Request) {
	const op = "auth.logout"
	reqID := mw.RequestIDFromCtx(r.Context())
	s := v1.Session(r)

	var claims domain.TokenClaims
	if h.Tokens != nil {
		c, err := h.Tokens.Parse(r.Context(), s.Token)
		if err != nil {
			logx.Warn(h.Log, reqID, op, "token not decodable, revoking by hash", "err", err.Error())
		} else {
			claims = c
		}
	}

	var resp logoutResponse
	if h.Blacklist != nil {
		exp := claims.ExpiresAt
		if exp.IsZero() {
			exp = time.Now().Add(unknownExpiry)
		}
		id := claims.RevocationID(s.Token)
		if err := h.Blacklist.Revoke(r.Context(), id, exp); err != nil {
			logx.Error(h.Log, reqID, op, "revoke failed", err)
			v1.WriteDomainError(w, r, domain.ErrUnexpected)
			return
		}
		resp.Revoked = id
	}
	if h.Sessions != nil {
		h.Sessions.ClearCookie(s.Token)
	}
	if h.Selections != nil {
		h.Selections.Clear(s.Token)
	}

	logx.Info(h.Log, reqID, op, "ok", "revoked", resp.Revoked != "")
	v1.WriteOKResponse(w, r, resp)
}
