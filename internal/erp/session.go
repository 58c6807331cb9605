package erp

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	loginPath       = "meta/login"
	recoveryTimeout = 30 * time.Second
	sessionCookie   = "JSESSIONID"
)

// SessionCookie extracts "JSESSIONID=<id>" from a response, or "".
func SessionCookie(h http.Header) string {
	resp := http.Response{Header: h}
	for _, ck := range resp.Cookies() {
		if ck.Name == sessionCookie && ck.Value != "" {
			return sessionCookie + "=" + ck.Value
		}
	}
	return ""
}

func (c *Client) captureSession(hr *http.Response) {
	if c.sessions == nil || c.token == "" {
		return
	}
	if cookie := SessionCookie(hr.Header); cookie != "" {
		c.sessions.SetCookie(c.token, cookie)
	}
}

type loginResponse struct {
	Token string `json:"token"`
}

// recoverSession re-authenticates an expired classic session using the
// bearer token and returns a client bound to the (possibly new) token.
func (c *Client) recoverSession(ctx context.Context) (*Client, bool) {
	token := c.token
	if !c.sessions.BeginRecovery(token) {
		c.log.Warn("session recovery attempts exhausted")
		return nil, false
	}

	rctx, cancel := context.WithTimeout(ctx, recoveryTimeout)
	defer cancel()

	resp, err := c.send(rctx, http.MethodPost, loginPath, []byte("{}"), jsonContentType,
		requestOpts{header: http.Header{}})
	if err != nil || !resp.OK() {
		status := 0
		if resp != nil {
			status = resp.Status
		}
		c.log.Warn("session recovery failed", zap.Int("status", status), zap.Error(err))
		c.sessions.EndRecovery(token, false)
		return nil, false
	}

	var lr loginResponse
	_ = resp.Decode(&lr)
	next := c
	if lr.Token != "" && lr.Token != token {
		next = c.WithToken(lr.Token)
		if cookie := SessionCookie(resp.Header); cookie != "" {
			c.sessions.SetCookie(lr.Token, cookie)
		}
		c.sessions.ClearCookie(token)
		c.log.Info("token replaced during session recovery")
	}
	c.sessions.EndRecovery(token, true)
	return next, true
}
