package domain

import "context"

type ctxKey int

const sessionCtxKey ctxKey = 1

// Session is what a request knows about its caller.
type Session struct {
	Token    string
	Language string
	RoleID   string
	User     *UserContext
}

// Role returns the role id, falling back to the token role and then to
// "default" so cache keys stay stable for anonymous callers.
func (s Session) Role() string {
	if s.RoleID != "" {
		return s.RoleID
	}
	if s.User != nil && s.User.RoleID != "" {
		return s.User.RoleID
	}
	return "default"
}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, s)
}

func SessionFromCtx(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionCtxKey).(Session)
	return s, ok
}
