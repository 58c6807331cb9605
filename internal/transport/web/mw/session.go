package mw

import (
	"net/http"
	"strings"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
)

const (
	HeaderLanguage = "X-Language"
	HeaderRole     = "X-Role-ID"
)

type SessionDeps struct {
	Tokens    domain.TokenParser
	Blacklist domain.TokenBlacklist
}

// Session attaches a domain.Session to every request. The bearer token is
// optional here; handlers that need it ask for it via RequireToken.
func Session(deps SessionDeps) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := domain.Session{
				Token:    ExtractBearer(r.Header.Get("Authorization")),
				Language: language(r),
				RoleID:   r.Header.Get(HeaderRole),
			}
			if s.Token != "" {
				revocationID := domain.HashKey(s.Token)
				if deps.Tokens != nil {
					if claims, err := deps.Tokens.Parse(r.Context(), s.Token); err == nil {
						u := claims.User
						s.User = &u
						revocationID = claims.RevocationID(s.Token)
					}
				}
				if deps.Blacklist != nil {
					if revoked, _ := deps.Blacklist.IsRevoked(r.Context(), revocationID); revoked {
						writeUnauthorized(w)
						return
					}
				}
			}
			next.ServeHTTP(w, r.WithContext(domain.WithSession(r.Context(), s)))
		})
	}
}

// RequireToken rejects requests without a bearer token.
func RequireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := domain.SessionFromCtx(r.Context())
		if !ok || s.Token == "" {
			writeUnauthorized(w)
			return
		}
		next(w, r)
	}
}

func ExtractBearer(h string) string {
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func language(r *http.Request) string {
	if l := r.URL.Query().Get("language"); l != "" {
		return l
	}
	return r.Header.Get(HeaderLanguage)
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":401,"text":"unauthorized"}}` + "\n"))
}
