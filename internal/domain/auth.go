package domain

import (
	"context"
	"time"
)

// UserContext is the ERP identity carried by the bearer token.
type UserContext struct {
	UserID      string `json:"userId"`
	ClientID    string `json:"clientId"`
	OrgID       string `json:"orgId"`
	RoleID      string `json:"roleId"`
	WarehouseID string `json:"warehouseId"`
}

// Complete reports whether every identity field is set.
func (u UserContext) Complete() bool {
	return u.UserID != "" && u.ClientID != "" && u.OrgID != "" && u.RoleID != "" && u.WarehouseID != ""
}

// Headers are forwarded to the ERP so it can isolate per-user caches.
func (u UserContext) Headers() map[string]string {
	return map[string]string{
		"X-User-ID":      u.UserID,
		"X-Client-ID":    u.ClientID,
		"X-Org-ID":       u.OrgID,
		"X-Role-ID":      u.RoleID,
		"X-Warehouse-ID": u.WarehouseID,
	}
}

type TokenClaims struct {
	JTI       string
	User      UserContext
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenParser decodes ERP-issued bearer tokens.
type TokenParser interface {
	Parse(ctx context.Context, raw string) (TokenClaims, error)
}

// TokenBlacklist keeps revoked tokens until they expire.
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, exp time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// PasswordVerifier checks a plain password against a stored hash.
type PasswordVerifier interface {
	Verify(plain, encodedHash string) (bool, error)
}

// RevocationID is the blacklist key of a token: its jti, or a hash of the
// raw token when the issuer set none.
func (c TokenClaims) RevocationID(raw string) string {
	if c.JTI != "" {
		return c.JTI
	}
	return HashKey(raw)
}
