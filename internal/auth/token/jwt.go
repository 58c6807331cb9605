package token

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
)

// Parser decodes the bearer tokens issued by Etendo Classic. With a secret
// the HS256 signature and expiry are verified; without one the payload is
// only decoded, since the ERP stays the authority on validity.
type Parser struct {
	secret []byte
	parser *jwt.Parser
}

func NewParser(secret string) *Parser {
	p := &Parser{parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))}
	if secret != "" {
		p.secret = []byte(secret)
	}
	return p
}

var _ domain.TokenParser = (*Parser)(nil)

var ErrMalformed = errors.New("malformed token")

func (p *Parser) Parse(_ context.Context, raw string) (domain.TokenClaims, error) {
	claims := jwt.MapClaims{}
	if p.secret != nil {
		tkn, err := p.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return p.secret, nil
		})
		if err != nil {
			return domain.TokenClaims{}, err
		}
		if !tkn.Valid {
			return domain.TokenClaims{}, jwt.ErrTokenInvalidClaims
		}
	} else {
		if _, _, err := p.parser.ParseUnverified(raw, claims); err != nil {
			return domain.TokenClaims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	out := domain.TokenClaims{
		JTI: first(claims, "jti"),
		User: domain.UserContext{
			UserID:      first(claims, "userId", "user", "sub"),
			ClientID:    first(claims, "clientId", "client", "client_id"),
			OrgID:       first(claims, "orgId", "org", "organization", "organizationId", "org_id"),
			RoleID:      first(claims, "roleId", "role", "role_id"),
			WarehouseID: first(claims, "warehouseId", "warehouse", "warehouse_id"),
		},
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// first returns the first claim among keys holding a non-blank string or a number.
func first(c jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		switch v := c[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// Issue signs claims with the configured secret. Used by tests and the
// CLI to mint local tokens; production tokens come from the ERP.
func (p *Parser) Issue(u domain.UserContext, jti string, ttl time.Duration) (string, error) {
	if p.secret == nil {
		return "", errors.New("no signing secret configured")
	}
	now := time.Now().UTC()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"jti":          jti,
		"user":         u.UserID,
		"client":       u.ClientID,
		"organization": u.OrgID,
		"role":         u.RoleID,
		"warehouse":    u.WarehouseID,
		"iat":          now.Unix(),
		"exp":          now.Add(ttl).Unix(),
	})
	return t.SignedString(p.secret)
}
