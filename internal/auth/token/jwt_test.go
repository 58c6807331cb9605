package token

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
)

var user = domain.UserContext{UserID: "100", ClientID: "23C5", OrgID: "0", RoleID: "42D0", WarehouseID: "B2D4"}

func TestIssueAndParseVerified(t *testing.T) {
	p := NewParser("s3cret")
	raw, err := p.Issue(user, "jti-1", time.Hour)
	require.NoError(t, err)

	claims, err := p.Parse(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "jti-1", claims.JTI)
	assert.Equal(t, user, claims.User)
	assert.True(t, claims.User.Complete())
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	raw, err := NewParser("a").Issue(user, "j", time.Hour)
	require.NoError(t, err)
	_, err = NewParser("b").Parse(context.Background(), raw)
	assert.Error(t, err)
}

func TestParseUnverifiedReadsAlternateClaimNames(t *testing.T) {
	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":         "U1",
		"clientId":    "C1",
		"orgId":       "O1",
		"roleId":      "R1",
		"warehouseId": float64(7),
	})
	raw, err := tkn.SignedString([]byte("erp-only-secret"))
	require.NoError(t, err)

	claims, err := NewParser("").Parse(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, domain.UserContext{UserID: "U1", ClientID: "C1", OrgID: "O1", RoleID: "R1", WarehouseID: "7"}, claims.User)
}

func TestParseMalformed(t *testing.T) {
	_, err := NewParser("").Parse(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrMalformed)
}
