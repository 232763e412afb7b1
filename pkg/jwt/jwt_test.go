package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestGenerateAndParse(t *testing.T) {
	tok, err := Generate(secret, "u1", "tenant-1", "operator", "ledger-api", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "tenant-1", claims.TenantID)
	assert.Equal(t, "operator", claims.Role)
	assert.Equal(t, "ledger-api", claims.Issuer)
}

func TestParse_Rejects(t *testing.T) {
	expired, err := Generate(secret, "u1", "tenant-1", "admin", "ledger-api", -time.Minute)
	require.NoError(t, err)
	_, err = Parse(secret, expired)
	assert.Error(t, err, "token expirado")

	valid, err := Generate(secret, "u1", "tenant-1", "admin", "ledger-api", time.Hour)
	require.NoError(t, err)
	_, err = Parse("otro-secret", valid)
	assert.Error(t, err, "secret incorrecto")

	_, err = Parse(secret, "no.es.token")
	assert.Error(t, err)

	_, err = Generate("", "u1", "tenant-1", "admin", "ledger-api", time.Hour)
	assert.Error(t, err)
}
