package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParseOperatorToken(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  "op-1",
		"name": "Ana",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	operatorID, name, err := ParseOperatorToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "op-1", operatorID)
	assert.Equal(t, "Ana", name)
}

func TestParseOperatorTokenRejectsBadSignature(t *testing.T) {
	token := signToken(t, "other-secret", jwt.MapClaims{"sub": "op-1"})

	_, _, err := ParseOperatorToken(testSecret, token)
	assert.Error(t, err)
}

func TestParseOperatorTokenRejectsExpired(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": "op-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, _, err := ParseOperatorToken(testSecret, token)
	assert.Error(t, err)
}

func TestParseOperatorTokenRequiresSubject(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{"name": "Ana"})

	_, _, err := ParseOperatorToken(testSecret, token)
	assert.Error(t, err)
}

func TestParseOperatorTokenRejectsGarbage(t *testing.T) {
	_, _, err := ParseOperatorToken(testSecret, "not-a-token")
	assert.Error(t, err)
}
