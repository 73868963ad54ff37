package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(42, "manager", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "manager", claims.Role)
	assert.Equal(t, "42", claims.Subject)
}

func TestValidateTokenRejects(t *testing.T) {
	token, err := GenerateToken(42, "employee", "secret", time.Hour)
	require.NoError(t, err)
	_, err = ValidateToken(token, "other-secret")
	assert.Error(t, err)

	expired, err := GenerateToken(42, "employee", "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(expired, "secret")
	assert.Error(t, err)

	_, err = GenerateToken(42, "employee", "", time.Hour)
	assert.Error(t, err)
}
