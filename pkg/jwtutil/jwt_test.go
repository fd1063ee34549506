package jwtutil

import (
	"testing"

	"vendor-service/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})

	token, err := GenerateToken("user@example.com", 42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, uint(42), claims.UserID)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})

	_, err := ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "first-key", ExpirationHours: 1})
	token, err := GenerateToken("user@example.com", 1)
	require.NoError(t, err)

	Initialize(&config.JWTConfig{SigningKey: "second-key", ExpirationHours: 1})
	_, err = ValidateToken(token)
	assert.Error(t, err)
}
