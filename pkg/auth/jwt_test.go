package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yourusername/eventreg-api/internal/pkg/errors"
)

func TestTokenService_GenerateAndParse(t *testing.T) {
	// Arrange
	svc, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	// Act
	token, err := svc.Generate("admin@vishnu.edu.in", "Portal Admin", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Parse(token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "admin@vishnu.edu.in", claims.Email)
	assert.Equal(t, "Portal Admin", claims.Name)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "admin@vishnu.edu.in", claims.Subject)
}

func TestTokenService_Parse_RejectsGarbage(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	for _, token := range []string{"", "garbage", "aaa.bbb.ccc"} {
		_, err := svc.Parse(token)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized, "token %q", token)
	}
}

func TestTokenService_Parse_RejectsForeignSignature(t *testing.T) {
	issuer, err := NewTokenService("secret-one", time.Hour)
	require.NoError(t, err)
	verifier, err := NewTokenService("secret-two", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Generate("admin@vishnu.edu.in", "Portal Admin", "admin")
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestTokenService_Parse_RejectsExpired(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Nanosecond)
	require.NoError(t, err)

	token, err := svc.Generate("admin@vishnu.edu.in", "Portal Admin", "admin")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = svc.Parse(token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := NewTokenService("", time.Hour)
	assert.Error(t, err)
}
