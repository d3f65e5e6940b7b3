package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_RoundTrip(t *testing.T) {
	signer := NewSigner("test-secret", time.Hour)

	token, issued, err := signer.GenerateToken("01J0USER", "alice@example.com", "user")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Len(t, issued.ID, 26)

	claims, err := signer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "01J0USER", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.UserEmail)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, issued.ID, claims.ID)
}

func TestSigner_UniqueTokenIDs(t *testing.T) {
	signer := NewSigner("test-secret", time.Hour)

	_, a, err := signer.GenerateToken("u1", "a@b.com", "user")
	require.NoError(t, err)
	_, b, err := signer.GenerateToken("u1", "a@b.com", "user")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestSigner_Expired(t *testing.T) {
	signer := NewSigner("test-secret", time.Minute)
	signer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := signer.GenerateToken("u1", "a@b.com", "user")
	require.NoError(t, err)

	signer.now = time.Now
	_, err = signer.ValidateToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestSigner_WrongSecret(t *testing.T) {
	token, _, err := NewSigner("one", time.Hour).GenerateToken("u1", "a@b.com", "user")
	require.NoError(t, err)

	_, err = NewSigner("two", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestSigner_NoSecret(t *testing.T) {
	signer := NewSigner("", time.Hour)

	_, _, err := signer.GenerateToken("u1", "a@b.com", "user")
	assert.ErrorIs(t, err, ErrSecretNotInitialized)

	_, err = signer.ValidateToken("anything")
	assert.ErrorIs(t, err, ErrSecretNotInitialized)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, VerifyPassword("correct horse", hash))
	assert.Error(t, VerifyPassword("battery staple", hash))

	_, err = HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}
