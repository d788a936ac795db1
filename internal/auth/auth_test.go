package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	token, err := m.Generate("boris")
	require.NoError(t, err)

	username, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "boris", username)
}

func TestJWTManager_Expired(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }

	token, err := m.Generate("boris")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret", time.Hour).Generate("boris")
	require.NoError(t, err)

	_, err = NewJWTManager("other", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_SubjectWithoutPrefix(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "boris",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_Missing(t *testing.T) {
	_, err := NewJWTManager("secret", time.Hour).Validate("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.NoError(t, VerifyPassword(hash, "correct horse battery"))
	assert.ErrorIs(t, VerifyPassword(hash, "wrong password!"), ErrInvalidCredentials)
}

func TestPassword_LongAndMultibyte(t *testing.T) {
	for _, pw := range []string{
		strings.Repeat("p", 128),
		strings.Repeat("пароль", 7),
	} {
		hash, err := HashPassword(pw)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=4$"), hash)

		assert.NoError(t, VerifyPassword(hash, pw))
		assert.ErrorIs(t, VerifyPassword(hash, pw[:len(pw)-1]), ErrInvalidCredentials)
	}
}

func TestPassword_SaltedHashesDiffer(t *testing.T) {
	a, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	b, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	for _, hash := range []string{
		"",
		"plain",
		"$2a$10$abcdefghijklmnopqrstuv",
		"$argon2id$v=18$m=65536,t=3,p=4$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=3,p=4$c2FsdA$a2V5",
		"$argon2id$v=19$m=65536,t=3,p=4$!!$a2V5",
		"$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$",
	} {
		assert.ErrorIs(t, VerifyPassword(hash, "whatever"), ErrInvalidCredentials, hash)
	}
}
