package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlemoine/blog-platform/backend/internal/apperr"
)

func TestTokenRoundtrip(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Issue("user-42")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestTokenExpired(t *testing.T) {
	svc := NewTokenService("test-secret", -time.Minute)

	token, err := svc.Issue("user-42")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.Error(t, err)
	assert.Equal(t, apperr.Authentication, apperr.KindOf(err))
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", time.Hour)
	verifier := NewTokenService("secret-b", time.Hour)

	token, err := issuer.Issue("user-42")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
	assert.Equal(t, apperr.Authentication, apperr.KindOf(err))
}

func TestTokenMalformed(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, err := svc.Verify(tok)
		require.Error(t, err, "token %q", tok)
		assert.Equal(t, apperr.Authentication, apperr.KindOf(err))
	}
}
