package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "witchmart/pkg/domain-errors"
)

func TestTokens_RoundTrip(t *testing.T) {
	tokens := NewTokens("test-signing-key")
	sess := New(time.Now(), time.Hour)

	token, err := tokens.Issue(sess)
	require.NoError(t, err)

	id, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, id)
}

func TestTokens_Rejects(t *testing.T) {
	tokens := NewTokens("test-signing-key")
	sess := New(time.Now(), time.Hour)
	valid, err := tokens.Issue(sess)
	require.NoError(t, err)

	t.Run("empty token", func(t *testing.T) {
		_, err := tokens.Parse("")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("token signed with another key", func(t *testing.T) {
		_, err := NewTokens("other-key").Parse(valid)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("expired token", func(t *testing.T) {
		later := NewTokens("test-signing-key")
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(valid)
		require.Error(t, err)
		assert.Equal(t, "session token expired", err.Error())
	})

	t.Run("unexpected algorithm", func(t *testing.T) {
		forged := jwt.NewWithClaims(jwt.SigningMethodHS512, TokenClaims{
			SessionID: sess.ID,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    tokenIssuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		signed, err := forged.SignedString([]byte("test-signing-key"))
		require.NoError(t, err)

		_, err = tokens.Parse(signed)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
