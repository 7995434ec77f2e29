package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetTokenRoundTrip(t *testing.T) {
	tokens := NewResetTokens("secret", time.Hour)

	token, err := tokens.Issue(42)
	require.NoError(t, err)

	id, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestResetTokenExpired(t *testing.T) {
	tokens := NewResetTokens("secret", -time.Minute)

	token, err := tokens.Issue(42)
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	assert.Error(t, err)
}

func TestResetTokenWrongSecret(t *testing.T) {
	token, err := NewResetTokens("secret", time.Hour).Issue(42)
	require.NoError(t, err)

	_, err = NewResetTokens("other", time.Hour).Verify(token)
	assert.Error(t, err)
}

func TestResetTokenGarbage(t *testing.T) {
	tokens := NewResetTokens("secret", time.Hour)

	_, err := tokens.Verify("not-a-token")
	assert.Error(t, err)

	_, err = tokens.Verify("")
	assert.Error(t, err)
}
