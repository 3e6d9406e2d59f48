package auth

import (
	"testing"

	"github.com/rareminds/skillpassport-billing/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerifier(secret string) *Verifier {
	return NewVerifier(config.Config{AuthSecret: secret})
}

func TestSignParseRoundTrip(t *testing.T) {
	v := newVerifier("secret")

	userID, err := v.Parse(v.Sign("user_1"))
	require.NoError(t, err)
	assert.Equal(t, "user_1", userID)

	// User ids may themselves contain dots.
	userID, err = v.Parse(v.Sign("user.with.dots"))
	require.NoError(t, err)
	assert.Equal(t, "user.with.dots", userID)
}

func TestParseRejectsTampering(t *testing.T) {
	v := newVerifier("secret")
	token := v.Sign("user_1")

	_, err := v.Parse("user_2." + token[len("user_1."):])
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = newVerifier("other").Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseMalformed(t *testing.T) {
	v := newVerifier("secret")

	_, err := v.Parse("")
	assert.ErrorIs(t, err, ErrMissingToken)

	for _, raw := range []string{"no-separator", ".sig", "user_1."} {
		_, err := v.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, raw)
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer abc"))
	assert.Empty(t, BearerToken(""))
	assert.Empty(t, BearerToken("abc"))
	assert.Empty(t, BearerToken("Basic abc"))
}
