package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerifier(t *testing.T) {
	verifier, err := GenerateVerifier()
	require.NoError(t, err)

	// 32 raw bytes encode to 43 base64url characters, inside the 43-128
	// range PKCE requires.
	assert.Len(t, verifier, 43)
	assert.NotContains(t, verifier, "+")
	assert.NotContains(t, verifier, "/")
	assert.NotContains(t, verifier, "=")
}

func TestGenerateVerifierUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		verifier, err := GenerateVerifier()
		require.NoError(t, err)
		assert.False(t, seen[verifier], "verifier repeated")
		seen[verifier] = true
	}
}

func TestGenerateChallenge(t *testing.T) {
	// Test vector from RFC 7636 appendix B.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", GenerateChallenge(verifier))

	// Deterministic, URL-safe output.
	other, err := GenerateVerifier()
	require.NoError(t, err)
	challenge := GenerateChallenge(other)
	assert.Equal(t, challenge, GenerateChallenge(other))
	assert.False(t, strings.ContainsAny(challenge, "+/="))
}
