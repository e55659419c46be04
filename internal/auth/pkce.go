package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// verifierLength is the number of random bytes behind a code verifier.
// 32 bytes encode to 43 base64url characters, the PKCE minimum.
const verifierLength = 32

// GenerateVerifier returns a new PKCE code verifier from the system CSPRNG,
// base64url-encoded without padding.
func GenerateVerifier() (string, error) {
	b := make([]byte, verifierLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("could not read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateChallenge derives the S256 code challenge for a verifier:
// base64url(SHA-256(verifier)) without padding.
func GenerateChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
