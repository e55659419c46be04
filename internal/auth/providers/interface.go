package providers

import (
	"context"

	"golang.org/x/oauth2"
)

// Provider abstracts the OAuth2 endpoints of the upstream platform.
type Provider interface {
	// AuthCodeURL returns the provider authorization URL carrying the state
	// token and the S256 code challenge.
	AuthCodeURL(state, codeChallenge string) string

	// Exchange trades an authorization code plus the PKCE verifier for a
	// token set.
	Exchange(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error)

	// Refresh obtains a new token set from a refresh token.
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}
