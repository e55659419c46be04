// Package auth drives the OAuth2 authorization-code handshake with PKCE:
// generating verifiers and challenges, correlating the provider redirect
// through single-use state tokens, and exchanging callback codes for
// stored credentials.
package auth

import (
	"context"
	"time"

	"github.com/omihq/twitter-bridge/internal/auth/providers"
	"github.com/omihq/twitter-bridge/internal/credentials"
	"github.com/omihq/twitter-bridge/internal/errs"
	"github.com/omihq/twitter-bridge/internal/logger"
	"go.uber.org/zap"
)

// Flow hands out provider authorization URLs and turns callback codes into
// stored credentials. The code verifier is held server-side for the whole
// handshake and is never requested from the client.
type Flow struct {
	states   StateStore
	provider providers.Provider
	creds    credentials.Store
	now      func() time.Time
}

func NewFlow(states StateStore, provider providers.Provider, creds credentials.Store) *Flow {
	return &Flow{
		states:   states,
		provider: provider,
		creds:    creds,
		now:      time.Now,
	}
}

// Authorize starts an authorization attempt for uid and returns the URL to
// redirect the user to. Its only side effect is the state-store insert.
func (f *Flow) Authorize(ctx context.Context, uid string) (string, error) {
	state, verifier, err := f.states.Put(ctx, uid)
	if err != nil {
		return "", err
	}

	url := f.provider.AuthCodeURL(state, GenerateChallenge(verifier))
	logger.Debug("authorization started", zap.String("uid", uid))
	return url, nil
}

// HandleCallback consumes the state from the provider redirect, exchanges
// the code with the retrieved verifier, and persists the resulting
// credentials. On success exactly one credential write happens; on any
// failure, none.
func (f *Flow) HandleCallback(ctx context.Context, code, state string) (string, error) {
	verifier, uid, err := f.states.Consume(ctx, state)
	if err != nil {
		return "", err
	}

	tok, err := f.provider.Exchange(ctx, code, verifier)
	if err != nil {
		return "", errs.Wrap(errs.KindExchangeFailed, "authorization code exchange failed", err)
	}
	if tok.AccessToken == "" {
		return "", errs.New(errs.KindExchangeFailed, "token response carried no access token")
	}

	if err := f.creds.Set(ctx, uid, credentials.FromToken(uid, tok, nil, f.now())); err != nil {
		return "", errs.Wrap(errs.KindInternal, "could not persist credentials", err)
	}

	logger.Info("credentials stored", zap.String("uid", uid))
	return uid, nil
}
