package credentials

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/omihq/twitter-bridge/internal/auth/providers"
	"github.com/omihq/twitter-bridge/internal/config"
	"github.com/omihq/twitter-bridge/internal/errs"
	"github.com/omihq/twitter-bridge/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// Refresher hands out currently valid credentials, refreshing expired ones
// through the provider. Concurrent refreshes for one uid collapse into a
// single provider call: Twitter invalidates a refresh token on first use,
// so a duplicate concurrent refresh can lock the user out for good.
type Refresher struct {
	store    Store
	provider providers.Provider
	skew     time.Duration
	group    singleflight.Group
	now      func() time.Time
}

func NewRefresher(store Store, provider providers.Provider, cfg *config.Config) *Refresher {
	return &Refresher{
		store:    store,
		provider: provider,
		skew:     cfg.Twitter.RefreshSkew,
		now:      time.Now,
	}
}

// GetValid returns credentials that are usable right now. Absent
// credentials report Unauthenticated. Expired credentials are refreshed
// and re-persisted before being returned; a definitive provider rejection
// deletes the record and reports ReauthRequired.
func (r *Refresher) GetValid(ctx context.Context, uid string) (*Credentials, error) {
	creds, err := r.store.Get(ctx, uid)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "credential lookup failed", err)
	}
	if creds == nil {
		return nil, errs.New(errs.KindUnauthenticated, "no credentials stored for user")
	}
	if !creds.Expired(r.now(), r.skew) {
		return creds, nil
	}

	v, err, _ := r.group.Do(uid, func() (interface{}, error) {
		return r.refresh(ctx, uid)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Credentials), nil
}

func (r *Refresher) refresh(ctx context.Context, uid string) (*Credentials, error) {
	// Re-read inside the flight: a caller that lost the race to another
	// refresh sees the record the winner just wrote and skips the provider.
	creds, err := r.store.Get(ctx, uid)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "credential lookup failed", err)
	}
	if creds == nil {
		return nil, errs.New(errs.KindUnauthenticated, "no credentials stored for user")
	}
	if !creds.Expired(r.now(), r.skew) {
		return creds, nil
	}

	if creds.RefreshToken == "" {
		if err := r.store.Delete(ctx, uid); err != nil {
			logger.Error("Failed to delete credentials", zap.String("uid", uid), zap.Error(err))
		}
		return nil, errs.New(errs.KindReauthRequired, "access token expired and no refresh token held")
	}

	tok, err := r.provider.Refresh(ctx, creds.RefreshToken)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil &&
			retrieveErr.Response.StatusCode >= http.StatusBadRequest &&
			retrieveErr.Response.StatusCode < http.StatusInternalServerError {
			// The refresh token is dead; keeping the record would make every
			// later call retry a doomed refresh.
			if err := r.store.Delete(ctx, uid); err != nil {
				logger.Error("Failed to delete credentials", zap.String("uid", uid), zap.Error(err))
			}
			return nil, errs.Wrap(errs.KindReauthRequired, "provider rejected refresh token", err)
		}
		return nil, errs.Wrap(errs.KindTransient, "token refresh failed", err)
	}

	next := FromToken(uid, tok, creds, r.now())
	if err := r.store.Set(ctx, uid, next); err != nil {
		return nil, errs.Wrap(errs.KindInternal, "could not persist refreshed credentials", err)
	}

	logger.Debug("credentials refreshed", zap.String("uid", uid), zap.Time("expires_at", next.ExpiresAt))
	return next, nil
}
