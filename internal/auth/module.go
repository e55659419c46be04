package auth

import (
	"context"
	"time"

	"github.com/omihq/twitter-bridge/internal/auth/providers"
	"github.com/omihq/twitter-bridge/internal/config"
	"go.uber.org/fx"
)

// janitorInterval is how often expired authorization states are purged.
const janitorInterval = time.Minute

// Module provides the authorization flow dependencies
var Module = fx.Module("auth",
	fx.Provide(
		newStateStore,
		fx.Annotate(
			newProvider,
			fx.As(new(providers.Provider)),
		),
		NewFlow,
	),
)

func newProvider(cfg *config.Config) *providers.TwitterProvider {
	return providers.NewTwitterProvider(&cfg.Twitter)
}

func newStateStore(cfg *config.Config, lc fx.Lifecycle) StateStore {
	store := NewMemoryStateStore(cfg.Twitter.StateTTL)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			store.StartJanitor(janitorInterval)
			return nil
		},
		OnStop: func(context.Context) error {
			store.Stop()
			return nil
		},
	})
	return store
}
