package credentials

import "go.uber.org/fx"

// Module provides the credential store and refresher
var Module = fx.Module("credentials",
	fx.Provide(
		fx.Annotate(
			NewMemoryStore,
			fx.As(new(Store)),
		),
		NewRefresher,
	),
)
