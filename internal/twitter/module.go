package twitter

import "go.uber.org/fx"

// Module provides the Twitter API client
var Module = fx.Module("twitter",
	fx.Provide(
		NewClient,
	),
)
