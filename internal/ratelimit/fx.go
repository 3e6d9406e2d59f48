package ratelimit

import "go.uber.org/fx"

// Module provides the optional Redis-backed rate limiter.
var Module = fx.Module("rate.limit",
	fx.Provide(NewTokenBucket),
)
