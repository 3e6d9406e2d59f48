package lifecycle

import (
	"context"

	"go.uber.org/fx"
)

// Module wires the scheduler. RunLoop starts the interval loop and is
// only invoked by the scheduler binary; the API server triggers runs
// through the internal endpoint instead.
var Module = fx.Module("lifecycle",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
)

func RunLoop(lc fx.Lifecycle, sched *Scheduler) {
	loopCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go sched.RunForever(loopCtx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
