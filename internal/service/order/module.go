package order

import (
	"go.uber.org/fx"
)

// Module provides the order view service to Fx and runs its janitor.
var Module = fx.Options(
	fx.Provide(NewService),
	fx.Invoke(func(lc fx.Lifecycle, svc *Service) {
		lc.Append(fx.Hook{
			OnStart: svc.Start,
			OnStop:  svc.Stop,
		})
	}),
)
