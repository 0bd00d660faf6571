package transition

import "go.uber.org/fx"

// Module provides the transition repository to Fx.
var Module = fx.Provide(NewRepository)
