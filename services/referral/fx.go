package referral

import (
	"go.uber.org/fx"
)

var Module = fx.Module("referral.service",
	fx.Provide(NewService),
	fx.Invoke(registerRoutes),
)

// TaskModule binds the earning handler onto the worker mux. Wired separately
// so the seed binaries can use the service without an asynq server.
var TaskModule = fx.Module("referral.tasks",
	fx.Invoke(registerTaskHandlers),
)
