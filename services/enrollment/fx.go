package enrollment

import (
	"go.uber.org/fx"
)

var Module = fx.Module("enrollment.service",
	fx.Provide(NewService),
	fx.Invoke(registerRoutes),
)
