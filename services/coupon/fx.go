package coupon

import (
	"go.uber.org/fx"
)

var Module = fx.Module("coupon.service",
	fx.Provide(NewService),
	fx.Invoke(registerRoutes),
)
