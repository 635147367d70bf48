package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	queue "bookshala-commerce/pkg/asynq"
	"bookshala-commerce/pkg/authz"
	"bookshala-commerce/pkg/config"
	"bookshala-commerce/pkg/db"
	"bookshala-commerce/pkg/health"
	"bookshala-commerce/pkg/logger"
	"bookshala-commerce/pkg/redis"
	"bookshala-commerce/pkg/report"
	"bookshala-commerce/pkg/sequence"
	"bookshala-commerce/pkg/server"
	"bookshala-commerce/services/catalog"
	"bookshala-commerce/services/coupon"
	"bookshala-commerce/services/enrollment"
	"bookshala-commerce/services/order"
	"bookshala-commerce/services/referral"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		queue.Client,
		queue.Server,
		sequence.Module,
		report.Module,
		authz.Module,
		health.Module,
		fx.Provide(
			provideSnowflakeNode,
		),
		fx.Invoke(autoMigrate),
		catalog.Module,
		coupon.Module,
		order.Module,
		enrollment.Module,
		referral.Module,
		referral.TaskModule,
		server.Module,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func autoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&catalog.Item{},
		&coupon.Coupon{},
		&order.Order{},
		&order.OrderItem{},
		&enrollment.Enrollment{},
		&referral.Balance{},
		&referral.PointTransaction{},
	)
}
