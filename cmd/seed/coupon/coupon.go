package main

import (
	"log"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bookshala-commerce/pkg/config"
	"bookshala-commerce/pkg/db"
	"bookshala-commerce/pkg/logger"
	"bookshala-commerce/services/coupon"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		fx.Provide(func() (*snowflake.Node, error) {
			return snowflake.NewNode(1)
		}),
		fx.Invoke(seed),
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

func seed(gdb *gorm.DB, node *snowflake.Node, shutdowner fx.Shutdowner) error {
	if err := gdb.AutoMigrate(&coupon.Coupon{}); err != nil {
		return err
	}

	expiry := time.Now().AddDate(0, 1, 0)
	maxUses := 100
	coupons := []coupon.Coupon{
		{
			CouponID:      node.Generate().String(),
			Code:          "SAVE20",
			DiscountType:  coupon.Percentage,
			DiscountValue: 20,
			ExpiresAt:     &expiry,
			MaxUses:       &maxUses,
		},
		{
			CouponID:      node.Generate().String(),
			Code:          "FLAT200",
			DiscountType:  coupon.Fixed,
			DiscountValue: 200,
			ExpiresAt:     &expiry,
		},
	}

	for _, c := range coupons {
		err := gdb.Where("code = ?", c.Code).FirstOrCreate(&c).Error
		if err != nil {
			zap.L().Error("failed to seed coupon", zap.String("code", c.Code), zap.Error(err))
			return err
		}
		zap.L().Info("seeded coupon", zap.String("code", c.Code))
	}

	return shutdowner.Shutdown()
}
