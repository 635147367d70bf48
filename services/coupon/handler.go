package coupon

import (
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"

	"bookshala-commerce/pkg/authz"
	"bookshala-commerce/pkg/errutil"
	"bookshala-commerce/pkg/middleware"
)

type validateRequest struct {
	Code     string  `json:"code" binding:"required"`
	Subtotal float64 `json:"subtotal"`
}

func registerRoutes(engine *gin.Engine, enforcer *casbin.Enforcer, svc *Service) {
	v1 := engine.Group("/v1", middleware.Auth())
	v1.POST("/coupons/validate", func(c *gin.Context) {
		var req validateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.ValidationFailed("invalid request body", err))
			return
		}

		applied, err := svc.Validate(c.Request.Context(), req.Code, req.Subtotal)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, applied)
	})

	admin := engine.Group("/v1/admin", middleware.Auth(), authz.Require(enforcer))
	admin.POST("/coupons", func(c *gin.Context) {
		var req CreateCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.ValidationFailed("invalid request body", err))
			return
		}

		created, err := svc.Create(c.Request.Context(), req)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, created)
	})
	admin.GET("/coupons", func(c *gin.Context) {
		coupons, err := svc.List(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"coupons": coupons})
	})
}
