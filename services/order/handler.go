package order

import (
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"

	"bookshala-commerce/pkg/authz"
	"bookshala-commerce/pkg/errutil"
	"bookshala-commerce/pkg/middleware"
)

func registerRoutes(engine *gin.Engine, enforcer *casbin.Enforcer, svc *Service) {
	v1 := engine.Group("/v1", middleware.Auth())
	v1.POST("/orders", func(c *gin.Context) {
		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.ValidationFailed("invalid request body", err))
			return
		}

		ord, err := svc.Checkout(c.Request.Context(), middleware.UserID(c), req)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, ord)
	})
	v1.GET("/orders", func(c *gin.Context) {
		orders, err := svc.ListByUser(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	})
	v1.GET("/orders/:id", func(c *gin.Context) {
		ord, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			return
		}
		if ord.UserID != middleware.UserID(c) && middleware.UserRole(c) != "admin" {
			_ = c.Error(errutil.NotFound("order not found", nil))
			return
		}
		c.JSON(http.StatusOK, ord)
	})

	admin := engine.Group("/v1/admin", middleware.Auth(), authz.Require(enforcer))
	admin.GET("/orders", func(c *gin.Context) {
		orders, err := svc.List(c.Request.Context(), Status(c.Query("status")))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	})
	admin.POST("/orders/:id/status", func(c *gin.Context) {
		var req UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.ValidationFailed("invalid request body", err))
			return
		}

		ord, err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, ord)
	})
}
