package referral

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
	v1.GET("/referrals/balance", func(c *gin.Context) {
		bal, err := svc.GetBalance(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, bal)
	})
	v1.GET("/referrals/transactions", func(c *gin.Context) {
		txns, err := svc.ListTransactions(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transactions": txns})
	})
	v1.POST("/referrals/redeem", func(c *gin.Context) {
		var req RedeemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.ValidationFailed("invalid request body", err))
			return
		}

		result, err := svc.Redeem(c.Request.Context(), middleware.UserID(c), req)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, result)
	})

	admin := engine.Group("/v1/admin", middleware.Auth(), authz.Require(enforcer))
	admin.POST("/referrals/events", func(c *gin.Context) {
		var payload ProcessEarningPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			_ = c.Error(errutil.ValidationFailed("invalid request body", err))
			return
		}

		if err := svc.EnqueueEarning(c.Request.Context(), payload); err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
	})
}
