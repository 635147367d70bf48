package enrollment

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
	v1.POST("/enrollments", func(c *gin.Context) {
		var req EnrollRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.ValidationFailed("invalid request body", err))
			return
		}

		enr, err := svc.Enroll(c.Request.Context(), middleware.UserID(c), req)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, enr)
	})
	v1.GET("/enrollments", func(c *gin.Context) {
		enrollments, err := svc.ListByUser(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"enrollments": enrollments})
	})
	v1.GET("/items/:id/access", func(c *gin.Context) {
		granted, err := svc.HasAccess(c.Request.Context(), middleware.UserID(c), c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"access": granted})
	})

	admin := engine.Group("/v1/admin", middleware.Auth(), authz.Require(enforcer))
	admin.GET("/enrollments", func(c *gin.Context) {
		enrollments, err := svc.List(c.Request.Context(), Status(c.Query("status")))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"enrollments": enrollments})
	})
	admin.POST("/enrollments/:id/decision", func(c *gin.Context) {
		var req DecideRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.ValidationFailed("invalid request body", err))
			return
		}

		enr, err := svc.Decide(c.Request.Context(), c.Param("id"), middleware.UserID(c), req)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, enr)
	})
}
