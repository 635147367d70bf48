package catalog

import (
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"

	"bookshala-commerce/pkg/authz"
	"bookshala-commerce/pkg/errutil"
	"bookshala-commerce/pkg/middleware"
)

func registerRoutes(engine *gin.Engine, enforcer *casbin.Enforcer, svc *Service) {
	v1 := engine.Group("/v1")
	v1.GET("/items", func(c *gin.Context) {
		params := ListParams{Type: ItemType(c.Query("type"))}
		if params.Type != "" && !params.Type.Valid() {
			_ = c.Error(errutil.BadRequest("unknown item type", nil))
			return
		}

		items, err := svc.List(c.Request.Context(), params)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	})
	v1.GET("/items/:id", func(c *gin.Context) {
		item, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, item)
	})

	admin := engine.Group("/v1/admin", middleware.Auth(), authz.Require(enforcer))
	admin.POST("/items", func(c *gin.Context) {
		var req CreateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.ValidationFailed("invalid request body", err))
			return
		}

		item, err := svc.Create(c.Request.Context(), req)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, item)
	})
	admin.PUT("/items/:id", func(c *gin.Context) {
		var req UpdateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(errutil.ValidationFailed("invalid request body", err))
			return
		}

		item, err := svc.Update(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, item)
	})
}
