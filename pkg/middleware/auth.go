package middleware

import (
	"github.com/gin-gonic/gin"

	"bookshala-commerce/pkg/errutil"
)

// Identity headers set by the upstream auth collaborator. The service never
// verifies credentials itself; it only requires that a stable user identity
// was established before the request reached it.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
	HeaderUserRole = "X-User-Role"

	ctxUserID   = "auth.user_id"
	ctxUserName = "auth.user_name"
	ctxUserRole = "auth.user_role"
)

// Auth requires an authenticated user on the request. Checkout and redemption
// treat a missing identity as a hard precondition failure.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		if userID == "" {
			_ = c.Error(errutil.Unauthorized("authentication required", nil))
			c.Abort()
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxUserName, c.GetHeader(HeaderUserName))
		c.Set(ctxUserRole, c.GetHeader(HeaderUserRole))
		c.Next()
	}
}

func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func UserName(c *gin.Context) string {
	return c.GetString(ctxUserName)
}

func UserRole(c *gin.Context) string {
	return c.GetString(ctxUserRole)
}
