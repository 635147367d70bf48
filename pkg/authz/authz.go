package authz

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"bookshala-commerce/pkg/errutil"
	"bookshala-commerce/pkg/middleware"
)

var Module = fx.Module("authz", fx.Provide(NewEnforcer))

const casbinModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// NewEnforcer builds the casbin enforcer gating administrative routes. The
// policy set is small and fixed: status transitions, approvals, and catalog or
// coupon management belong to admins only.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(casbinModel)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	if _, err := e.AddPolicy("admin", "/v1/admin/*", "*"); err != nil {
		return nil, err
	}

	return e, nil
}

// Require enforces the caller's role (from the auth collaborator) against the
// request path and method.
func Require(e *casbin.Enforcer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := e.Enforce(middleware.UserRole(c), c.Request.URL.Path, c.Request.Method)
		if err != nil {
			_ = c.Error(errutil.Internal("authorization check failed", err))
			c.Abort()
			return
		}
		if !ok {
			_ = c.Error(errutil.Forbidden("admin access required", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}
