package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/veloca-labs/mds-api/internal/models"
	appErrors "github.com/veloca-labs/mds-api/pkg/errors"
	"github.com/veloca-labs/mds-api/pkg/response"
)

// RequireSection gates a route on a named admin section privilege.
// Section grants only exist on ADMIN accounts; every other role passes
// through untouched and relies on RBAC for its gating.
//
// The check order matters and must not be rearranged:
//  1. no authenticated claims       -> 401
//  2. non-admin role                -> allow, RBAC owns role gating
//  3. super-admin                   -> allow, no section lookup
//  4. empty section name            -> allow, route is unrestricted
//  5. section not among the grants  -> 403
// Swapping 3 and 5 would deny super-admins sections they were never
// explicitly granted; swapping 4 and 5 would deny unrestricted routes to
// admins with an empty grant list.
func RequireSection(section string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if claims.Role != models.RoleAdmin && claims.Role != models.RoleSuperAdmin {
			c.Next()
			return
		}

		if !claims.HasAnyPrivilege(section) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "section privilege required: "+section))
			c.Abort()
			return
		}

		c.Next()
	}
}
