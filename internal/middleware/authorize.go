package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"useraccounts/internal/apperror"
	"useraccounts/internal/models"
)

// RequireRoles must run after Auth.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			Abort(c, apperror.Unauthorized(msgLoginRequired))
			return
		}

		if _, ok := roleSet[user.Role]; !ok {
			Abort(c, apperror.Forbidden(fmt.Sprintf("Role: %s is not allowed to access this resource", user.Role)))
			return
		}

		c.Next()
	}
}
