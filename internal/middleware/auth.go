package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"useraccounts/internal/apperror"
	"useraccounts/internal/models"
	"useraccounts/internal/repository"
	"useraccounts/internal/requestctx"
	"useraccounts/internal/security"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	msgLoginRequired = "please login to access this resource"
)

type AccessTokenParser interface {
	ParseAccessToken(token string) (*security.UserClaims, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

// Auth resolves the acting user from the access_token cookie or a Bearer
// header and attaches it to the request context.
func Auth(tokens AccessTokenParser, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := accessToken(c)
		if tokenStr == "" {
			Abort(c, apperror.Unauthorized(msgLoginRequired))
			return
		}

		claims, err := tokens.ParseAccessToken(tokenStr)
		if err != nil {
			Abort(c, apperror.Wrap(err, http.StatusUnauthorized, "access token is not valid"))
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				Abort(c, apperror.Unauthorized(msgLoginRequired))
				return
			}
			Abort(c, apperror.Internal(err))
			return
		}

		c.Request = c.Request.WithContext(requestctx.WithUser(c.Request.Context(), user))
		c.Next()
	}
}

// CurrentUser returns the user attached by Auth.
func CurrentUser(c *gin.Context) (models.User, bool) {
	return requestctx.UserFrom(c.Request.Context())
}

func accessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}
