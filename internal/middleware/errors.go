package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"useraccounts/internal/apperror"
)

// Abort records err for the Errors responder and stops the handler chain.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// Errors writes the last recorded error as {success:false, message}.
func Errors(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := apperror.From(c.Errors.Last().Err)
		if appErr.StatusCode >= 500 {
			log.Error().
				Err(appErr.Err).
				Str("path", c.Request.URL.Path).
				Str("request_id", RequestIDFrom(c)).
				Msg("request failed")
		}

		c.JSON(appErr.StatusCode, gin.H{
			"success": false,
			"message": appErr.Message,
		})
	}
}
