package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"datingapp/internal/apperr"
)

func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Str("path", c.Request.URL.Path).
					Str("request_id", RequestIDFrom(c)).
					Msg("panic recovered")
				c.Header(applicationErrorHeader, genericInternalMessage)
				c.AbortWithStatusJSON(http.StatusInternalServerError, apperr.ErrorResponse{
					Error: genericInternalMessage,
					Code:  "INTERNAL_ERROR",
				})
			}
		}()
		c.Next()
	}
}
