package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"datingapp/internal/apperr"
)

const (
	applicationErrorHeader = "Application-Error"
	genericInternalMessage = "internal_server_error"
)

// Errors renders the last error a handler attached with c.Error. Raw
// messages of unexpected failures only reach the client in development.
func Errors(log zerolog.Logger, development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		appErr := apperr.From(err)
		status := apperr.Status(appErr)
		message := appErr.Error()

		if status >= http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("path", c.Request.URL.Path).
				Str("request_id", RequestIDFrom(c)).
				Msg("request failed")

			var typed *apperr.Error
			isTyped := errors.As(err, &typed)
			switch {
			case !isTyped && !development:
				message = genericInternalMessage
			case isTyped && development && appErr.Err != nil && appErr.Message != "":
				message = appErr.Message + ": " + appErr.Err.Error()
			}
		}

		c.Header(applicationErrorHeader, headerSafe(message))
		c.AbortWithStatusJSON(status, apperr.ErrorResponse{
			Error:   message,
			Code:    appErr.Code,
			Details: appErr.Details,
		})
	}
}

func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
