package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"datingapp/internal/apperr"
	"datingapp/internal/security"
)

// RequirePolicy lets the request through only when the token's roles
// satisfy the named policy. It must run after Authenticate.
func RequirePolicy(policy security.Policy) gin.HandlerFunc {
	if _, ok := security.PolicyRoles(policy); !ok {
		panic(fmt.Sprintf("unknown authorization policy %q", policy))
	}

	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			abortWith(c, apperr.Unauthorized("unauthorized"))
			return
		}

		if !security.Allows(policy, claims) {
			abortWith(c, apperr.Forbidden("forbidden"))
			return
		}

		c.Next()
	}
}
