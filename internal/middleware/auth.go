package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"datingapp/internal/apperr"
	"datingapp/internal/security"
)

const claimsKey = "token_claims"

// Authenticate rejects requests without a valid bearer token and stores the
// token's claims on the context.
func Authenticate(tokens *security.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abortWith(c, apperr.Unauthorized("missing_token"))
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := tokens.Parse(tokenStr)
		if err != nil {
			abortWith(c, apperr.Unauthorized("invalid_token"))
			return
		}

		c.Set(claimsKey, claims)

		c.Next()
	}
}

// CurrentClaims returns the claims Authenticate stored, if any.
func CurrentClaims(c *gin.Context) (*security.Claims, bool) {
	val, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := val.(*security.Claims)
	return claims, ok && claims != nil
}

func abortWith(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
