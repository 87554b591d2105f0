package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/trajectory-explorer/internal/auth"
	"github.com/jengzang/trajectory-explorer/pkg/response"
)

var errNoBearer = errors.New("missing bearer token")

// Auth requires a bearer token signed with secret. An empty secret disables
// the check.
func Auth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		if len(key) == 0 {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.Unauthorized(c, "Authorization required", errNoBearer)
			return
		}
		if err := auth.Verify(key, token); err != nil {
			response.Unauthorized(c, "Invalid token", err)
			return
		}
		c.Next()
	}
}
