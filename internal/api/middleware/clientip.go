package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ClientIdentity resolves the address used to key abuse-prevention checks:
// the first entry of X-Forwarded-For when present (the site runs behind a
// reverse proxy in production), otherwise the transport-level peer address.
func ClientIdentity(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	return c.ClientIP()
}
