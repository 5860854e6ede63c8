package middlewares

import (
	"github.com/gin-gonic/gin"
)

const defaultCSP = "default-src 'none'; frame-ancestors 'none'"

func SecurityHeaders(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("X-XSS-Protection", "0")
		c.Header("Content-Security-Policy", defaultCSP)
		// responses carry per-user booking data
		c.Header("Cache-Control", "no-store")
		if secure {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
