package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	msgLoginRequired = "Please log in to continue"
	msgAdminRequired = "Administrator access required"
)

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success":  false,
		"message":  msgLoginRequired,
		"redirect": "login.html",
	})
}

func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := ActorFrom(c); !ok {
			unauthorized(c)
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)

		if !ok {
			unauthorized(c)
			return
		}
		if !actor.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": msgAdminRequired,
			})
			return
		}
		c.Next()
	}
}
