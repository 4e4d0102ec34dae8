package api

import (
	"net/http"
	"strconv"
	"time"

	"karupatti-shop/internal/util"

	"github.com/gin-gonic/gin"
)

const (
	headerSessionToken = "X-Session-Token"
	headerUserID       = "X-User-ID"
	headerAdminID      = "X-Admin-ID"
)

// sessionTokenRequired rejects requests without a cart session token. The
// token keys the server-side cart aggregate; the edge issues it before the
// first cart call.
func sessionTokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(headerSessionToken)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing session token",
			})
			return
		}
		c.Set("session_token", token)
		c.Next()
	}
}

// userRequired extracts the authenticated user id set by the edge proxy
func userRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.ParseInt(c.GetHeader(headerUserID), 10, 64)
		if err != nil || userID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing user identity",
			})
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

// adminRequired extracts the admin identity set by the edge proxy
func adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, err := strconv.ParseInt(c.GetHeader(headerAdminID), 10, 64)
		if err != nil || adminID <= 0 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Admin access required",
			})
			return
		}
		c.Set("admin_id", adminID)
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	return c.GetString("session_token")
}

func userID(c *gin.Context) int64 {
	return c.GetInt64("user_id")
}

func adminID(c *gin.Context) int64 {
	return c.GetInt64("admin_id")
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		util.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
