// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's identity. The API has no authentication;
// the chat transport in front of it passes the chat user's numeric id in
// X-User-ID and, optionally, the display name in X-User-Name.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"

	ctxKeyUserID   = "userID"   // int64
	ctxKeyUserName = "userName" // string
)

// Identity reads X-User-ID and X-User-Name into the Gin context. It never
// rejects a request; RequireUser does that for routes that need a user.
// A header that is not a non-zero integer is ignored. Group chats have
// negative ids, so the sign carries no meaning.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := strings.TrimSpace(c.GetHeader(HeaderUserID)); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id != 0 {
				c.Set(ctxKeyUserID, id)
			}
		}
		if name := strings.TrimSpace(c.GetHeader(HeaderUserName)); name != "" {
			c.Set(ctxKeyUserName, name)
		}
		c.Next()
	}
}

// RequireUser aborts with 401 when Identity found no usable user id.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "X-User-ID header must be a non-zero integer",
			})
			return
		}
		c.Next()
	}
}

// UserID returns the caller id stored by Identity.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id != 0
}

// UserName returns the display name stored by Identity, or "".
func UserName(c *gin.Context) string {
	v, _ := c.Get(ctxKeyUserName)
	s, _ := v.(string)
	return s
}
