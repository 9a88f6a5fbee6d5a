package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/admin-user-profile/pkg/helpers"
)

const CtxUserIDKey = "userID"

// accessToken reads the access_token cookie, falling back to an
// Authorization bearer header for non-browser clients.
func accessToken(c *gin.Context) string {
	if tok := helpers.CookieValue(c, helpers.AccessCookie); tok != "" {
		return tok
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
