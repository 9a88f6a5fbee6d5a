package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/admin-user-profile/pkg/helpers"
	"github.com/oksasatya/admin-user-profile/pkg/response"
)

// AdminChecker reports whether a user may use the dashboard.
type AdminChecker interface {
	RequireAdmin(ctx context.Context, userID string) error
}

// FailFunc writes the response for a rejected request.
type FailFunc func(c *gin.Context, status int, message string)

// JSONFail answers with the API envelope.
func JSONFail(c *gin.Context, status int, message string) {
	response.Error[any](c, status, message, nil)
}

// LegacyFail answers with the flat {"error": ...} body of the legacy routes.
func LegacyFail(c *gin.Context, status int, message string) {
	response.Legacy(c, status, message, nil)
}

// RedirectToLogin sends browsers to the login page, remembering where they were going.
func RedirectToLogin(loginPath string) FailFunc {
	return func(c *gin.Context, status int, message string) {
		if status == http.StatusForbidden {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Redirect(http.StatusSeeOther, loginPath+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

// Auth validates the access token and, when rdb is set, ensures the session
// recorded in Redis is still the one the token was issued for. When admins is
// set the user must also hold the admin role. On success userID, userName and
// userEmail are set in the Gin context.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager, admins AdminChecker, fail FailFunc) gin.HandlerFunc {
	if fail == nil {
		fail = JSONFail
	}
	return func(c *gin.Context) {
		token := accessToken(c)
		if token == "" {
			fail(c, http.StatusUnauthorized, "missing access token")
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			fail(c, http.StatusUnauthorized, "invalid access token")
			return
		}

		c.Set(CtxUserIDKey, claims.UserID)
		if rdb != nil {
			data, err := helpers.LoadSession(c.Request.Context(), rdb, claims.UserID)
			if err != nil || len(data) == 0 || data["sid"] != claims.SessionID {
				fail(c, http.StatusUnauthorized, "session not found")
				return
			}
			c.Set("userName", data["name"])
			c.Set("userEmail", data["email"])
		}

		if admins != nil {
			if err := admins.RequireAdmin(c.Request.Context(), claims.UserID); err != nil {
				fail(c, http.StatusForbidden, "admin role required")
				return
			}
		}
		c.Next()
	}
}

// Optional returns a pass-through handler when enabled is false.
func Optional(enabled bool, h gin.HandlerFunc) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return h
}
