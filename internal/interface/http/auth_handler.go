package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/admin-user-profile/internal/application"
	"github.com/oksasatya/admin-user-profile/internal/interface/middleware"
	"github.com/oksasatya/admin-user-profile/pkg/helpers"
	"github.com/oksasatya/admin-user-profile/pkg/response"
	"github.com/oksasatya/admin-user-profile/pkg/validation"
)

// AuthService issues and revokes admin sessions.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*userapp.LoginResponse, userapp.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (userapp.TokenPair, string, error)
	Logout(ctx context.Context, userID string)
}

type AuthHandler struct {
	Svc     AuthService
	JWT     *helpers.JWTManager
	Logger  *logrus.Logger
	Cookies *helpers.SessionCookies
}

func NewAuthHandler(svc AuthService, jwt *helpers.JWTManager, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	logger = helpers.OrNop(logger)
	return &AuthHandler{Svc: svc, JWT: jwt, Logger: logger, Cookies: helpers.NewSessionCookies(cookieDomain, cookieSecure)}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

// Login POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, userapp.ErrForbidden):
		h.Logger.WithField("email", req.Email).WithField("ip", clientIP(c)).Warn("non-admin login attempt")
		response.Error[any](c, http.StatusForbidden, "admin role required", nil)
		return
	case err != nil:
		response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, res, "login successful", map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry})
}

// Refresh POST /api/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh := helpers.CookieValue(c, helpers.RefreshCookie)
	if refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, _, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		h.Cookies.Clear(c)
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, map[string]any{"refreshed": true}, "token refreshed", map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry})
}

// Logout POST /api/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	if uid == "" {
		// logout is allowed with an expired access token
		if tok := helpers.CookieValue(c, helpers.RefreshCookie); tok != "" && h.JWT != nil {
			if claims, err := h.JWT.ParseRefreshToken(tok); err == nil {
				uid = claims.UserID
			}
		}
	}
	h.Svc.Logout(c.Request.Context(), uid)
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}
