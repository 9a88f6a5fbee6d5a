package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/admin-user-profile/internal/domain/entity"
	repo "github.com/oksasatya/admin-user-profile/internal/domain/repository"
	"github.com/oksasatya/admin-user-profile/pkg/helpers"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("admin role required")
)

const sessionTTL = 24 * time.Hour

// AuthService signs admins into the dashboard.
type AuthService struct {
	Users  repo.UserRepository
	Roles  repo.RoleRepository
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Logger *logrus.Logger
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

type LoginResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

func NewAuthService(users repo.UserRepository, roles repo.RoleRepository, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger) *AuthService {
	logger = helpers.OrNop(logger)
	return &AuthService{Users: users, Roles: roles, JWT: jwt, Redis: rdb, Logger: logger}
}

// Authenticate validates email/password and the admin role without issuing tokens.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*entity.User, *entity.UserRole, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, nil, ErrInvalidCredentials
	}
	if err := s.RequireAdmin(ctx, u.ID); err != nil {
		return nil, nil, err
	}
	if helpers.NeedsRehash(u.Password) {
		s.rehash(ctx, u, password)
	}
	ur, _ := s.Roles.GetUserRole(ctx, u.ID)
	return u, ur, nil
}

// rehash upgrades a hash made with an outdated cost; failures only log.
func (s *AuthService) rehash(ctx context.Context, u *entity.User, password string) {
	hash, err := helpers.HashPassword(password)
	if err == nil {
		err = s.Users.UpdatePassword(ctx, u.ID, hash)
	}
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("password rehash failed")
		return
	}
	u.Password = hash
}

// RequireAdmin returns ErrForbidden unless the user holds the admin role.
func (s *AuthService) RequireAdmin(ctx context.Context, userID string) error {
	ur, err := s.Roles.GetUserRole(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && (ur == nil || ur.RoleName != entity.RoleAdmin)) {
		return ErrForbidden
	}
	return err
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *AuthService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		return TokenPair{}, err
	}

	if s.Redis != nil {
		fields := map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.FullName(),
			"sid":        sid,
			"logged_in":  true,
			"created_at": nowRFC3339(),
		}
		if rErr := helpers.SaveSession(ctx, s.Redis, u.ID, fields, sessionTTL); rErr != nil {
			s.Logger.WithError(rErr).WithField("user_id", u.ID).Warn("session save failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResponse, TokenPair, error) {
	u, ur, err := s.Authenticate(ctx, email, password)
	if err != nil {
		adminLogins.WithLabelValues("rejected").Inc()
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		adminLogins.WithLabelValues("error").Inc()
		return nil, TokenPair{}, err
	}
	adminLogins.WithLabelValues("ok").Inc()
	resp := &LoginResponse{UserID: u.ID, Email: u.Email, Name: u.FullName()}
	if ur != nil {
		resp.Role = ur.RoleName
	}
	return resp, pair, nil
}

// Refresh rotates the session id and both tokens.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	if err := s.RequireAdmin(ctx, u.ID); err != nil {
		return TokenPair{}, "", err
	}
	// Validate current session id matches the token's sid
	if s.Redis != nil {
		data, rErr := helpers.LoadSession(ctx, s.Redis, u.ID)
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, "", ErrInvalidCredentials
		}
	}
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	if s.Redis != nil {
		rotated := map[string]any{"sid": sid, "updated_at": nowRFC3339()}
		if rErr := helpers.SaveSession(ctx, s.Redis, u.ID, rotated, sessionTTL); rErr != nil {
			s.Logger.WithError(rErr).WithField("user_id", u.ID).Warn("session rotate failed")
		}
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, u.ID, nil
}

// Logout drops the Redis session so outstanding tokens stop working.
func (s *AuthService) Logout(ctx context.Context, userID string) {
	if s.Redis == nil || userID == "" {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, helpers.KeyUserSession(userID)); err != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("session delete failed")
	}
}
