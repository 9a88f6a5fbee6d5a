package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/admin-user-profile/internal/application"
	"github.com/oksasatya/admin-user-profile/internal/domain/entity"
	repo "github.com/oksasatya/admin-user-profile/internal/domain/repository"
	"github.com/oksasatya/admin-user-profile/internal/interface/middleware"
	"github.com/oksasatya/admin-user-profile/pkg/helpers"
	"github.com/oksasatya/admin-user-profile/pkg/response"
	"github.com/oksasatya/admin-user-profile/pkg/validation"
)

// multipart overhead allowed on top of the image limit
const formOverheadBytes = 1 << 20

// UserService is the part of the profile service the handlers call.
type UserService interface {
	GetUserData(ctx context.Context, userID string) (*userapp.UserData, error)
	GetUserRole(ctx context.Context, userID string) (*entity.UserRole, error)
	ListRoles(ctx context.Context) ([]entity.Role, error)
	UpdateUserData(ctx context.Context, userID string, in userapp.UpdateUserDataInput) (*userapp.UserData, error)
	SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error)
}

type UserHandler struct {
	Svc           UserService
	Images        repo.ImageStore
	Logger        *logrus.Logger
	MaxImageBytes int64
}

func NewUserHandler(svc UserService, images repo.ImageStore, maxImageBytes int64, logger *logrus.Logger) *UserHandler {
	logger = helpers.OrNop(logger)
	return &UserHandler{Svc: svc, Images: images, Logger: logger, MaxImageBytes: maxImageBytes}
}

// legacyUser is the userData object read by the profile page.
type legacyUser struct {
	UserID       string `json:"UserId"`
	FirstName    string `json:"FirstName"`
	LastName     string `json:"LastName"`
	FullName     string `json:"FullName"`
	Email        string `json:"Email"`
	ContactNo    string `json:"ContactNo"`
	ProfileImage string `json:"ProfileImage"`
}

type legacyUserRole struct {
	UserID   string `json:"UserId"`
	UserRole string `json:"UserRole"`
}

type legacyRole struct {
	RoleID   string `json:"RoleId"`
	RoleName string `json:"RoleName"`
}

func toLegacyUser(u *userapp.UserData) legacyUser {
	return legacyUser{
		UserID:       u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		FullName:     u.FullName,
		Email:        u.Email,
		ContactNo:    u.ContactNo,
		ProfileImage: u.ProfileImage,
	}
}

// UpdateUserDataForm is the multipart body sent by the profile page. The
// profileImage part is read separately since it may be a file or the current
// image name echoed back as text.
type UpdateUserDataForm struct {
	FirstName       string `form:"firstName" binding:"required,max=100"`
	LastName        string `form:"lastName" binding:"required,max=100"`
	Email           string `form:"email" binding:"required,email,max=254"`
	ContactNo       string `form:"contactNo" binding:"omitempty,max=32"`
	UserRole        string `form:"userRole" binding:"omitempty,max=64"`
	Password        string `form:"password" binding:"omitempty,max=128"`
	ConfirmPassword string `form:"confirmPassword" binding:"omitempty,max=128"`
}

// GetUserData GET /GetUserData/:userId
func (h *UserHandler) GetUserData(c *gin.Context) {
	u, err := h.Svc.GetUserData(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.legacyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userData": toLegacyUser(u)})
}

// GetUserRole GET /GetUserRole/:userId
func (h *UserHandler) GetUserRole(c *gin.Context) {
	uid := c.Param("userId")
	ur, err := h.Svc.GetUserRole(c.Request.Context(), uid)
	if err != nil {
		h.legacyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userRole": legacyUserRole{UserID: uid, UserRole: ur.RoleName}})
}

// Roles GET /Roles
func (h *UserHandler) Roles(c *gin.Context) {
	roles, err := h.Svc.ListRoles(c.Request.Context())
	if err != nil {
		h.legacyError(c, err)
		return
	}
	out := make([]legacyRole, 0, len(roles))
	for _, r := range roles {
		out = append(out, legacyRole{RoleID: r.ID, RoleName: r.Name})
	}
	c.JSON(http.StatusOK, out)
}

// UpdateUserData PUT /UpdateUserData/:userId
func (h *UserHandler) UpdateUserData(c *gin.Context) {
	in, cleanup, err := BindUpdateForm(c, h.MaxImageBytes)
	defer cleanup()
	if err != nil {
		h.legacyError(c, err)
		return
	}
	u, err := h.Svc.UpdateUserData(c.Request.Context(), c.Param("userId"), in)
	if err != nil {
		h.legacyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User Updated Successfully!", "userData": toLegacyUser(u)})
}

// BindError carries binding failures with per-field details.
type BindError struct {
	Details map[string]string
	Err     error
}

func (e *BindError) Error() string { return "invalid form: " + e.Err.Error() }
func (e *BindError) Unwrap() error { return e.Err }

// BindUpdateForm parses the profile multipart form into service input. The
// returned cleanup closes the uploaded file and must always be called.
func BindUpdateForm(c *gin.Context, maxImageBytes int64) (userapp.UpdateUserDataInput, func(), error) {
	cleanup := func() {}
	if maxImageBytes <= 0 {
		maxImageBytes = 5 << 20
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageBytes+formOverheadBytes)

	var form UpdateUserDataForm
	if err := c.ShouldBind(&form); err != nil {
		if tooLarge(err) {
			return userapp.UpdateUserDataInput{}, cleanup, userapp.ErrImageTooLarge
		}
		return userapp.UpdateUserDataInput{}, cleanup, &BindError{Details: validation.ToDetails(err), Err: err}
	}

	in := userapp.UpdateUserDataInput{
		FirstName:       form.FirstName,
		LastName:        form.LastName,
		Email:           form.Email,
		ContactNo:       form.ContactNo,
		UserRole:        form.UserRole,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
		ActorIP:         clientIP(c),
		ActorUserAgent:  c.GetHeader("User-Agent"),
	}

	fh, err := c.FormFile("profileImage")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// absent, or the current image name sent back as text
	case err != nil:
		return in, cleanup, &BindError{Details: map[string]string{"profileImage": "invalid file"}, Err: err}
	default:
		f, err := fh.Open()
		if err != nil {
			return in, cleanup, err
		}
		cleanup = func() { _ = f.Close() }
		in.Image = &userapp.ImageUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Reader:      f,
		}
	}
	return in, cleanup, nil
}

// StatusFor maps application errors to HTTP statuses and client messages.
func StatusFor(err error) (int, string) {
	var be *BindError
	switch {
	case errors.As(err, &be):
		return http.StatusBadRequest, "invalid payload"
	case errors.Is(err, userapp.ErrInvalidInput),
		errors.Is(err, userapp.ErrPasswordMismatch),
		errors.Is(err, userapp.ErrPasswordTooShort),
		errors.Is(err, userapp.ErrPasswordTooLong),
		errors.Is(err, userapp.ErrRoleNotFound):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, userapp.ErrUserNotFound),
		errors.Is(err, userapp.ErrRoleNotAssigned):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, userapp.ErrEmailTaken):
		return http.StatusConflict, err.Error()
	case errors.Is(err, userapp.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, userapp.ErrImageType):
		return http.StatusUnsupportedMediaType, err.Error()
	}
	return http.StatusInternalServerError, "internal server error"
}

func (h *UserHandler) legacyError(c *gin.Context, err error) {
	status, msg := StatusFor(err)
	entry := h.Logger.WithError(err).WithFields(logrus.Fields{
		"path":       c.FullPath(),
		"user_id":    c.Param("userId"),
		"request_id": c.GetString(response.RequestIDKey),
	})
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Warn("request rejected")
	}

	var details map[string]string
	var be *BindError
	if errors.As(err, &be) {
		details = be.Details
	}
	response.Legacy(c, status, msg, details)
}

// ProfileImage GET /images/users/:name
func (h *UserHandler) ProfileImage(c *gin.Context) {
	rc, ct, err := h.Images.Open(c.Request.Context(), c.Param("name"))
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			h.Logger.WithError(err).WithField("image", c.Param("name")).Warn("open profile image failed")
		}
		c.Status(http.StatusNotFound)
		return
	}
	defer func() { _ = rc.Close() }()
	c.Header("Cache-Control", "public, max-age=86400")
	c.Header("X-Content-Type-Options", "nosniff")
	c.DataFromReader(http.StatusOK, -1, ct, rc, nil)
}

// SearchUsers GET /api/users/search?q=&size=
func (h *UserHandler) SearchUsers(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query", map[string]string{"q": "is required"})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		h.Logger.WithError(err).WithField("q", q).Error("search users failed")
		response.Error[any](c, http.StatusBadGateway, "search unavailable", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "users", map[string]any{"count": len(hits)})
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}

func clientIP(c *gin.Context) string {
	if ip := c.GetString(middleware.CtxRealIPKey); ip != "" {
		return ip
	}
	return c.ClientIP()
}
