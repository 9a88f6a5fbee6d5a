package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/admin-user-profile/internal/application"
	"github.com/oksasatya/admin-user-profile/internal/domain/entity"
	handlers "github.com/oksasatya/admin-user-profile/internal/interface/http"
	"github.com/oksasatya/admin-user-profile/internal/interface/middleware"
	"github.com/oksasatya/admin-user-profile/pkg/helpers"
)

//go:embed templates/*.html
var templateFS embed.FS

const ProfilePath = "/UserManagement/UserProfile/"

// ProfileService is what the dashboard needs from the user profile service.
type ProfileService interface {
	GetUserData(ctx context.Context, userID string) (*userapp.UserData, error)
	GetUserRole(ctx context.Context, userID string) (*entity.UserRole, error)
	ListRoles(ctx context.Context) ([]entity.Role, error)
	UpdateUserData(ctx context.Context, userID string, in userapp.UpdateUserDataInput) (*userapp.UserData, error)
}

// Authenticator signs admins in and out.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*userapp.LoginResponse, userapp.TokenPair, error)
	Logout(ctx context.Context, userID string)
}

type Dashboard struct {
	Profiles      ProfileService
	Auth          Authenticator
	JWT           *helpers.JWTManager
	Cookies       *helpers.SessionCookies
	Logger        *logrus.Logger
	MaxImageBytes int64

	tmpl *template.Template
}

func NewDashboard(profiles ProfileService, auth Authenticator, jwt *helpers.JWTManager, cookies *helpers.SessionCookies, maxImageBytes int64, logger *logrus.Logger) *Dashboard {
	logger = helpers.OrNop(logger)
	tmpl := template.Must(template.New("dashboard").Funcs(template.FuncMap{
		"default": func(fallback, v string) string {
			if strings.TrimSpace(v) == "" {
				return fallback
			}
			return v
		},
	}).ParseFS(templateFS, "templates/*.html"))
	return &Dashboard{
		Profiles:      profiles,
		Auth:          auth,
		JWT:           jwt,
		Cookies:       cookies,
		Logger:        logger,
		MaxImageBytes: maxImageBytes,
		tmpl:          tmpl,
	}
}

// formValues is the editable copy of the user shown in the form.
type formValues struct {
	FirstName    string
	LastName     string
	Email        string
	FullName     string
	ContactNo    string
	UserRole     string
	ProfileImage string
}

type profilePage struct {
	UserID  string
	Values  formValues
	Roles   []entity.Role
	Editing bool
	Updated bool
	Error   string

	ViewURL  string
	EditURL  string
	ImageURL string
}

func newProfilePage(userID string) *profilePage {
	view := ProfilePath + url.PathEscape(userID)
	return &profilePage{UserID: userID, ViewURL: view, EditURL: view + "?mode=edit"}
}

// load fills the page the way the form does on open: user data then role,
// and the role list independently. Failures are logged and leave the
// affected values empty.
func (d *Dashboard) load(ctx context.Context, p *profilePage) {
	log := d.Logger.WithField("user_id", p.UserID)
	if u, err := d.Profiles.GetUserData(ctx, p.UserID); err != nil {
		log.WithError(err).Error("error fetching user data")
	} else {
		p.Values = formValues{
			FirstName:    u.FirstName,
			LastName:     u.LastName,
			Email:        u.Email,
			FullName:     u.FullName,
			ContactNo:    u.ContactNo,
			ProfileImage: u.ProfileImage,
		}
		if ur, err := d.Profiles.GetUserRole(ctx, p.UserID); err != nil {
			log.WithError(err).Error("error fetching user role")
		} else {
			p.Values.UserRole = ur.RoleName
		}
	}

	roles, err := d.Profiles.ListRoles(ctx)
	if err != nil {
		log.WithError(err).Error("error fetching roles")
		return
	}
	p.Roles = roles
}

func (p *profilePage) finish() {
	if p.Values.ProfileImage != "" {
		p.ImageURL = "/images/users/" + url.PathEscape(p.Values.ProfileImage)
	}
}

func (d *Dashboard) render(c *gin.Context, status int, name string, data any) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Header("Cache-Control", "no-store")
	c.Status(status)
	if err := d.tmpl.ExecuteTemplate(c.Writer, name, data); err != nil {
		d.Logger.WithError(err).WithField("template", name).Error("render failed")
	}
}

// ShowProfile GET /UserManagement/UserProfile/:userId
func (d *Dashboard) ShowProfile(c *gin.Context) {
	p := newProfilePage(c.Param("userId"))
	p.Editing = c.Query("mode") == "edit"
	p.Updated = c.Query("updated") == "1"
	d.load(c.Request.Context(), p)
	p.finish()
	d.render(c, http.StatusOK, "profile", p)
}

// SaveProfile POST /UserManagement/UserProfile/:userId
func (d *Dashboard) SaveProfile(c *gin.Context) {
	userID := c.Param("userId")
	in, cleanup, err := handlers.BindUpdateForm(c, d.MaxImageBytes)
	defer cleanup()
	if err == nil {
		_, err = d.Profiles.UpdateUserData(c.Request.Context(), userID, in)
	}
	if err == nil {
		c.Redirect(http.StatusSeeOther, ProfilePath+url.PathEscape(userID)+"?updated=1")
		return
	}

	status, msg := handlers.StatusFor(err)
	d.Logger.WithError(err).WithField("user_id", userID).Error("error saving user data")

	// keep what the admin typed, minus the passwords
	p := newProfilePage(userID)
	p.Editing = true
	p.Error = msg
	d.load(c.Request.Context(), p)
	if c.Request.MultipartForm != nil || len(c.Request.PostForm) > 0 {
		p.Values.FirstName = c.PostForm("firstName")
		p.Values.LastName = c.PostForm("lastName")
		p.Values.Email = c.PostForm("email")
		p.Values.ContactNo = c.PostForm("contactNo")
		if r := c.PostForm("userRole"); r != "" {
			p.Values.UserRole = r
		}
	}
	p.finish()
	d.render(c, status, "profile", p)
}

// Home GET / sends the signed-in admin to their own profile.
func (d *Dashboard) Home(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	if uid == "" {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	c.Redirect(http.StatusSeeOther, ProfilePath+url.PathEscape(uid))
}

type loginPage struct {
	Next  string
	Email string
	Error string
}

// LoginForm GET /login
func (d *Dashboard) LoginForm(c *gin.Context) {
	d.render(c, http.StatusOK, "login", loginPage{Next: safeNext(c.Query("next"))})
}

// Login POST /login
func (d *Dashboard) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	next := safeNext(c.PostForm("next"))

	_, pair, err := d.Auth.Login(c.Request.Context(), email, c.PostForm("password"))
	if err != nil {
		status, msg := http.StatusUnauthorized, "Invalid email or password"
		if errors.Is(err, userapp.ErrForbidden) {
			status, msg = http.StatusForbidden, "This account is not an administrator"
		}
		d.Logger.WithError(err).WithField("email", email).Warn("dashboard login failed")
		d.render(c, status, "login", loginPage{Next: next, Email: email, Error: msg})
		return
	}
	d.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	c.Redirect(http.StatusSeeOther, next)
}

// Logout POST /logout
func (d *Dashboard) Logout(c *gin.Context) {
	if tok := helpers.CookieValue(c, helpers.AccessCookie); tok != "" && d.JWT != nil {
		if claims, err := d.JWT.ParseAccessToken(tok); err == nil {
			d.Auth.Logout(c.Request.Context(), claims.UserID)
		}
	}
	d.Cookies.Clear(c)
	c.Redirect(http.StatusSeeOther, "/login")
}

// safeNext only allows local redirects.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
