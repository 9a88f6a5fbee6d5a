// Package profileform holds the state of the admin user-profile form: the
// loaded user, an editable copy of its values, the role list and the
// viewing/editing mode. It drives a Backend such as *client.Client.
package profileform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/admin-user-profile/pkg/client"
)

const UpdatedNotice = "User Updated Successfully!"

var (
	ErrNotEditing   = errors.New("form is not in edit mode")
	ErrUnknownField = errors.New("unknown form field")
)

// Backend is the REST surface the form talks to.
type Backend interface {
	GetUserData(ctx context.Context, userID string) (*client.UserData, error)
	GetUserRole(ctx context.Context, userID string) (*client.UserRole, error)
	Roles(ctx context.Context) ([]client.Role, error)
	UpdateUserData(ctx context.Context, userID string, req client.UpdateRequest) (string, *client.UserData, error)
}

// Values is the editable copy of the user. Passwords always start empty.
type Values struct {
	FirstName       string
	LastName        string
	Email           string
	FullName        string
	Password        string
	ConfirmPassword string
	ContactNo       string
	UserRole        string
	ProfileImage    string
}

type Form struct {
	UserID  string
	User    *client.UserData
	Values  Values
	Roles   []client.Role
	Editing bool
	Notice  string

	backend Backend
	logger  *logrus.Logger
	loaded  Values
	image   *client.Image
}

func New(backend Backend, userID string, logger *logrus.Logger) *Form {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Form{UserID: userID, backend: backend, logger: logger}
}

// Load fetches the user data then its role; both must succeed before the
// values are replaced. The role list is fetched independently. Failures are
// logged and leave the previous state in place.
func (f *Form) Load(ctx context.Context) error {
	log := f.logger.WithField("user_id", f.UserID)
	var errs []error

	if err := f.loadUser(ctx); err != nil {
		log.WithError(err).Error("error fetching user data")
		errs = append(errs, err)
	}
	roles, err := f.backend.Roles(ctx)
	if err != nil {
		log.WithError(err).Error("error fetching roles")
		errs = append(errs, fmt.Errorf("roles: %w", err))
	} else {
		f.Roles = roles
	}
	return errors.Join(errs...)
}

func (f *Form) loadUser(ctx context.Context) error {
	u, err := f.backend.GetUserData(ctx, f.UserID)
	if err != nil {
		return fmt.Errorf("user data: %w", err)
	}
	ur, err := f.backend.GetUserRole(ctx, f.UserID)
	if err != nil {
		return fmt.Errorf("user role: %w", err)
	}
	f.User = u
	f.Values = Values{
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		FullName:     u.FullName,
		ContactNo:    u.ContactNo,
		UserRole:     ur.UserRole,
		ProfileImage: u.ProfileImage,
	}
	f.loaded = f.Values
	f.image = nil
	return nil
}

func (f *Form) Edit() {
	f.Editing = true
	f.Notice = ""
}

// Cancel leaves edit mode and discards unsaved changes.
func (f *Form) Cancel() {
	f.Editing = false
	f.Values = f.loaded
	f.image = nil
}

// Set updates one field by its form name, e.g. "firstName".
func (f *Form) Set(field, value string) error {
	switch field {
	case "firstName":
		f.Values.FirstName = value
	case "lastName":
		f.Values.LastName = value
	case "email":
		f.Values.Email = value
	case "contactNo":
		f.Values.ContactNo = value
	case "userRole":
		f.Values.UserRole = value
	case "password":
		f.Values.Password = value
	case "confirmPassword":
		f.Values.ConfirmPassword = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// SetImage picks a new profile image to upload on the next Save.
func (f *Form) SetImage(filename string, r io.Reader) {
	f.image = &client.Image{Filename: filename, Body: r}
}

// HasNewImage reports whether Save will upload a file.
func (f *Form) HasNewImage() bool { return f.image != nil }

// Save sends the form. On success it leaves edit mode, sets Notice and
// reloads; on failure the error is logged and the typed values are kept.
func (f *Form) Save(ctx context.Context) error {
	if !f.Editing {
		return ErrNotEditing
	}
	req := client.UpdateRequest{
		FirstName:       f.Values.FirstName,
		LastName:        f.Values.LastName,
		Email:           f.Values.Email,
		ContactNo:       f.Values.ContactNo,
		UserRole:        f.Values.UserRole,
		Password:        f.Values.Password,
		ConfirmPassword: f.Values.ConfirmPassword,
		ProfileImage:    f.Values.ProfileImage,
		Image:           f.image,
	}
	msg, _, err := f.backend.UpdateUserData(ctx, f.UserID, req)
	if err != nil {
		f.logger.WithError(err).WithField("user_id", f.UserID).Error("error saving user data")
		return err
	}
	if msg == "" {
		msg = UpdatedNotice
	}
	f.Editing = false
	f.Notice = msg
	// the reload replaces the values; a failed reload is already logged
	_ = f.Load(ctx)
	f.Values.Password, f.Values.ConfirmPassword = "", ""
	f.image = nil
	return nil
}

// ProfileImageURL is the path the form shows the current image from.
func (f *Form) ProfileImageURL() string {
	if f.Values.ProfileImage == "" {
		return ""
	}
	return "/images/users/" + url.PathEscape(f.Values.ProfileImage)
}

// RoleOptions lists the select options: the current role first, then every
// other role once.
func (f *Form) RoleOptions() []string {
	out := make([]string, 0, len(f.Roles)+1)
	seen := map[string]bool{}
	if f.Values.UserRole != "" {
		out = append(out, f.Values.UserRole)
		seen[f.Values.UserRole] = true
	}
	for _, r := range f.Roles {
		if !seen[r.RoleName] {
			seen[r.RoleName] = true
			out = append(out, r.RoleName)
		}
	}
	return out
}
