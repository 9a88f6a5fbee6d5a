package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/admin-user-profile/config"
	"github.com/oksasatya/admin-user-profile/internal/domain/entity"
	repo "github.com/oksasatya/admin-user-profile/internal/domain/repository"
	"github.com/oksasatya/admin-user-profile/pkg/helpers"
	"github.com/oksasatya/admin-user-profile/pkg/mailer"
	mailtpl "github.com/oksasatya/admin-user-profile/pkg/mailer/templates"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrRoleNotFound     = errors.New("role not found")
	ErrRoleNotAssigned  = errors.New("user has no role")
	ErrEmailTaken       = errors.New("email already in use")
	ErrPasswordMismatch = errors.New("password and confirmPassword do not match")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
	ErrInvalidInput     = errors.New("invalid input")
	ErrImageTooLarge    = errors.New("profile image too large")
	ErrImageType        = errors.New("unsupported profile image type")
)

const (
	minPasswordLen       = 8
	defaultMaxImageBytes = 5 << 20
)

// JobPublisher enqueues background jobs; *helpers.RabbitPublisher satisfies it.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

type Service struct {
	Users         repo.UserRepository
	Roles         repo.RoleRepository
	Tx            repo.TxManager
	Images        repo.ImageStore
	Redis         *redis.Client
	CacheTTL      time.Duration
	Logger        *logrus.Logger
	MaxImageBytes int64

	ES           *elasticsearch.Client
	ESUsersIndex string

	Pub JobPublisher
	Cfg *config.Config

	now func() time.Time
}

func NewService(users repo.UserRepository, roles repo.RoleRepository, tx repo.TxManager, images repo.ImageStore, rdb *redis.Client, cacheTTL time.Duration, logger *logrus.Logger) *Service {
	return &Service{
		Users:         users,
		Roles:         roles,
		Tx:            tx,
		Images:        images,
		Redis:         rdb,
		CacheTTL:      cacheTTL,
		Logger:        logger,
		MaxImageBytes: defaultMaxImageBytes,
		now:           time.Now,
	}
}

// WithSearch enables indexing and search through Elasticsearch.
func (s *Service) WithSearch(es *elasticsearch.Client, index string) *Service {
	s.ES = es
	s.ESUsersIndex = index
	return s
}

// WithNotifications enables profile_updated emails through the job queue.
func (s *Service) WithNotifications(pub JobPublisher, cfg *config.Config) *Service {
	s.Pub = pub
	s.Cfg = cfg
	return s
}

// UserData is the profile view served to the dashboard. It never carries the
// password hash, so it is safe to cache.
type UserData struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	ContactNo    string    `json:"contact_no"`
	ProfileImage string    `json:"profile_image"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toUserData(u *entity.User) *UserData {
	return &UserData{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		FullName:     u.FullName(),
		Email:        u.Email,
		ContactNo:    u.ContactNo,
		ProfileImage: u.ProfileImage,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (s *Service) log() *logrus.Logger {
	s.Logger = helpers.OrNop(s.Logger)
	return s.Logger
}

// validUserID reports whether id can name a user row; ids are uuids, and
// anything else would fail in the database instead of simply not matching.
func validUserID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *Service) getUser(ctx context.Context, userID string) (*entity.User, error) {
	if !validUserID(userID) {
		return nil, ErrUserNotFound
	}
	u, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && u == nil) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserData returns the profile view, reading through the Redis cache.
func (s *Service) GetUserData(ctx context.Context, userID string) (*UserData, error) {
	if !validUserID(userID) {
		return nil, ErrUserNotFound
	}
	if s.Redis != nil {
		var cached UserData
		found, err := helpers.RedisGetJSON(ctx, s.Redis, helpers.KeyUserProfile(userID), &cached)
		if err != nil {
			s.log().WithError(err).WithField("user_id", userID).Warn("profile cache read failed")
		} else if found {
			return &cached, nil
		}
	}

	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	data := toUserData(u)

	if s.Redis != nil && s.CacheTTL > 0 {
		if err := helpers.RedisSetJSON(ctx, s.Redis, helpers.KeyUserProfile(userID), data, s.CacheTTL); err != nil {
			s.log().WithError(err).WithField("user_id", userID).Warn("profile cache write failed")
		}
	}
	return data, nil
}

// GetUserRole returns the user's single role assignment.
func (s *Service) GetUserRole(ctx context.Context, userID string) (*entity.UserRole, error) {
	if !validUserID(userID) {
		return nil, ErrUserNotFound
	}
	ur, err := s.Roles.GetUserRole(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		if _, uerr := s.getUser(ctx, userID); uerr != nil {
			return nil, uerr
		}
		return nil, ErrRoleNotAssigned
	}
	if err != nil {
		return nil, err
	}
	return ur, nil
}

func (s *Service) ListRoles(ctx context.Context) ([]entity.Role, error) {
	return s.Roles.List(ctx)
}

// ImageUpload is a new profile image chosen in the form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// UpdateUserDataInput mirrors the multipart form of the profile page.
// Empty Password keeps the current one, empty UserRole keeps the current role
// and a nil Image keeps the current profile image.
type UpdateUserDataInput struct {
	FirstName       string
	LastName        string
	Email           string
	ContactNo       string
	UserRole        string
	Password        string
	ConfirmPassword string
	Image           *ImageUpload

	// Request metadata of the admin making the change, used in the notification.
	ActorIP        string
	ActorUserAgent string
}

func (in *UpdateUserDataInput) normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.ContactNo = strings.TrimSpace(in.ContactNo)
	in.UserRole = strings.TrimSpace(in.UserRole)
}

func (in *UpdateUserDataInput) validate() error {
	switch {
	case in.FirstName == "":
		return fmt.Errorf("%w: firstName is required", ErrInvalidInput)
	case in.LastName == "":
		return fmt.Errorf("%w: lastName is required", ErrInvalidInput)
	case in.Email == "" || !strings.Contains(in.Email, "@"):
		return fmt.Errorf("%w: email must be a valid email", ErrInvalidInput)
	}
	if in.Password != "" || in.ConfirmPassword != "" {
		if in.Password != in.ConfirmPassword {
			return ErrPasswordMismatch
		}
		if len(in.Password) < minPasswordLen {
			return ErrPasswordTooShort
		}
		if len(in.Password) > helpers.MaxPasswordBytes {
			return ErrPasswordTooLong
		}
	}
	return nil
}

// UpdateUserData applies the profile form to a user. The user row and role
// assignment change in one transaction; cache, search index and email
// notification follow on a best-effort basis.
func (s *Service) UpdateUserData(ctx context.Context, userID string, in UpdateUserDataInput) (*UserData, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		profileUpdates.WithLabelValues("invalid").Inc()
		return nil, err
	}

	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(u.Email, in.Email) {
		other, err := s.Users.GetByEmail(ctx, in.Email)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		if other != nil && other.ID != u.ID {
			profileUpdates.WithLabelValues("conflict").Inc()
			return nil, ErrEmailTaken
		}
	}

	var newRole *entity.Role
	if in.UserRole != "" {
		current, err := s.Roles.GetUserRole(ctx, userID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		if current == nil || current.RoleName != in.UserRole {
			role, err := s.Roles.GetByName(ctx, in.UserRole)
			if errors.Is(err, repo.ErrNotFound) {
				profileUpdates.WithLabelValues("invalid").Inc()
				return nil, ErrRoleNotFound
			}
			if err != nil {
				return nil, err
			}
			newRole = role
		}
	}

	changes := map[string]string{}
	if u.FirstName != in.FirstName {
		changes["First Name"] = in.FirstName
	}
	if u.LastName != in.LastName {
		changes["Last Name"] = in.LastName
	}
	if u.Email != in.Email {
		changes["Email"] = in.Email
	}
	if u.ContactNo != in.ContactNo {
		changes["Contact Number"] = in.ContactNo
	}
	if newRole != nil {
		changes["User Role"] = newRole.Name
	}
	oldEmail := u.Email

	if in.Password != "" {
		hash, err := helpers.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		u.Password = hash
		changes["Password"] = "changed"
	}

	previousImage := u.ProfileImage
	storedImage := ""
	if in.Image != nil {
		name, err := s.storeImage(ctx, userID, in.Image)
		if err != nil {
			profileUpdates.WithLabelValues("invalid").Inc()
			return nil, err
		}
		storedImage = name
		u.ProfileImage = name
		changes["Profile Image"] = "updated"
	}

	u.FirstName = in.FirstName
	u.LastName = in.LastName
	u.Email = in.Email
	u.ContactNo = in.ContactNo

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Users.Update(ctx, u); err != nil {
			return err
		}
		if newRole != nil {
			return s.Roles.AssignUserRole(ctx, u.ID, newRole.ID)
		}
		return nil
	})
	if err != nil {
		// nothing references the new upload once the transaction is gone
		s.discardImage(ctx, storedImage)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		profileUpdates.WithLabelValues("error").Inc()
		s.log().WithError(err).WithField("user_id", userID).Error("update user data failed")
		return nil, err
	}
	profileUpdates.WithLabelValues("ok").Inc()
	if storedImage != "" && previousImage != "" && previousImage != storedImage {
		s.discardImage(ctx, previousImage)
	}

	roleName := ""
	if newRole != nil {
		roleName = newRole.Name
	}
	s.afterUpdate(ctx, u, roleName, oldEmail, changes, in.ActorIP, in.ActorUserAgent)
	return toUserData(u), nil
}

func (s *Service) storeImage(ctx context.Context, userID string, img *ImageUpload) (string, error) {
	if s.Images == nil {
		return "", errors.New("image store not configured")
	}
	declared, ok := helpers.ImageContentType(img.Filename, img.ContentType)
	if !ok {
		return "", ErrImageType
	}
	limit := s.MaxImageBytes
	if limit <= 0 {
		limit = defaultMaxImageBytes
	}
	if img.Size > limit {
		return "", ErrImageTooLarge
	}
	// the stored type comes from the bytes; the declared one only gates the upload
	ct, body, err := helpers.SniffImage(img.Reader)
	if errors.Is(err, helpers.ErrNotImage) {
		return "", ErrImageType
	}
	if err != nil {
		return "", fmt.Errorf("read profile image: %w", err)
	}
	if ct != declared {
		s.log().WithFields(logrus.Fields{"user_id": userID, "declared": declared, "detected": ct}).Debug("image type differs from declared")
	}
	name := uuid.NewString() + helpers.ImageExt(ct)
	// Size may be unknown or understated, so cap the stream as well.
	lr := &limitedReader{R: body, N: limit}
	if err := s.Images.Save(ctx, name, ct, lr); err != nil {
		s.discardImage(ctx, name)
		if lr.exceeded {
			return "", ErrImageTooLarge
		}
		return "", fmt.Errorf("store profile image: %w", err)
	}
	if lr.exceeded {
		s.discardImage(ctx, name)
		return "", ErrImageTooLarge
	}
	s.log().WithFields(logrus.Fields{"user_id": userID, "image": name, "content_type": ct}).Info("profile image stored")
	return name, nil
}

// discardImage removes an image nothing points at. It outlives a cancelled
// request, and failures are only logged.
func (s *Service) discardImage(ctx context.Context, name string) {
	if name == "" || s.Images == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.Images.Delete(ctx, name); err != nil && !errors.Is(err, repo.ErrNotFound) {
		s.log().WithError(err).WithField("image", name).Warn("profile image cleanup failed")
	}
}

// limitedReader fails once more than N bytes are read.
type limitedReader struct {
	R        io.Reader
	N        int64
	exceeded bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.R.Read(p)
	l.N -= int64(n)
	if l.N < 0 {
		l.exceeded = true
		return n, ErrImageTooLarge
	}
	return n, err
}

func (s *Service) afterUpdate(ctx context.Context, u *entity.User, roleName, oldEmail string, changes map[string]string, ip, ua string) {
	if s.Redis != nil {
		if err := helpers.RedisDel(ctx, s.Redis, helpers.KeyUserProfile(u.ID)); err != nil {
			s.log().WithError(err).WithField("user_id", u.ID).Warn("profile cache invalidation failed")
		}
		// an admin editing their own profile sees the new name in the session
		if _, err := helpers.TouchSession(ctx, s.Redis, u.ID, map[string]any{
			"name":       u.FullName(),
			"email":      u.Email,
			"updated_at": nowRFC3339(),
		}); err != nil {
			s.log().WithError(err).WithField("user_id", u.ID).Warn("session refresh failed")
		}
	}

	if roleName == "" {
		if ur, err := s.Roles.GetUserRole(ctx, u.ID); err == nil && ur != nil {
			roleName = ur.RoleName
		}
	}
	_ = s.indexUser(ctx, u, roleName)

	s.notifyProfileUpdated(ctx, u, oldEmail, changes, ip, ua)
}

func (s *Service) notifyProfileUpdated(ctx context.Context, u *entity.User, oldEmail string, changes map[string]string, ip, ua string) {
	if s.Pub == nil || s.Cfg == nil || !s.Cfg.MailSendEnabled || len(changes) == 0 {
		return
	}
	recipients := []string{u.Email}
	if oldEmail != "" && !strings.EqualFold(oldEmail, u.Email) {
		recipients = append(recipients, oldEmail)
	}
	for _, to := range recipients {
		data := mailtpl.NewProfileUpdatedData(s.Cfg, u.FullName(), u.Email, changes,
			mailtpl.WithTime(s.clock()),
			mailtpl.WithRecipient(to),
			mailtpl.WithIP(ip),
			mailtpl.WithUserAgent(ua),
			mailtpl.WithProfileURL(strings.TrimRight(s.Cfg.DashboardURL, "/")+"/"+u.ID),
		)
		job := mailer.TemplateJob(to, mailtpl.ProfileUpdated, data)
		if err := s.Pub.PublishJSON(ctx, job); err != nil {
			s.log().WithError(err).WithField("user_id", u.ID).Warn("publish profile_updated failed")
		}
	}
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func (s *Service) indexUser(ctx context.Context, u *entity.User, roleName string) error {
	if s.ES == nil || s.ESUsersIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":            u.ID,
		"email":         u.Email,
		"first_name":    u.FirstName,
		"last_name":     u.LastName,
		"full_name":     u.FullName(),
		"contact_no":    u.ContactNo,
		"profile_image": u.ProfileImage,
		"role":          roleName,
		"created_at":    u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":    u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.log().WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.log().WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
	return nil
}

// SearchUsers performs a multi_match search on email and name fields.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "full_name^2", "first_name", "last_name", "contact_no"},
			},
		},
		"size": clampSearchSize(size),
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESUsersIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.IsError() {
		return nil, fmt.Errorf("search users: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func clampSearchSize(size int) int {
	if size <= 0 || size > 50 {
		return 10
	}
	return size
}
