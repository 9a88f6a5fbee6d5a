package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userapp "github.com/oksasatya/admin-user-profile/internal/application"
	"github.com/oksasatya/admin-user-profile/internal/domain/entity"
	repo "github.com/oksasatya/admin-user-profile/internal/domain/repository"
	"github.com/oksasatya/admin-user-profile/pkg/helpers"
	"github.com/oksasatya/admin-user-profile/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

type fakeUserService struct {
	user      *userapp.UserData
	role      *entity.UserRole
	roles     []entity.Role
	err       error
	updateErr error
	hits      []map[string]any

	got      *userapp.UpdateUserDataInput
	gotImage []byte
}

func (f *fakeUserService) GetUserData(context.Context, string) (*userapp.UserData, error) {
	return f.user, f.err
}

func (f *fakeUserService) GetUserRole(context.Context, string) (*entity.UserRole, error) {
	return f.role, f.err
}

func (f *fakeUserService) ListRoles(context.Context) ([]entity.Role, error) {
	return f.roles, f.err
}

func (f *fakeUserService) UpdateUserData(_ context.Context, _ string, in userapp.UpdateUserDataInput) (*userapp.UserData, error) {
	f.got = &in
	if in.Image != nil {
		f.gotImage, _ = io.ReadAll(in.Image.Reader)
	}
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	u := *f.user
	u.FirstName = in.FirstName
	return &u, nil
}

func (f *fakeUserService) SearchUsers(context.Context, string, int) ([]map[string]any, error) {
	return f.hits, f.err
}

type memImages map[string][]byte

func (m memImages) Save(_ context.Context, name, _ string, r io.Reader) error {
	b, err := io.ReadAll(r)
	m[name] = b
	return err
}

func (m memImages) Open(_ context.Context, name string) (io.ReadCloser, string, error) {
	b, ok := m[name]
	if !ok {
		return nil, "", repo.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), "image/png", nil
}

func (m memImages) Delete(_ context.Context, name string) error {
	if _, ok := m[name]; !ok {
		return repo.ErrNotFound
	}
	delete(m, name)
	return nil
}

func newUserRouter(svc *fakeUserService, images memImages) *gin.Engine {
	h := NewUserHandler(svc, images, 64, nil)
	r := gin.New()
	r.GET("/GetUserData/:userId", h.GetUserData)
	r.GET("/GetUserRole/:userId", h.GetUserRole)
	r.GET("/Roles", h.Roles)
	r.PUT("/UpdateUserData/:userId", h.UpdateUserData)
	r.GET("/images/users/:name", h.ProfileImage)
	r.GET("/api/users/search", h.SearchUsers)
	return r
}

func newUserSvc() *fakeUserService {
	return &fakeUserService{
		user:  &userapp.UserData{ID: "u1", FirstName: "Ada", LastName: "Lovelace", FullName: "Ada Lovelace", Email: "ada@example.com", ContactNo: "0711", ProfileImage: "ada.png"},
		role:  &entity.UserRole{UserID: "u1", RoleID: "r1", RoleName: "admin"},
		roles: []entity.Role{{ID: "r1", Name: "admin"}, {ID: "r2", Name: "user"}},
	}
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLegacyReadShapes(t *testing.T) {
	r := newUserRouter(newUserSvc(), memImages{})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/GetUserData/u1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userData":{"UserId":"u1","FirstName":"Ada","LastName":"Lovelace","FullName":"Ada Lovelace","Email":"ada@example.com","ContactNo":"0711","ProfileImage":"ada.png"}}`, w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/GetUserRole/u1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userRole":{"UserId":"u1","UserRole":"admin"}}`, w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/Roles", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"RoleId":"r1","RoleName":"admin"},{"RoleId":"r2","RoleName":"user"}]`, w.Body.String())
}

func TestLegacyReadErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{userapp.ErrUserNotFound, http.StatusNotFound},
		{userapp.ErrRoleNotAssigned, http.StatusNotFound},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		svc := newUserSvc()
		svc.err = tt.err
		w := serve(newUserRouter(svc, memImages{}), httptest.NewRequest(http.MethodGet, "/GetUserRole/u1", nil))
		assert.Equal(t, tt.status, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.NotEmpty(t, body["error"])
		assert.NotContains(t, w.Body.String(), "db down")
	}
}

func TestLegacyMalformedUserID(t *testing.T) {
	// ids are rejected before any repository is consulted
	h := NewUserHandler(userapp.NewService(nil, nil, nil, nil, nil, 0, nil), memImages{}, 64, nil)
	r := gin.New()
	r.GET("/GetUserData/:userId", h.GetUserData)
	r.GET("/GetUserRole/:userId", h.GetUserRole)

	for _, path := range []string{"/GetUserData/abc", "/GetUserRole/42"} {
		w := serve(r, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.JSONEq(t, `{"error":"user not found"}`, w.Body.String(), path)
	}
}

type part struct {
	name, value, filename, contentType string
}

// profileForm builds the body in the order the profile page appends fields.
func profileForm(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		if p.filename == "" {
			require.NoError(t, mw.WriteField(p.name, p.value))
			continue
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+p.name+`"; filename="`+p.filename+`"`)
		h.Set("Content-Type", p.contentType)
		fw, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = fw.Write([]byte(p.value))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func baseParts() []part {
	return []part{
		{name: "firstName", value: "Augusta"},
		{name: "lastName", value: "Lovelace"},
		{name: "email", value: "ada@example.com"},
		{name: "contactNo", value: ""},
		{name: "userRole", value: "user"},
		{name: "password", value: ""},
		{name: "confirmPassword", value: ""},
	}
}

func putUpdate(t *testing.T, r http.Handler, parts ...part) *httptest.ResponseRecorder {
	body, ct := profileForm(t, parts...)
	req := httptest.NewRequest(http.MethodPut, "/UpdateUserData/u1", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("User-Agent", "profile-test")
	return serve(r, req)
}

func TestUpdateUserData(t *testing.T) {
	svc := newUserSvc()
	r := newUserRouter(svc, memImages{})

	w := putUpdate(t, r, append(baseParts(), part{name: "profileImage", value: "ada.png"})...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Message  string         `json:"message"`
		UserData map[string]any `json:"userData"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "User Updated Successfully!", body.Message)
	assert.Equal(t, "Augusta", body.UserData["FirstName"])

	require.NotNil(t, svc.got)
	assert.Equal(t, "user", svc.got.UserRole)
	assert.Equal(t, "", svc.got.ContactNo)
	assert.Equal(t, "profile-test", svc.got.ActorUserAgent)
	assert.Nil(t, svc.got.Image, "text profileImage is not an upload")
}

func TestUpdateUserDataWithImage(t *testing.T) {
	svc := newUserSvc()
	r := newUserRouter(svc, memImages{})

	w := putUpdate(t, r, append(baseParts(), part{name: "profileImage", value: "PNGDATA", filename: "me.png", contentType: "image/png"})...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, svc.got.Image)
	assert.Equal(t, "me.png", svc.got.Image.Filename)
	assert.Equal(t, "image/png", svc.got.Image.ContentType)
	assert.Equal(t, []byte("PNGDATA"), svc.gotImage)
}

func TestUpdateUserDataBindingErrors(t *testing.T) {
	svc := newUserSvc()
	r := newUserRouter(svc, memImages{})

	w := putUpdate(t, r,
		part{name: "lastName", value: "Lovelace"},
		part{name: "email", value: "not-an-email"},
	)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "is required", body.Details["firstName"])
	assert.Equal(t, "must be a valid email", body.Details["email"])
	assert.Nil(t, svc.got)
}

func TestUpdateUserDataServiceErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{userapp.ErrPasswordMismatch, http.StatusBadRequest},
		{userapp.ErrRoleNotFound, http.StatusBadRequest},
		{userapp.ErrUserNotFound, http.StatusNotFound},
		{userapp.ErrEmailTaken, http.StatusConflict},
		{userapp.ErrImageTooLarge, http.StatusRequestEntityTooLarge},
		{userapp.ErrImageType, http.StatusUnsupportedMediaType},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			svc := newUserSvc()
			svc.updateErr = tt.err
			w := putUpdate(t, newUserRouter(svc, memImages{}), baseParts()...)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestUpdateUserDataBodyTooLarge(t *testing.T) {
	svc := newUserSvc()
	r := newUserRouter(svc, memImages{})

	big := strings.Repeat("x", 2<<20)
	w := putUpdate(t, r, append(baseParts(), part{name: "profileImage", value: big, filename: "big.png", contentType: "image/png"})...)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Nil(t, svc.got)
}

func TestProfileImage(t *testing.T) {
	r := newUserRouter(newUserSvc(), memImages{"ada.png": []byte("PNG")})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/images/users/ada.png", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "PNG", w.Body.String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/images/users/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchUsers(t *testing.T) {
	svc := newUserSvc()
	svc.hits = []map[string]any{{"id": "u1", "email": "ada@example.com"}}
	r := newUserRouter(svc, memImages{})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/users/search?q=ada", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success bool             `json:"success"`
		Data    []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Len(t, body.Data, 1)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/users/search", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type fakeAuthService struct {
	loginErr   error
	refreshErr error
	loggedOut  string
}

func (f *fakeAuthService) Login(context.Context, string, string) (*userapp.LoginResponse, userapp.TokenPair, error) {
	if f.loginErr != nil {
		return nil, userapp.TokenPair{}, f.loginErr
	}
	pair := userapp.TokenPair{AccessToken: "acc", AccessTokenExpiry: time.Now().Add(time.Minute), RefreshToken: "ref", RefreshTokenExpiry: time.Now().Add(time.Hour)}
	return &userapp.LoginResponse{UserID: "admin-1", Role: "admin"}, pair, nil
}

func (f *fakeAuthService) Refresh(context.Context, string) (userapp.TokenPair, string, error) {
	if f.refreshErr != nil {
		return userapp.TokenPair{}, "", f.refreshErr
	}
	return userapp.TokenPair{AccessToken: "acc2", RefreshToken: "ref2", AccessTokenExpiry: time.Now().Add(time.Minute), RefreshTokenExpiry: time.Now().Add(time.Hour)}, "admin-1", nil
}

func (f *fakeAuthService) Logout(_ context.Context, userID string) { f.loggedOut = userID }

func newAuthRouter(svc *fakeAuthService, jwt *helpers.JWTManager) *gin.Engine {
	h := NewAuthHandler(svc, jwt, nil, "", false)
	r := gin.New()
	r.POST("/api/login", h.Login)
	r.POST("/api/refresh", h.Refresh)
	r.POST("/api/logout", h.Logout)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return serve(r, req)
}

func TestLoginHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		body   string
		status int
	}{
		{"ok", nil, `{"email":"grace@example.com","password":"admin-password"}`, http.StatusOK},
		{"short password", nil, `{"email":"grace@example.com","password":"short"}`, http.StatusBadRequest},
		{"bad json", nil, `{"email":`, http.StatusBadRequest},
		{"forbidden", userapp.ErrForbidden, `{"email":"plain@example.com","password":"admin-password"}`, http.StatusForbidden},
		{"invalid", userapp.ErrInvalidCredentials, `{"email":"grace@example.com","password":"wrong-password"}`, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newAuthRouter(&fakeAuthService{loginErr: tt.err}, nil)
			w := postJSON(r, "/api/login", tt.body)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				cookies := strings.Join(w.Header().Values("Set-Cookie"), ";")
				assert.Contains(t, cookies, "access_token=acc")
				assert.Contains(t, cookies, "refresh_token=ref")
			}
		})
	}
}

func TestRefreshHandler(t *testing.T) {
	r := newAuthRouter(&fakeAuthService{}, nil)
	w := postJSON(r, "/api/refresh", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "ref"})
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, strings.Join(w.Header().Values("Set-Cookie"), ";"), "access_token=acc2")

	r = newAuthRouter(&fakeAuthService{refreshErr: userapp.ErrInvalidCredentials}, nil)
	req = httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "stale"})
	w = serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutHandlerUsesRefreshToken(t *testing.T) {
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour)
	tok, _, err := jwt.GenerateRefreshToken("admin-1", "sid")
	require.NoError(t, err)

	svc := &fakeAuthService{}
	r := newAuthRouter(svc, jwt)
	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: tok})
	w := serve(r, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin-1", svc.loggedOut)
}
