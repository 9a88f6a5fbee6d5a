// Package client talks to the legacy profile endpoints the dashboard form uses.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// UserData mirrors the userData object of GET /GetUserData.
type UserData struct {
	UserID       string `json:"UserId"`
	FirstName    string `json:"FirstName"`
	LastName     string `json:"LastName"`
	FullName     string `json:"FullName"`
	Email        string `json:"Email"`
	ContactNo    string `json:"ContactNo"`
	ProfileImage string `json:"ProfileImage"`
}

type UserRole struct {
	UserID   string `json:"UserId"`
	UserRole string `json:"UserRole"`
}

type Role struct {
	RoleID   string `json:"RoleId"`
	RoleName string `json:"RoleName"`
}

// Image is a new profile image to upload.
type Image struct {
	Filename string
	Body     io.Reader
}

// UpdateRequest holds the fields sent to PUT /UpdateUserData. When Image is
// nil a non-empty ProfileImage is sent back as text, which keeps the current
// image.
type UpdateRequest struct {
	FirstName       string
	LastName        string
	Email           string
	ContactNo       string
	UserRole        string
	Password        string
	ConfirmPassword string
	ProfileImage    string
	Image           *Image
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Details map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("profile api: %d %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Token   string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTP = h } }

// WithToken sends the access token as a bearer header.
func WithToken(tok string) Option { return func(c *Client) { c.Token = tok } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) GetUserData(ctx context.Context, userID string) (*UserData, error) {
	var out struct {
		UserData UserData `json:"userData"`
	}
	if err := c.do(ctx, http.MethodGet, "/GetUserData/"+url.PathEscape(userID), nil, "", &out); err != nil {
		return nil, err
	}
	return &out.UserData, nil
}

func (c *Client) GetUserRole(ctx context.Context, userID string) (*UserRole, error) {
	var out struct {
		UserRole UserRole `json:"userRole"`
	}
	if err := c.do(ctx, http.MethodGet, "/GetUserRole/"+url.PathEscape(userID), nil, "", &out); err != nil {
		return nil, err
	}
	return &out.UserRole, nil
}

func (c *Client) Roles(ctx context.Context) ([]Role, error) {
	var out []Role
	if err := c.do(ctx, http.MethodGet, "/Roles", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateUserData sends the form as multipart/form-data and returns the
// server's message with the updated user.
func (c *Client) UpdateUserData(ctx context.Context, userID string, req UpdateRequest) (string, *UserData, error) {
	body, contentType, err := encodeUpdate(req)
	if err != nil {
		return "", nil, err
	}
	var out struct {
		Message  string   `json:"message"`
		UserData UserData `json:"userData"`
	}
	if err := c.do(ctx, http.MethodPut, "/UpdateUserData/"+url.PathEscape(userID), body, contentType, &out); err != nil {
		return "", nil, err
	}
	return out.Message, &out.UserData, nil
}

// ImageURL is where the server exposes a stored profile image.
func (c *Client) ImageURL(name string) string {
	return c.BaseURL + "/images/users/" + url.PathEscape(name)
}

func encodeUpdate(req UpdateRequest) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"firstName", req.FirstName},
		{"lastName", req.LastName},
		{"email", req.Email},
		{"contactNo", req.ContactNo},
		{"userRole", req.UserRole},
		{"password", req.Password},
		{"confirmPassword", req.ConfirmPassword},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	switch {
	case req.Image != nil:
		part, err := mw.CreateFormFile("profileImage", req.Image.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, req.Image.Body); err != nil {
			return nil, "", fmt.Errorf("copy image: %w", err)
		}
	case req.ProfileImage != "":
		if err := mw.WriteField("profileImage", req.ProfileImage); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var e struct {
			Error   string            `json:"error"`
			Message string            `json:"message"`
			Details map[string]string `json:"details"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&e) == nil {
			switch {
			case e.Error != "":
				apiErr.Message = e.Error
			case e.Message != "":
				apiErr.Message = e.Message
			}
			apiErr.Details = e.Details
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
