package commands

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedUpdate struct {
	fields map[string]string
	file   string
}

func newServer(t *testing.T) (*httptest.Server, *recordedUpdate) {
	t.Helper()
	got := &recordedUpdate{fields: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/GetUserData/u1":
			_, _ = io.WriteString(w, `{"userData":{"UserId":"u1","FirstName":"Ada","LastName":"Lovelace","FullName":"Ada Lovelace","Email":"ada@example.com","ContactNo":"0711","ProfileImage":"ada.png"}}`)
		case "/GetUserRole/u1":
			_, _ = io.WriteString(w, `{"userRole":{"UserId":"u1","UserRole":"editor"}}`)
		case "/Roles":
			_, _ = io.WriteString(w, `[{"RoleId":"r1","RoleName":"admin"},{"RoleId":"r2","RoleName":"editor"}]`)
		case "/UpdateUserData/u1":
			mr, err := r.MultipartReader()
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			for {
				p, err := mr.NextPart()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				b, _ := io.ReadAll(p)
				if p.FileName() != "" {
					got.file = p.FileName() + ":" + string(b)
					continue
				}
				got.fields[p.FormName()] = string(b)
			}
			_, _ = io.WriteString(w, `{"message":"User Updated Successfully!","userData":{"UserId":"u1"}}`)
		case "/GetUserData/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"user not found"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGet(t *testing.T) {
	srv, _ := newServer(t)
	out, err := run(t, "--url", srv.URL, "get", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "Name:          Ada Lovelace")
	assert.Contains(t, out, "User Role:     editor")
	assert.Contains(t, out, "Profile Image: "+srv.URL+"/images/users/ada.png")
}

func TestGetUnknownUser(t *testing.T) {
	srv, _ := newServer(t)
	_, err := run(t, "--url", srv.URL, "get", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user not found")
}

func TestRoles(t *testing.T) {
	srv, _ := newServer(t)
	out, err := run(t, "--url", srv.URL, "roles")
	require.NoError(t, err)
	assert.Equal(t, "r1\tadmin\nr2\teditor\n", out)
}

func TestUpdate(t *testing.T) {
	srv, got := newServer(t)
	img := filepath.Join(t.TempDir(), "me.png")
	require.NoError(t, os.WriteFile(img, []byte("png"), 0o600))

	out, err := run(t, "--url", srv.URL, "update", "u1", "--first-name", "Augusta", "--password", "new-password", "--image", img)
	require.NoError(t, err)
	assert.Equal(t, "User Updated Successfully!\n", out)

	assert.Equal(t, "Augusta", got.fields["firstName"])
	assert.Equal(t, "Lovelace", got.fields["lastName"], "unset flags keep loaded values")
	assert.Equal(t, "editor", got.fields["userRole"])
	assert.Equal(t, "new-password", got.fields["confirmPassword"])
	assert.Equal(t, "me.png:png", got.file)
}

func TestUpdateNothing(t *testing.T) {
	srv, _ := newServer(t)
	_, err := run(t, "--url", srv.URL, "update", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")
}
