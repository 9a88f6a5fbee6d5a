package application

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oksasatya/admin-user-profile/internal/domain/entity"
	repo "github.com/oksasatya/admin-user-profile/internal/domain/repository"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeUsers(users ...*entity.User) *fakeUsers {
	f := &fakeUsers{users: map[string]*entity.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUsers) Update(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; !ok {
		return repo.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Password = hash
	return nil
}

type fakeRoles struct {
	mu          sync.Mutex
	roles       []entity.Role
	assignments map[string]string // user id -> role id
	assignErr   error
}

func newFakeRoles(names ...string) *fakeRoles {
	f := &fakeRoles{assignments: map[string]string{}}
	for _, n := range names {
		f.roles = append(f.roles, entity.Role{ID: "role-" + n, Name: n})
	}
	return f
}

func (f *fakeRoles) List(context.Context) ([]entity.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.Role(nil), f.roles...), nil
}

func (f *fakeRoles) GetByName(_ context.Context, name string) (*entity.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.roles {
		if r.Name == name {
			cp := r
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeRoles) GetUserRole(_ context.Context, userID string) (*entity.UserRole, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	roleID, ok := f.assignments[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	for _, r := range f.roles {
		if r.ID == roleID {
			return &entity.UserRole{UserID: userID, RoleID: r.ID, RoleName: r.Name}, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeRoles) AssignUserRole(_ context.Context, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assignErr != nil {
		return f.assignErr
	}
	f.assignments[userID] = roleID
	return nil
}

// fakeTx snapshots the fake user store and restores it when fn fails.
type fakeTx struct {
	users *fakeUsers
	calls int
}

func (t *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	t.users.mu.Lock()
	snapshot := map[string]entity.User{}
	for id, u := range t.users.users {
		snapshot[id] = *u
	}
	t.users.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.users.mu.Lock()
		for id, u := range snapshot {
			cp := u
			t.users.users[id] = &cp
		}
		t.users.mu.Unlock()
		return err
	}
	return nil
}

type fakeImages struct {
	mu    sync.Mutex
	files map[string][]byte
	types map[string]string
}

func newFakeImages() *fakeImages {
	return &fakeImages{files: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeImages) Save(_ context.Context, name, contentType string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[name] = b
	f.types[name] = contentType
	return nil
}

func (f *fakeImages) Open(_ context.Context, name string) (io.ReadCloser, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.files[name]
	if !ok {
		return nil, "", repo.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), f.types[name], nil
}

func (f *fakeImages) Delete(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[name]; !ok {
		return repo.ErrNotFound
	}
	delete(f.files, name)
	delete(f.types, name)
	return nil
}

type fakePublisher struct {
	mu   sync.Mutex
	jobs []any
	err  error
}

func (p *fakePublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, body)
	return nil
}
