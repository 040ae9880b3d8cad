package account

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"geoattendance/backend/internal/entity"
	"geoattendance/backend/internal/pkg/apperr"
)

type memRepo struct {
	mu     sync.Mutex
	nextID int
	users  []entity.User
}

func (r *memRepo) find(match func(entity.User) bool) *entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			c := u
			return &c
		}
	}
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id int) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return u.ID == id }), nil
}

func (r *memRepo) FindByMobile(_ context.Context, mobile string) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return u.MobileNumber == mobile }), nil
}

func (r *memRepo) FindByEmployeeID(_ context.Context, eid string) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return u.EmployeeID != nil && *u.EmployeeID == eid }), nil
}

func (r *memRepo) FindByIdentifier(ctx context.Context, identifier string) (*entity.User, error) {
	if u, _ := r.FindByMobile(ctx, identifier); u != nil {
		return u, nil
	}
	return r.FindByEmployeeID(ctx, identifier)
}

func (r *memRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	r.users = append(r.users, *u)
	return nil
}

func (r *memRepo) List(_ context.Context, includeInactive bool) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.User
	for _, u := range r.users {
		if includeInactive || u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memRepo) SetActive(_ context.Context, id int, active bool) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == id {
			r.users[i].IsActive = active
			c := r.users[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memRepo) Update(_ context.Context, id int, upd entity.UserUpdate) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID != id {
			continue
		}
		if upd.Name != nil {
			r.users[i].Name = *upd.Name
		}
		if upd.MobileNumber != nil {
			r.users[i].MobileNumber = *upd.MobileNumber
		}
		if upd.EmployeeID != nil {
			r.users[i].EmployeeID = upd.EmployeeID
		}
		c := r.users[i]
		return &c, nil
	}
	return nil, nil
}

type stubTokens struct {
	err error
}

func (s stubTokens) GenerateToken(u entity.User) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("token-%d-%s", u.ID, u.Role), nil
}

func newService() (*Service, *memRepo) {
	repo := &memRepo{}
	return NewService(repo, stubTokens{}, zerolog.Nop()).WithHashCost(bcrypt.MinCost), repo
}

func str(s string) *string { return &s }

func assertKind(t *testing.T, err error, kind apperr.Kind, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperr.KindOf(err))
	if msg != "" {
		assert.EqualError(t, err, msg)
	}
}

func TestSignup(t *testing.T) {
	s, repo := newService()
	ctx := context.Background()

	sess, err := s.Signup(ctx, NewUser{
		Name:         "  Aiko  ",
		MobileNumber: "+81 90-1234-5678",
		EmployeeID:   str("EMP001"),
		Password:     "secret1",
		Role:         "admin",
	})
	require.NoError(t, err)

	assert.Equal(t, "token-1-employee", sess.Token)
	assert.Equal(t, "Aiko", sess.User.Name)
	assert.Equal(t, entity.RoleEmployee, sess.User.Role)
	assert.True(t, sess.User.IsActive)
	require.Len(t, repo.users, 1)
	require.NotNil(t, repo.users[0].PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*repo.users[0].PasswordHash), []byte("secret1")))
}

func TestSignup_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   NewUser
		msg  string
	}{
		{"missing name", NewUser{MobileNumber: "0123456789", Password: "secret1"}, "Name, mobile number, and password are required"},
		{"missing password", NewUser{Name: "a", MobileNumber: "0123456789"}, "Name, mobile number, and password are required"},
		{"short mobile", NewUser{Name: "a", MobileNumber: "12345", Password: "secret1"}, "Invalid mobile number format"},
		{"long mobile", NewUser{Name: "a", MobileNumber: "1234567890123456", Password: "secret1"}, "Invalid mobile number format"},
		{"short password", NewUser{Name: "a", MobileNumber: "0123456789", Password: "12345"}, "Password must be at least 6 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, repo := newService()
			_, err := s.Signup(context.Background(), tt.in)
			assertKind(t, err, apperr.KindValidation, tt.msg)
			assert.Empty(t, repo.users)
		})
	}
}

func TestSignup_Duplicates(t *testing.T) {
	s, _ := newService()
	ctx := context.Background()

	_, err := s.Signup(ctx, NewUser{Name: "a", MobileNumber: "0123456789", EmployeeID: str("E1"), Password: "secret1"})
	require.NoError(t, err)

	_, err = s.Signup(ctx, NewUser{Name: "b", MobileNumber: "0123456789", Password: "secret1"})
	assertKind(t, err, apperr.KindConflict, MsgMobileTaken)

	_, err = s.Signup(ctx, NewUser{Name: "b", MobileNumber: "0999999999", EmployeeID: str("E1"), Password: "secret1"})
	assertKind(t, err, apperr.KindConflict, MsgEmployeeIDTaken)

	_, err = s.Signup(ctx, NewUser{Name: "c", MobileNumber: "0888888888", EmployeeID: str("  "), Password: "secret1"})
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	s, _ := newService()
	ctx := context.Background()

	created, err := s.Signup(ctx, NewUser{Name: "a", MobileNumber: "0123456789", EmployeeID: str("E1"), Password: "secret1"})
	require.NoError(t, err)

	sess, err := s.Login(ctx, "0123456789", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, sess.User.ID)

	sess, err = s.Login(ctx, " E1 ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, sess.User.ID)

	_, err = s.Login(ctx, "E1", "wrong-password")
	assertKind(t, err, apperr.KindAuth, MsgInvalidCredentials)

	_, err = s.Login(ctx, "nobody", "secret1")
	assertKind(t, err, apperr.KindAuth, MsgInvalidCredentials)

	_, err = s.Login(ctx, "", "secret1")
	assertKind(t, err, apperr.KindValidation, "")
}

func TestLogin_Deactivated(t *testing.T) {
	s, _ := newService()
	ctx := context.Background()

	admin, err := s.CreateEmployee(ctx, NewUser{Name: "root", MobileNumber: "0000000001", Password: "secret1", Role: "admin"})
	require.NoError(t, err)
	emp, err := s.Signup(ctx, NewUser{Name: "a", MobileNumber: "0123456789", Password: "secret1"})
	require.NoError(t, err)

	_, err = s.Deactivate(ctx, admin.ID, emp.User.ID)
	require.NoError(t, err)

	_, err = s.Login(ctx, "0123456789", "secret1")
	assertKind(t, err, apperr.KindAuth, MsgDeactivated)

	u, err := s.FindByID(ctx, emp.User.ID)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.False(t, u.IsActive)

	_, err = s.Activate(ctx, emp.User.ID)
	require.NoError(t, err)
	_, err = s.Login(ctx, "0123456789", "secret1")
	assert.NoError(t, err)
}

func TestLoginEmployee(t *testing.T) {
	s, _ := newService()
	ctx := context.Background()

	admin, err := s.CreateEmployee(ctx, NewUser{Name: "root", MobileNumber: "0000000001", EmployeeID: str("ADMIN001"), Password: "secret1", Role: "admin"})
	require.NoError(t, err)
	emp, err := s.CreateEmployee(ctx, NewUser{Name: "a", MobileNumber: "0123456789", EmployeeID: str("E1"), Password: "secret1"})
	require.NoError(t, err)

	sess, err := s.LoginEmployee(ctx, "E1")
	require.NoError(t, err)
	assert.Equal(t, emp.ID, sess.User.ID)

	_, err = s.LoginEmployee(ctx, "ADMIN001")
	assertKind(t, err, apperr.KindAuth, MsgAdminNeedsPassword)

	_, err = s.LoginEmployee(ctx, "E404")
	assertKind(t, err, apperr.KindAuth, "")

	_, err = s.Deactivate(ctx, admin.ID, emp.ID)
	require.NoError(t, err)
	_, err = s.LoginEmployee(ctx, "E1")
	assertKind(t, err, apperr.KindAuth, MsgDeactivated)
}

func TestCreateEmployee_Role(t *testing.T) {
	s, _ := newService()
	ctx := context.Background()

	u, err := s.CreateEmployee(ctx, NewUser{Name: "a", MobileNumber: "0123456789", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleEmployee, u.Role)

	u, err = s.CreateEmployee(ctx, NewUser{Name: "b", MobileNumber: "0123456780", Password: "secret1", Role: "ADMIN"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, u.Role)

	_, err = s.CreateEmployee(ctx, NewUser{Name: "c", MobileNumber: "0123456781", Password: "secret1", Role: "dashboard"})
	assertKind(t, err, apperr.KindValidation, "role must be one of: admin, employee")
}

func TestDeactivate(t *testing.T) {
	s, _ := newService()
	ctx := context.Background()

	admin, err := s.CreateEmployee(ctx, NewUser{Name: "root", MobileNumber: "0000000001", Password: "secret1", Role: "admin"})
	require.NoError(t, err)

	_, err = s.Deactivate(ctx, admin.ID, admin.ID)
	assertKind(t, err, apperr.KindValidation, MsgSelfDeactivate)

	_, err = s.Deactivate(ctx, admin.ID, 999)
	assertKind(t, err, apperr.KindNotFound, MsgEmployeeNotFound)

	_, err = s.Activate(ctx, 999)
	assertKind(t, err, apperr.KindNotFound, MsgEmployeeNotFound)
}

func TestListEmployees(t *testing.T) {
	s, _ := newService()
	ctx := context.Background()

	admin, err := s.CreateEmployee(ctx, NewUser{Name: "root", MobileNumber: "0000000001", Password: "secret1", Role: "admin"})
	require.NoError(t, err)
	emp, err := s.CreateEmployee(ctx, NewUser{Name: "a", MobileNumber: "0123456789", Password: "secret1"})
	require.NoError(t, err)
	_, err = s.Deactivate(ctx, admin.ID, emp.ID)
	require.NoError(t, err)

	active, err := s.ListEmployees(ctx, false)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := s.ListEmployees(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateEmployee(t *testing.T) {
	s, _ := newService()
	ctx := context.Background()

	a, err := s.CreateEmployee(ctx, NewUser{Name: "a", MobileNumber: "0123456789", EmployeeID: str("E1"), Password: "secret1"})
	require.NoError(t, err)
	_, err = s.CreateEmployee(ctx, NewUser{Name: "b", MobileNumber: "0123456780", EmployeeID: str("E2"), Password: "secret1"})
	require.NoError(t, err)

	u, err := s.UpdateEmployee(ctx, a.ID, entity.UserUpdate{Name: str(" Alice "), EmployeeID: str("E1")})
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "E1", *u.EmployeeID)

	_, err = s.UpdateEmployee(ctx, a.ID, entity.UserUpdate{MobileNumber: str("0123456780")})
	assertKind(t, err, apperr.KindConflict, MsgMobileTaken)

	_, err = s.UpdateEmployee(ctx, a.ID, entity.UserUpdate{EmployeeID: str("E2")})
	assertKind(t, err, apperr.KindConflict, MsgEmployeeIDTaken)

	_, err = s.UpdateEmployee(ctx, a.ID, entity.UserUpdate{MobileNumber: str("123")})
	assertKind(t, err, apperr.KindValidation, "Invalid mobile number format")

	_, err = s.UpdateEmployee(ctx, 999, entity.UserUpdate{Name: str("x")})
	assertKind(t, err, apperr.KindNotFound, MsgEmployeeNotFound)
}

func TestProfile(t *testing.T) {
	s, _ := newService()
	ctx := context.Background()

	sess, err := s.Signup(ctx, NewUser{Name: "a", MobileNumber: "0123456789", Password: "secret1"})
	require.NoError(t, err)

	u, err := s.Profile(ctx, sess.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", u.Name)

	_, err = s.Profile(ctx, 404)
	assertKind(t, err, apperr.KindNotFound, MsgUserNotFound)
}

func TestEnsureAdmin(t *testing.T) {
	s, repo := newService()
	ctx := context.Background()
	in := NewUser{Name: "Admin", MobileNumber: "9999999999", EmployeeID: str("ADMIN001"), Password: "admin123"}

	created, err := s.EnsureAdmin(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, repo.users, 1)
	assert.Equal(t, entity.RoleAdmin, repo.users[0].Role)

	created, err = s.EnsureAdmin(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)

	created, err = s.EnsureAdmin(ctx, NewUser{Name: "Admin", MobileNumber: "9999999999"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, repo.users, 1)
}

func TestSession_TokenError(t *testing.T) {
	repo := &memRepo{}
	s := NewService(repo, stubTokens{err: errors.New("no key")}, zerolog.Nop()).WithHashCost(bcrypt.MinCost)

	_, err := s.Signup(context.Background(), NewUser{Name: "a", MobileNumber: "0123456789", Password: "secret1"})
	assertKind(t, err, apperr.KindInternal, "")
}

func TestValidMobile(t *testing.T) {
	assert.True(t, ValidMobile("0123456789"))
	assert.True(t, ValidMobile("+1 (555) 123-4567"))
	assert.True(t, ValidMobile("123456789012345"))
	assert.False(t, ValidMobile("123456789"))
	assert.False(t, ValidMobile("1234567890123456"))
	assert.False(t, ValidMobile("abcdefghijkl"))
}
