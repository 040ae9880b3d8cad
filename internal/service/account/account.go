// Package account manages users: registration, sign-in and the admin
// employee directory.
package account

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"geoattendance/backend/internal/entity"
	"geoattendance/backend/internal/pkg/apperr"
)

const (
	MsgInvalidCredentials = "Invalid credentials"
	MsgDeactivated        = "Account has been deactivated. Contact administrator."
	MsgAdminNeedsPassword = "admin accounts must sign in with a password"
	MsgSelfDeactivate     = "You cannot deactivate your own account"
	MsgEmployeeNotFound   = "Employee not found"
	MsgUserNotFound       = "User not found"
	MsgMobileTaken        = "Mobile number already registered"
	MsgEmployeeIDTaken    = "Employee ID already exists"

	minPasswordLen = 6
)

// Repository is the user storage.
type Repository interface {
	FindByID(ctx context.Context, id int) (*entity.User, error)
	FindByMobile(ctx context.Context, mobile string) (*entity.User, error)
	FindByEmployeeID(ctx context.Context, employeeID string) (*entity.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (*entity.User, error)
	Create(ctx context.Context, u *entity.User) error
	List(ctx context.Context, includeInactive bool) ([]entity.User, error)
	SetActive(ctx context.Context, id int, active bool) (*entity.User, error)
	Update(ctx context.Context, id int, upd entity.UserUpdate) (*entity.User, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	GenerateToken(u entity.User) (string, error)
}

// Session is returned by every successful sign-in.
type Session struct {
	Token string      `json:"token"`
	User  entity.User `json:"user"`
}

// NewUser is the input for Signup and CreateEmployee.
type NewUser struct {
	Name         string
	MobileNumber string
	EmployeeID   *string
	Password     string
	// Role is ignored by Signup.
	Role string
}

type Service struct {
	repo   Repository
	tokens TokenIssuer
	log    zerolog.Logger
	cost   int
}

func NewService(repo Repository, tokens TokenIssuer, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		log:    log,
		cost:   bcrypt.DefaultCost,
	}
}

// WithHashCost overrides the bcrypt cost.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

// Signup registers an employee and signs them in.
func (s *Service) Signup(ctx context.Context, in NewUser) (Session, error) {
	in.Role = string(entity.RoleEmployee)

	u, err := s.create(ctx, in)
	if err != nil {
		return Session{}, err
	}

	s.log.Info().Int("userId", u.ID).Msg("user registered")
	return s.session(u)
}

// Login accepts a mobile number or an employee ID with a password.
func (s *Service) Login(ctx context.Context, identifier, password string) (Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return Session{}, apperr.Validation("Identifier and password are required")
	}

	u, err := s.repo.FindByIdentifier(ctx, identifier)
	if err != nil {
		return Session{}, err
	}
	if u == nil {
		return Session{}, apperr.Auth(MsgInvalidCredentials)
	}
	if !u.IsActive {
		return Session{}, apperr.Auth(MsgDeactivated)
	}
	if u.PasswordHash == nil || bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)) != nil {
		return Session{}, apperr.Auth(MsgInvalidCredentials)
	}

	return s.session(*u)
}

// LoginEmployee signs in an active employee by employee ID alone, as used
// by the QR kiosk.
func (s *Service) LoginEmployee(ctx context.Context, employeeID string) (Session, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return Session{}, apperr.Validation("employeeId is required")
	}

	u, err := s.repo.FindByEmployeeID(ctx, employeeID)
	if err != nil {
		return Session{}, err
	}
	switch {
	case u == nil:
		return Session{}, apperr.Auth(MsgInvalidCredentials)
	case u.IsAdmin():
		return Session{}, apperr.Auth(MsgAdminNeedsPassword)
	case !u.IsActive:
		return Session{}, apperr.Auth(MsgDeactivated)
	}

	return s.session(*u)
}

func (s *Service) Profile(ctx context.Context, userID int) (entity.User, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return entity.User{}, err
	}
	if u == nil {
		return entity.User{}, apperr.NotFound(MsgUserNotFound)
	}
	return *u, nil
}

// FindByID returns nil when the user does not exist.
func (s *Service) FindByID(ctx context.Context, id int) (*entity.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) ListEmployees(ctx context.Context, includeInactive bool) ([]entity.User, error) {
	return s.repo.List(ctx, includeInactive)
}

func (s *Service) CreateEmployee(ctx context.Context, in NewUser) (entity.User, error) {
	u, err := s.create(ctx, in)
	if err != nil {
		return entity.User{}, err
	}

	s.log.Info().Int("userId", u.ID).Str("role", string(u.Role)).Msg("employee created")
	return u, nil
}

func (s *Service) UpdateEmployee(ctx context.Context, id int, upd entity.UserUpdate) (entity.User, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return entity.User{}, err
	}
	if existing == nil {
		return entity.User{}, apperr.NotFound(MsgEmployeeNotFound)
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return entity.User{}, apperr.Validation("name must not be empty")
		}
		upd.Name = &name
	}

	if upd.MobileNumber != nil {
		mobile := strings.TrimSpace(*upd.MobileNumber)
		if !ValidMobile(mobile) {
			return entity.User{}, apperr.Validation("Invalid mobile number format")
		}
		if mobile != existing.MobileNumber {
			if err := s.ensureMobileFree(ctx, mobile); err != nil {
				return entity.User{}, err
			}
		}
		upd.MobileNumber = &mobile
	}

	if upd.EmployeeID != nil {
		eid := strings.TrimSpace(*upd.EmployeeID)
		if eid == "" {
			return entity.User{}, apperr.Validation("employeeId must not be empty")
		}
		if existing.EmployeeID == nil || eid != *existing.EmployeeID {
			if err := s.ensureEmployeeIDFree(ctx, eid); err != nil {
				return entity.User{}, err
			}
		}
		upd.EmployeeID = &eid
	}

	u, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return entity.User{}, err
	}
	if u == nil {
		return entity.User{}, apperr.NotFound(MsgEmployeeNotFound)
	}
	return *u, nil
}

// Deactivate soft-deletes an account. actorID is the acting admin.
func (s *Service) Deactivate(ctx context.Context, actorID, id int) (entity.User, error) {
	if actorID == id {
		return entity.User{}, apperr.Validation(MsgSelfDeactivate)
	}
	return s.setActive(ctx, id, false)
}

func (s *Service) Activate(ctx context.Context, id int) (entity.User, error) {
	return s.setActive(ctx, id, true)
}

func (s *Service) setActive(ctx context.Context, id int, active bool) (entity.User, error) {
	u, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return entity.User{}, err
	}
	if u == nil {
		return entity.User{}, apperr.NotFound(MsgEmployeeNotFound)
	}

	s.log.Info().Int("userId", id).Bool("active", active).Msg("employee status changed")
	return *u, nil
}

// EnsureAdmin creates the bootstrap admin unless its mobile number or
// employee ID is already taken. It reports whether a user was created.
func (s *Service) EnsureAdmin(ctx context.Context, in NewUser) (bool, error) {
	if in.Password == "" {
		return false, nil
	}

	if u, err := s.repo.FindByMobile(ctx, strings.TrimSpace(in.MobileNumber)); err != nil || u != nil {
		return false, err
	}
	if in.EmployeeID != nil {
		if u, err := s.repo.FindByEmployeeID(ctx, strings.TrimSpace(*in.EmployeeID)); err != nil || u != nil {
			return false, err
		}
	}

	in.Role = string(entity.RoleAdmin)
	u, err := s.create(ctx, in)
	if err != nil {
		return false, err
	}

	s.log.Info().Int("userId", u.ID).Msg("bootstrap admin created")
	return true, nil
}

func (s *Service) create(ctx context.Context, in NewUser) (entity.User, error) {
	name := strings.TrimSpace(in.Name)
	mobile := strings.TrimSpace(in.MobileNumber)

	if name == "" || mobile == "" || in.Password == "" {
		return entity.User{}, apperr.Validation("Name, mobile number, and password are required")
	}
	if !ValidMobile(mobile) {
		return entity.User{}, apperr.Validation("Invalid mobile number format")
	}
	if len(in.Password) < minPasswordLen {
		return entity.User{}, apperr.Validation("Password must be at least %d characters", minPasswordLen)
	}

	role := entity.RoleEmployee
	if in.Role != "" {
		r, ok := entity.ParseRole(in.Role)
		if !ok {
			return entity.User{}, apperr.Validation("role must be one of: admin, employee")
		}
		role = r
	}

	var employeeID *string
	if in.EmployeeID != nil {
		if eid := strings.TrimSpace(*in.EmployeeID); eid != "" {
			employeeID = &eid
		}
	}

	if err := s.ensureMobileFree(ctx, mobile); err != nil {
		return entity.User{}, err
	}
	if employeeID != nil {
		if err := s.ensureEmployeeIDFree(ctx, *employeeID); err != nil {
			return entity.User{}, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return entity.User{}, apperr.Internal(err, "hashing password")
	}
	hashStr := string(hash)

	u := entity.User{
		EmployeeID:   employeeID,
		Name:         name,
		MobileNumber: mobile,
		PasswordHash: &hashStr,
		Role:         role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, &u); err != nil {
		return entity.User{}, err
	}
	return u, nil
}

func (s *Service) ensureMobileFree(ctx context.Context, mobile string) error {
	u, err := s.repo.FindByMobile(ctx, mobile)
	if err != nil {
		return err
	}
	if u != nil {
		return apperr.Conflict(MsgMobileTaken)
	}
	return nil
}

func (s *Service) ensureEmployeeIDFree(ctx context.Context, employeeID string) error {
	u, err := s.repo.FindByEmployeeID(ctx, employeeID)
	if err != nil {
		return err
	}
	if u != nil {
		return apperr.Conflict(MsgEmployeeIDTaken)
	}
	return nil
}

func (s *Service) session(u entity.User) (Session, error) {
	token, err := s.tokens.GenerateToken(u)
	if err != nil {
		return Session{}, apperr.Internal(errors.Wrap(err, "issuing token"), "issuing token")
	}
	return Session{Token: token, User: u}, nil
}

// ValidMobile reports whether s carries 10 to 15 digits once every
// non-digit is removed.
func ValidMobile(s string) bool {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n >= 10 && n <= 15
}
