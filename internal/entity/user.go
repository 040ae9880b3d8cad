package entity

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// ParseRole accepts a role name in any case. The second result is false for
// anything outside the closed set.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleEmployee:
		return RoleEmployee, true
	}
	return "", false
}

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int       `json:"id"           bun:"id,pk,autoincrement"`
	EmployeeID   *string   `json:"employeeId"   bun:"employee_id"`
	Name         string    `json:"name"         bun:"name"`
	MobileNumber string    `json:"mobileNumber" bun:"mobile_number"`
	PasswordHash *string   `json:"-"            bun:"password_hash"`
	Role         Role      `json:"role"         bun:"role"`
	IsActive     bool      `json:"isActive"     bun:"is_active"`
	CreatedAt    time.Time `json:"createdAt"    bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserUpdate lists profile fields to change; nil fields are left alone.
type UserUpdate struct {
	Name         *string
	MobileNumber *string
	EmployeeID   *string
}

func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.MobileNumber == nil && u.EmployeeID == nil
}
