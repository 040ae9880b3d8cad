package auth

import (
	"context"

	"geoattendance/backend/internal/entity"
	"geoattendance/backend/internal/service/account"
)

type Account interface {
	Signup(ctx context.Context, in account.NewUser) (account.Session, error)
	Login(ctx context.Context, identifier, password string) (account.Session, error)
	LoginEmployee(ctx context.Context, employeeID string) (account.Session, error)
	Profile(ctx context.Context, userID int) (entity.User, error)
}
