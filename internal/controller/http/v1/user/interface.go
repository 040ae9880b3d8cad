package user

import (
	"context"

	"geoattendance/backend/internal/entity"
	"geoattendance/backend/internal/service/account"
)

type User interface {
	FindByID(ctx context.Context, id int) (*entity.User, error)
	ListEmployees(ctx context.Context, includeInactive bool) ([]entity.User, error)
	CreateEmployee(ctx context.Context, in account.NewUser) (entity.User, error)
	UpdateEmployee(ctx context.Context, id int, upd entity.UserUpdate) (entity.User, error)
	Deactivate(ctx context.Context, actorID, id int) (entity.User, error)
	Activate(ctx context.Context, id int) (entity.User, error)
}
