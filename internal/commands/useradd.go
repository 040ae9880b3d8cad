package commands

import (
	"context"

	"github.com/rs/zerolog"

	"geoattendance/backend/internal/entity"
	"geoattendance/backend/internal/pkg/repository/postgresql"
	"geoattendance/backend/internal/repository/postgres/user"
	"geoattendance/backend/internal/service/account"
)

// UserAdd creates an account from the command line.
func UserAdd(ctx context.Context, db *postgresql.Database, log zerolog.Logger, in account.NewUser) (entity.User, error) {
	svc := account.NewService(user.NewRepository(db), nil, log)
	return svc.CreateEmployee(ctx, in)
}

// SeedAdmin creates the bootstrap admin when it does not exist yet.
func SeedAdmin(ctx context.Context, svc *account.Service, log zerolog.Logger, in account.NewUser) error {
	created, err := svc.EnsureAdmin(ctx, in)
	if err != nil {
		return err
	}
	if !created {
		log.Debug().Str("mobile", in.MobileNumber).Msg("bootstrap admin skipped")
	}
	return nil
}
