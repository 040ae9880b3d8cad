// Command admin runs maintenance tasks against the attendance database.
// Configuration is read from ATTENDANCE_* environment variables.
//
//	admin migrate
//	admin useradd <name> <mobile> <password> [employeeId] [role]
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"geoattendance/backend/internal/commands"
	"geoattendance/backend/internal/pkg/config"
	"geoattendance/backend/internal/pkg/logger"
	"geoattendance/backend/internal/pkg/repository/postgresql"
	"geoattendance/backend/internal/service/account"
)

const usage = `usage:
  admin migrate
  admin useradd <name> <mobile> <password> [employeeId] [role]`

func main() {
	log := logger.New(logger.Options{Pretty: true, Service: "attendance-admin"})

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}

	cfg, err := config.Parse(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	log = log.Level(logger.ParseLevel(cfg.Log.Level))

	if err := run(context.Background(), cfg, log, os.Args[1], os.Args[2:]); err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("admin")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger, cmd string, args []string) error {
	db := postgresql.NewDB(postgresql.Config{
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Host:         cfg.DB.Host,
		Name:         cfg.DB.Name,
		DisableTLS:   cfg.DB.DisableTLS,
		Debug:        cfg.DB.Debug,
		MaxOpenConns: 1,
	}, log)
	defer db.Close()

	switch cmd {
	case "migrate":
		return commands.MigrateUP(ctx, db, log)

	case "useradd":
		in, err := newUserArgs(args)
		if err != nil {
			return err
		}
		u, err := commands.UserAdd(ctx, db, log, in)
		if err != nil {
			return err
		}
		log.Info().Int("id", u.ID).Str("role", string(u.Role)).Msg("user created")
		return nil
	}

	return errors.Errorf("unknown command %q\n%s", cmd, usage)
}

func newUserArgs(args []string) (account.NewUser, error) {
	if len(args) < 3 {
		return account.NewUser{}, errors.New(usage)
	}

	in := account.NewUser{
		Name:         args[0],
		MobileNumber: args[1],
		Password:     args[2],
	}
	if len(args) > 3 && args[3] != "" {
		in.EmployeeID = &args[3]
	}
	if len(args) > 4 {
		in.Role = args[4]
	}
	return in, nil
}
