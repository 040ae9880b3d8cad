// Package postgresql opens the bun database handle shared by repositories.
package postgresql

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

type Config struct {
	User         string
	Password     string
	Host         string
	Name         string
	DisableTLS   bool
	Debug        bool
	MaxOpenConns int
}

type Database struct {
	*bun.DB
}

// NewDB builds the connection pool; it does not dial until first use.
func NewDB(cfg Config, log zerolog.Logger) *Database {
	connector := pgdriver.NewConnector(
		pgdriver.WithAddr(cfg.Host),
		pgdriver.WithUser(cfg.User),
		pgdriver.WithPassword(cfg.Password),
		pgdriver.WithDatabase(cfg.Name),
		pgdriver.WithInsecure(cfg.DisableTLS),
		pgdriver.WithApplicationName("attendance-api"),
		pgdriver.WithTimeout(5*time.Second),
	)

	sqldb := sql.OpenDB(connector)
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
		sqldb.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.WithWriter(log),
		))
	}

	return &Database{DB: db}
}

// StatusCheck returns nil once the database answers a trivial query.
func (d *Database) StatusCheck(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Second)
		defer cancel()
	}

	var ok bool
	if err := d.QueryRowContext(ctx, "SELECT true").Scan(&ok); err != nil {
		return errors.Wrap(err, "database status check")
	}
	return nil
}
