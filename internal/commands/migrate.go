package commands

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"geoattendance/backend/internal/pkg/repository/postgresql"
)

type Scheme struct {
	Index       int
	Description string
	Query       string
}

var scheme = []Scheme{
	{
		Index:       1,
		Description: "Create table: users.",
		Query: `
        CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            employee_id VARCHAR(50),
            name VARCHAR(255) NOT NULL,
            mobile_number VARCHAR(20) NOT NULL,
            password_hash TEXT,
            role VARCHAR(20) NOT NULL DEFAULT 'employee',
            is_active BOOLEAN NOT NULL DEFAULT true,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CONSTRAINT users_mobile_number_key UNIQUE (mobile_number),
            CONSTRAINT users_employee_id_key UNIQUE (employee_id),
            CONSTRAINT users_role_check CHECK (role IN ('admin', 'employee'))
        );`,
	},
	{
		Index:       2,
		Description: "Create table: attendance_records.",
		Query: `
        CREATE TABLE IF NOT EXISTS attendance_records (
            id SERIAL PRIMARY KEY,
            user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            check_in_time TIMESTAMPTZ NOT NULL,
            check_in_latitude DOUBLE PRECISION,
            check_in_longitude DOUBLE PRECISION,
            check_out_time TIMESTAMPTZ,
            check_out_latitude DOUBLE PRECISION,
            check_out_longitude DOUBLE PRECISION,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CONSTRAINT attendance_records_check_out_after_check_in
                CHECK (check_out_time IS NULL OR check_out_time >= check_in_time)
        );`,
	},
	{
		Index:       3,
		Description: "Create indexes: attendance_records.",
		Query: `
        CREATE INDEX IF NOT EXISTS idx_attendance_records_user_id ON attendance_records (user_id);
        CREATE INDEX IF NOT EXISTS idx_attendance_records_check_in_time ON attendance_records (check_in_time);
        CREATE INDEX IF NOT EXISTS idx_attendance_records_check_out_time ON attendance_records (check_out_time);`,
	},
	{
		Index:       4,
		Description: "Create unique index: one open attendance record per user.",
		Query: `
        CREATE UNIQUE INDEX IF NOT EXISTS attendance_records_one_open_per_user
            ON attendance_records (user_id) WHERE check_out_time IS NULL;`,
	},
	{
		Index:       5,
		Description: "Create index: users role.",
		Query: `
        CREATE INDEX IF NOT EXISTS idx_users_role_active ON users (role, is_active);`,
	},
}

// Schemes returns the migrations in the order they are applied.
func Schemes() []Scheme {
	out := make([]Scheme, len(scheme))
	copy(out, scheme)
	return out
}

// MigrateUP applies every scheme newer than the recorded version. A version
// left dirty by a failed run is retried first.
func MigrateUP(ctx context.Context, db *postgresql.Database, log zerolog.Logger) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (version int not null, dirty bool not null, error text);
		INSERT INTO schema_migrations (version, dirty)
		SELECT 0, false WHERE NOT EXISTS (SELECT 1 FROM schema_migrations);
	`); err != nil {
		return errors.Wrap(err, "creating schema_migrations")
	}

	var (
		version int
		dirty   bool
		er      *string
	)
	err := db.QueryRowContext(ctx, "SELECT version, dirty, error FROM schema_migrations LIMIT 1").Scan(&version, &dirty, &er)
	if err != nil {
		return errors.Wrap(err, "reading schema_migrations")
	}

	if dirty {
		if er != nil {
			log.Warn().Int("version", version).Str("error", *er).Msg("retrying dirty migration")
		}
		for _, s := range scheme {
			if s.Index != version {
				continue
			}
			if err := apply(ctx, db, s); err != nil {
				return err
			}
			if _, err := db.ExecContext(ctx, `UPDATE schema_migrations SET dirty = false, error = null`); err != nil {
				return errors.Wrap(err, "clearing dirty migration")
			}
		}
	}

	for _, s := range scheme {
		if s.Index <= version {
			continue
		}
		if err := apply(ctx, db, s); err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, `UPDATE schema_migrations SET version = ?`, s.Index); err != nil {
			return errors.Wrapf(err, "recording migration %d", s.Index)
		}
		log.Info().Int("version", s.Index).Str("description", s.Description).Msg("migration applied")
	}

	return nil
}

func apply(ctx context.Context, db *postgresql.Database, s Scheme) error {
	if _, err := db.ExecContext(ctx, s.Query); err != nil {
		if _, uerr := db.ExecContext(ctx,
			`UPDATE schema_migrations SET error = ?, version = ?, dirty = true`, err.Error(), s.Index); uerr != nil {
			return errors.Wrap(uerr, "marking migration dirty")
		}
		return errors.Wrap(err, fmt.Sprintf("migrate error version: %d", s.Index))
	}
	return nil
}
