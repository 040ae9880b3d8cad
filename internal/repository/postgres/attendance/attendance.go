package attendance

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"geoattendance/backend/internal/entity"
	"geoattendance/backend/internal/pkg/apperr"
	"geoattendance/backend/internal/pkg/repository/postgresql"
	"geoattendance/backend/internal/repository/postgres"
	"geoattendance/backend/internal/service/ledger"
)

// openRecordIndex is the partial unique index allowing one open record per user.
const openRecordIndex = "attendance_records_one_open_per_user"

var constraints = postgres.Constraints{
	openRecordIndex: ledger.MsgAlreadyCheckedIn,
}

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

// WithUserLock runs fn in a transaction after locking the user's row.
func (r Repository) WithUserLock(ctx context.Context, userID int, fn func(ctx context.Context, tx ledger.Tx) error) error {
	return r.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var id int
		err := tx.NewSelect().
			Table("users").
			Column("id").
			Where("id = ?", userID).
			For("UPDATE").
			Scan(ctx, &id)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("User not found")
		}
		if err != nil {
			return apperr.Internal(err, "locking user")
		}

		return fn(ctx, queries{db: tx})
	})
}

func (r Repository) FindOpen(ctx context.Context, userID int) (*entity.AttendanceRecord, error) {
	return queries{db: r.DB}.FindOpen(ctx, userID)
}

func (r Repository) List(ctx context.Context, userID int, rg ledger.Range) ([]entity.AttendanceRecord, error) {
	var list []entity.AttendanceRecord

	if err := listQuery(r.DB, &list, userID, rg).Scan(ctx); err != nil {
		return nil, apperr.Internal(err, "selecting attendance")
	}
	return list, nil
}

func (r Repository) ListWithUser(ctx context.Context, f ledger.Filter) ([]entity.AttendanceWithUser, error) {
	var list []entity.AttendanceWithUser

	if err := listWithUserQuery(r.DB, &list, f).Scan(ctx); err != nil {
		return nil, apperr.Internal(err, "selecting attendance list")
	}
	return list, nil
}

func listQuery(db bun.IDB, list *[]entity.AttendanceRecord, userID int, rg ledger.Range) *bun.SelectQuery {
	q := db.NewSelect().
		Model(list).
		Where("ar.user_id = ?", userID)
	return applyRange(q, rg).
		OrderExpr("ar.check_in_time DESC").
		OrderExpr("ar.id DESC")
}

func listWithUserQuery(db bun.IDB, list *[]entity.AttendanceWithUser, f ledger.Filter) *bun.SelectQuery {
	q := db.NewSelect().
		Model(list).
		ColumnExpr("ar.*").
		ColumnExpr("u.name AS user_name").
		ColumnExpr("u.employee_id").
		ColumnExpr("u.mobile_number").
		Join("JOIN users AS u ON u.id = ar.user_id")

	if f.UserID != nil {
		q = q.Where("ar.user_id = ?", *f.UserID)
	}
	return applyRange(q, f.Range).
		OrderExpr("ar.check_in_time DESC").
		OrderExpr("ar.id DESC")
}

func applyRange(q *bun.SelectQuery, rg ledger.Range) *bun.SelectQuery {
	if rg.From != nil {
		q = q.Where("ar.check_in_time >= ?", *rg.From)
	}
	if rg.To != nil {
		q = q.Where("ar.check_in_time < ?", *rg.To)
	}
	return q
}

// queries implements ledger.Tx on top of a handle or a transaction.
type queries struct {
	db bun.IDB
}

func (q queries) FindOpen(ctx context.Context, userID int) (*entity.AttendanceRecord, error) {
	var rec entity.AttendanceRecord

	err := findOpenQuery(q.db, &rec, userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal(err, "selecting open attendance")
	}
	return &rec, nil
}

func (q queries) HasCompletedBetween(ctx context.Context, userID int, from, to time.Time) (bool, error) {
	exists, err := q.db.NewSelect().
		Model((*entity.AttendanceRecord)(nil)).
		Where("ar.user_id = ?", userID).
		Where("ar.check_out_time IS NOT NULL").
		Where("ar.check_in_time >= ?", from).
		Where("ar.check_in_time < ?", to).
		Exists(ctx)
	if err != nil {
		return false, apperr.Internal(err, "checking completed attendance")
	}
	return exists, nil
}

func (q queries) Insert(ctx context.Context, rec *entity.AttendanceRecord) error {
	_, err := q.db.NewInsert().
		Model(rec).
		Returning("*").
		Exec(ctx)
	return postgres.Translate(err, "inserting attendance", constraints)
}

func (q queries) Close(ctx context.Context, rec *entity.AttendanceRecord) error {
	res, err := closeQuery(q.db, rec).Exec(ctx)
	if err != nil {
		return postgres.Translate(err, "closing attendance", constraints)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal(err, "closing attendance")
	}
	if n == 0 {
		return apperr.NotFound(ledger.MsgNoActiveCheckIn)
	}
	return nil
}

func findOpenQuery(db bun.IDB, rec *entity.AttendanceRecord, userID int) *bun.SelectQuery {
	return db.NewSelect().
		Model(rec).
		Where("ar.user_id = ?", userID).
		Where("ar.check_out_time IS NULL").
		Limit(1)
}

// closeQuery only matches a record that is still open, so a concurrent
// check-out leaves zero rows affected.
func closeQuery(db bun.IDB, rec *entity.AttendanceRecord) *bun.UpdateQuery {
	return db.NewUpdate().
		Model(rec).
		Column("check_out_time", "check_out_latitude", "check_out_longitude").
		WherePK().
		Where("ar.check_out_time IS NULL")
}
