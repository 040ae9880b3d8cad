package user

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"geoattendance/backend/internal/entity"
	"geoattendance/backend/internal/pkg/apperr"
	"geoattendance/backend/internal/pkg/repository/postgresql"
	"geoattendance/backend/internal/repository/postgres"
	"geoattendance/backend/internal/service/account"
)

var constraints = postgres.Constraints{
	"users_mobile_number_key": account.MsgMobileTaken,
	"users_employee_id_key":   account.MsgEmployeeIDTaken,
}

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

func (r Repository) FindByID(ctx context.Context, id int) (*entity.User, error) {
	return r.findOne(ctx, "u.id = ?", id)
}

func (r Repository) FindByMobile(ctx context.Context, mobile string) (*entity.User, error) {
	return r.findOne(ctx, "u.mobile_number = ?", mobile)
}

func (r Repository) FindByEmployeeID(ctx context.Context, employeeID string) (*entity.User, error) {
	return r.findOne(ctx, "u.employee_id = ?", employeeID)
}

// FindByIdentifier matches a mobile number or an employee ID, preferring the
// mobile number when both match different users.
func (r Repository) FindByIdentifier(ctx context.Context, identifier string) (*entity.User, error) {
	var detail entity.User

	err := identifierQuery(r.DB, &detail, identifier).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal(err, "selecting user by identifier")
	}
	return &detail, nil
}

func (r Repository) findOne(ctx context.Context, where string, arg interface{}) (*entity.User, error) {
	var detail entity.User

	err := r.NewSelect().Model(&detail).Where(where, arg).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal(err, "selecting user")
	}
	return &detail, nil
}

func (r Repository) Create(ctx context.Context, u *entity.User) error {
	_, err := r.NewInsert().
		Model(u).
		Returning("*").
		Exec(ctx)
	return postgres.Translate(err, "inserting user", constraints)
}

// List returns users newest first.
func (r Repository) List(ctx context.Context, includeInactive bool) ([]entity.User, error) {
	list := []entity.User{}

	if err := listQuery(r.DB, &list, includeInactive).Scan(ctx); err != nil {
		return nil, apperr.Internal(err, "selecting users")
	}
	return list, nil
}

func identifierQuery(db bun.IDB, detail *entity.User, identifier string) *bun.SelectQuery {
	return db.NewSelect().
		Model(detail).
		Where("u.mobile_number = ? OR u.employee_id = ?", identifier, identifier).
		OrderExpr("(u.mobile_number = ?) DESC", identifier).
		Limit(1)
}

func listQuery(db bun.IDB, list *[]entity.User, includeInactive bool) *bun.SelectQuery {
	q := db.NewSelect().Model(list)
	if !includeInactive {
		q = q.Where("u.is_active = true")
	}
	return q.OrderExpr("u.created_at DESC").OrderExpr("u.id DESC")
}

// SetActive flips the active flag and returns the updated user, or nil when
// no such user exists.
func (r Repository) SetActive(ctx context.Context, id int, active bool) (*entity.User, error) {
	var detail entity.User

	_, err := r.NewUpdate().
		Model(&detail).
		Set("is_active = ?", active).
		Where("u.id = ?", id).
		Returning("*").
		Exec(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, postgres.Translate(err, "updating user status", constraints)
	}
	if detail.ID == 0 {
		return nil, nil
	}
	return &detail, nil
}

// Update applies the non-nil fields of upd.
func (r Repository) Update(ctx context.Context, id int, upd entity.UserUpdate) (*entity.User, error) {
	if upd.Empty() {
		return r.FindByID(ctx, id)
	}

	var detail entity.User

	q := r.NewUpdate().Model(&detail)
	if upd.Name != nil {
		q = q.Set("name = ?", *upd.Name)
	}
	if upd.MobileNumber != nil {
		q = q.Set("mobile_number = ?", *upd.MobileNumber)
	}
	if upd.EmployeeID != nil {
		q = q.Set("employee_id = ?", *upd.EmployeeID)
	}

	_, err := q.Where("u.id = ?", id).Returning("*").Exec(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, postgres.Translate(err, "updating user", constraints)
	}
	if detail.ID == 0 {
		return nil, nil
	}
	return &detail, nil
}
