package attendance

import (
	"context"

	"geoattendance/backend/internal/entity"
	"geoattendance/backend/internal/service/ledger"
	"geoattendance/backend/internal/service/report"
)

type Ledger interface {
	CheckIn(ctx context.Context, userID int, coords entity.Coordinates) (entity.AttendanceRecord, error)
	CheckOut(ctx context.Context, userID int, coords entity.Coordinates) (entity.AttendanceRecord, error)
	Status(ctx context.Context, userID int) (ledger.Status, error)
	ListForUser(ctx context.Context, userID int, r ledger.Range) (ledger.History, error)
	ListAll(ctx context.Context, f ledger.Filter) ([]entity.AttendanceWithUser, error)
}

type User interface {
	FindByID(ctx context.Context, id int) (*entity.User, error)
}

type Report interface {
	Excel(records []entity.AttendanceWithUser, filter report.Filter) ([]byte, error)
	PDF(records []entity.AttendanceWithUser, filter report.Filter) ([]byte, error)
	Filename(ext string) string
}
