package ledger

import (
	"context"
	"time"

	"geoattendance/backend/internal/entity"
)

// Repository is the attendance storage used by the Ledger.
type Repository interface {
	// WithUserLock runs fn in a transaction holding a row lock on the user.
	WithUserLock(ctx context.Context, userID int, fn func(ctx context.Context, tx Tx) error) error
	FindOpen(ctx context.Context, userID int) (*entity.AttendanceRecord, error)
	List(ctx context.Context, userID int, r Range) ([]entity.AttendanceRecord, error)
	ListWithUser(ctx context.Context, f Filter) ([]entity.AttendanceWithUser, error)
}

// Tx is the transactional view handed to WithUserLock callbacks.
type Tx interface {
	FindOpen(ctx context.Context, userID int) (*entity.AttendanceRecord, error)
	HasCompletedBetween(ctx context.Context, userID int, from, to time.Time) (bool, error)
	Insert(ctx context.Context, rec *entity.AttendanceRecord) error
	Close(ctx context.Context, rec *entity.AttendanceRecord) error
}

// Filter narrows the admin listing.
type Filter struct {
	UserID *int
	Range
}
