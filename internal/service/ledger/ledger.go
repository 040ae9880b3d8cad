// Package ledger owns the attendance state machine: a user is either
// checked in (one open record) or checked out.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"geoattendance/backend/internal/entity"
	"geoattendance/backend/internal/pkg/apperr"
	"geoattendance/backend/internal/pkg/lock"
	"geoattendance/backend/internal/pkg/metrics"
)

const (
	MsgAlreadyCheckedIn = "You are already checked in. Please check out first."
	MsgCompletedToday   = "You have already completed attendance today."
	MsgNoActiveCheckIn  = "No active check-in found. Please check in first."
	MsgBusy             = "Another attendance request is in progress. Please try again."
)

// Status is the current state of a user.
type Status struct {
	IsCheckedIn bool                     `json:"isCheckedIn"`
	Current     *entity.AttendanceRecord `json:"currentRecord"`
}

// Summary aggregates a history result set.
type Summary struct {
	TotalRecords     int        `json:"totalRecords"`
	CompletedRecords int        `json:"completedRecords"`
	FirstCheckIn     *time.Time `json:"firstCheckIn"`
	LastCheckIn      *time.Time `json:"lastCheckIn"`
}

// History is a user's records, newest first, with their summary.
type History struct {
	Records []entity.AttendanceRecord `json:"records"`
	Summary Summary                   `json:"summary"`
}

type Ledger struct {
	repo   Repository
	locker lock.Locker
	policy Policy
	now    func() time.Time
	log    zerolog.Logger
}

func New(repo Repository, locker lock.Locker, policy Policy, log zerolog.Logger) *Ledger {
	if locker == nil {
		locker = lock.NewLocal(0)
	}
	return &Ledger{
		repo:   repo,
		locker: locker,
		policy: policy,
		now:    time.Now,
		log:    log,
	}
}

// WithClock replaces the time source.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

func (l *Ledger) Policy() Policy {
	return l.policy
}

func (l *Ledger) CheckIn(ctx context.Context, userID int, coords entity.Coordinates) (entity.AttendanceRecord, error) {
	rec, err := l.checkIn(ctx, userID, coords)
	metrics.CheckInsTotal.WithLabelValues(metrics.Result(err)).Inc()
	return rec, err
}

func (l *Ledger) checkIn(ctx context.Context, userID int, coords entity.Coordinates) (entity.AttendanceRecord, error) {
	if err := l.checkLocation(coords); err != nil {
		return entity.AttendanceRecord{}, err
	}

	var rec entity.AttendanceRecord

	err := l.critical(ctx, userID, func(ctx context.Context, tx Tx) error {
		open, err := tx.FindOpen(ctx, userID)
		if err != nil {
			return err
		}
		if open != nil {
			return apperr.Conflict(MsgAlreadyCheckedIn)
		}

		now := l.now()

		if l.policy.OnePerDay {
			start, end := l.policy.dayBounds(now)
			done, err := tx.HasCompletedBetween(ctx, userID, start, end)
			if err != nil {
				return err
			}
			if done {
				return apperr.Conflict(MsgCompletedToday)
			}
		}

		rec = entity.AttendanceRecord{
			UserID:           userID,
			CheckInTime:      now,
			CheckInLatitude:  coords.Latitude,
			CheckInLongitude: coords.Longitude,
		}
		return tx.Insert(ctx, &rec)
	})
	if err != nil {
		return entity.AttendanceRecord{}, err
	}

	l.log.Info().Int("userId", userID).Int("recordId", rec.ID).Msg("checked in")
	return rec, nil
}

func (l *Ledger) CheckOut(ctx context.Context, userID int, coords entity.Coordinates) (entity.AttendanceRecord, error) {
	rec, err := l.checkOut(ctx, userID, coords)
	metrics.CheckOutsTotal.WithLabelValues(metrics.Result(err)).Inc()
	return rec, err
}

func (l *Ledger) checkOut(ctx context.Context, userID int, coords entity.Coordinates) (entity.AttendanceRecord, error) {
	if err := l.checkLocation(coords); err != nil {
		return entity.AttendanceRecord{}, err
	}

	var rec entity.AttendanceRecord

	err := l.critical(ctx, userID, func(ctx context.Context, tx Tx) error {
		open, err := tx.FindOpen(ctx, userID)
		if err != nil {
			return err
		}
		if open == nil {
			return apperr.NotFound(MsgNoActiveCheckIn)
		}

		now := l.now()
		if now.Before(open.CheckInTime) {
			now = open.CheckInTime
		}

		open.CheckOutTime = &now
		open.CheckOutLatitude = coords.Latitude
		open.CheckOutLongitude = coords.Longitude

		if err := tx.Close(ctx, open); err != nil {
			return err
		}
		rec = *open
		return nil
	})
	if err != nil {
		return entity.AttendanceRecord{}, err
	}

	l.log.Info().Int("userId", userID).Int("recordId", rec.ID).Msg("checked out")
	return rec, nil
}

func (l *Ledger) Status(ctx context.Context, userID int) (Status, error) {
	open, err := l.repo.FindOpen(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	return Status{IsCheckedIn: open != nil, Current: open}, nil
}

func (l *Ledger) ListForUser(ctx context.Context, userID int, r Range) (History, error) {
	records, err := l.repo.List(ctx, userID, r)
	if err != nil {
		return History{}, err
	}
	if records == nil {
		records = []entity.AttendanceRecord{}
	}
	return History{Records: records, Summary: Summarize(records)}, nil
}

func (l *Ledger) ListAll(ctx context.Context, f Filter) ([]entity.AttendanceWithUser, error) {
	records, err := l.repo.ListWithUser(ctx, f)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []entity.AttendanceWithUser{}
	}
	return records, nil
}

// Summarize computes the summary of records.
func Summarize(records []entity.AttendanceRecord) Summary {
	s := Summary{TotalRecords: len(records)}

	for i := range records {
		t := records[i].CheckInTime
		if !records[i].IsOpen() {
			s.CompletedRecords++
		}
		if s.FirstCheckIn == nil || t.Before(*s.FirstCheckIn) {
			s.FirstCheckIn = &t
		}
		if s.LastCheckIn == nil || t.After(*s.LastCheckIn) {
			s.LastCheckIn = &t
		}
	}
	return s
}

// critical runs fn while holding the user's lock and row lock.
func (l *Ledger) critical(ctx context.Context, userID int, fn func(ctx context.Context, tx Tx) error) error {
	unlock, err := l.locker.Lock(ctx, fmt.Sprintf("attendance:user:%d", userID))
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return apperr.Conflict(MsgBusy)
		}
		return apperr.Internal(err, "acquiring attendance lock")
	}
	defer unlock()

	return l.repo.WithUserLock(ctx, userID, fn)
}
