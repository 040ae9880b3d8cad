package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// AttendanceRecord is one check-in/check-out cycle. A record with a nil
// CheckOutTime is the user's open record.
type AttendanceRecord struct {
	bun.BaseModel `bun:"table:attendance_records,alias:ar"`

	ID                int        `json:"id"                bun:"id,pk,autoincrement"`
	UserID            int        `json:"userId"            bun:"user_id"`
	CheckInTime       time.Time  `json:"checkInTime"       bun:"check_in_time"`
	CheckInLatitude   *float64   `json:"checkInLatitude"   bun:"check_in_latitude"`
	CheckInLongitude  *float64   `json:"checkInLongitude"  bun:"check_in_longitude"`
	CheckOutTime      *time.Time `json:"checkOutTime"      bun:"check_out_time"`
	CheckOutLatitude  *float64   `json:"checkOutLatitude"  bun:"check_out_latitude"`
	CheckOutLongitude *float64   `json:"checkOutLongitude" bun:"check_out_longitude"`
	CreatedAt         time.Time  `json:"createdAt"         bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (r AttendanceRecord) IsOpen() bool {
	return r.CheckOutTime == nil
}

// AttendanceWithUser is a record joined with the identity of its owner.
type AttendanceWithUser struct {
	AttendanceRecord `bun:",extend"`

	UserName     string  `json:"userName"     bun:"user_name"`
	EmployeeID   *string `json:"employeeId"   bun:"employee_id"`
	MobileNumber string  `json:"mobileNumber" bun:"mobile_number"`
}

// Coordinates is an optional location reported by the client. Both fields
// are nil when the client could not determine its position.
type Coordinates struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (c Coordinates) Present() bool {
	return c.Latitude != nil || c.Longitude != nil
}
