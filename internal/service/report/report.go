// Package report renders attendance records as Excel and PDF documents.
package report

import (
	"fmt"
	"strconv"
	"time"

	"geoattendance/backend/internal/entity"
)

const (
	Title     = "Employee Attendance Report"
	SheetName = "Attendance Report"
	system    = "Employee Attendance System"

	notAvailable  = "N/A"
	notCheckedOut = "Not checked out"

	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Columns is the header shared by every format.
var Columns = []string{
	"S.No",
	"Employee ID",
	"Name",
	"Date",
	"Check-In Time",
	"Check-In Location",
	"Check-Out Time",
	"Check-Out Location",
}

// Filter describes the report scope as the admin typed it.
type Filter struct {
	From         string
	To           string
	EmployeeName string
}

// Formatter renders reports with times in a fixed location.
type Formatter struct {
	loc *time.Location
	now func() time.Time
}

func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{loc: loc, now: time.Now}
}

// WithClock replaces the time source used for the "Generated" stamp.
func (f *Formatter) WithClock(now func() time.Time) *Formatter {
	f.now = now
	return f
}

// FilterLine is the subtitle describing when and for what the report was made.
func (f *Formatter) FilterLine(filter Filter) string {
	line := "Generated: " + f.now().In(f.loc).Format(dateLayout+" "+timeLayout)

	if filter.From != "" || filter.To != "" {
		from, to := filter.From, filter.To
		if from == "" {
			from = "Start"
		}
		if to == "" {
			to = "Now"
		}
		line += fmt.Sprintf(" | Date Range: %s to %s", from, to)
	}
	if filter.EmployeeName != "" {
		line += " | Employee: " + filter.EmployeeName
	}
	return line
}

// Filename returns the download name for ext, e.g. attendance_report_2024-03-10.xlsx.
func (f *Formatter) Filename(ext string) string {
	return fmt.Sprintf("attendance_report_%s.%s", f.now().In(f.loc).Format(dateLayout), ext)
}

// row returns the cell texts of record i. precision is the number of
// decimals used for coordinates.
func (f *Formatter) row(i int, r entity.AttendanceWithUser, precision int) []string {
	employeeID := notAvailable
	if r.EmployeeID != nil && *r.EmployeeID != "" {
		employeeID = *r.EmployeeID
	}

	in := r.CheckInTime.In(f.loc)

	checkOut := notCheckedOut
	if r.CheckOutTime != nil {
		checkOut = r.CheckOutTime.In(f.loc).Format(timeLayout)
	}

	return []string{
		strconv.Itoa(i + 1),
		employeeID,
		r.UserName,
		in.Format(dateLayout),
		in.Format(timeLayout),
		location(r.CheckInLatitude, r.CheckInLongitude, precision),
		checkOut,
		location(r.CheckOutLatitude, r.CheckOutLongitude, precision),
	}
}

func location(lat, lng *float64, precision int) string {
	if lat == nil || lng == nil {
		return notAvailable
	}
	return fmt.Sprintf("%.*f, %.*f", precision, *lat, precision, *lng)
}
