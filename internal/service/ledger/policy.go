package ledger

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

const earthRadiusKm = 6371.0

// Policy is the set of attendance rules applied by the Ledger.
type Policy struct {
	// OnePerDay rejects a check-in once a completed cycle exists for the
	// current calendar day.
	OnePerDay bool
	// RequireLocation rejects check-in/check-out without coordinates.
	RequireLocation bool
	// Location defines calendar days; nil means UTC.
	Location *time.Location
	// Office, when set, restricts check-in/check-out to its radius.
	Office *Geofence
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// dayBounds returns the half-open interval of the calendar day containing t.
func (p Policy) dayBounds(t time.Time) (time.Time, time.Time) {
	t = t.In(p.location())
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// Geofence is a circle around the office.
type Geofence struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

func NewGeofence(lat, lng, radius float64) (*Geofence, error) {
	if radius <= 0 {
		return nil, nil
	}
	if err := validLatLng(lat, lng); err != nil {
		return nil, errors.Wrap(err, "office location")
	}
	return &Geofence{Latitude: lat, Longitude: lng, RadiusMeters: radius}, nil
}

// Contains reports whether the point lies within the radius.
func (g Geofence) Contains(lat, lng float64) bool {
	return CalculateDistance(g.Latitude, g.Longitude, lat, lng) <= g.RadiusMeters
}

// CalculateDistance returns the great-circle distance in meters.
func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	φ1 := lat1 * math.Pi / 180.0
	φ2 := lat2 * math.Pi / 180.0
	Δφ := (lat2 - lat1) * math.Pi / 180.0
	Δλ := (lon2 - lon1) * math.Pi / 180.0

	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c * 1000
}
