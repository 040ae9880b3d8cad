package ledger

import (
	"math"

	"geoattendance/backend/internal/entity"
	"geoattendance/backend/internal/pkg/apperr"
)

var (
	ErrLocationRequired = apperr.Validation("location is required")
	ErrOutsideOffice    = apperr.Validation("distance from office is greater than office radius")
)

// checkLocation validates coords against the policy.
func (l *Ledger) checkLocation(coords entity.Coordinates) error {
	if !coords.Present() {
		if l.policy.RequireLocation {
			return ErrLocationRequired
		}
		return nil
	}

	if coords.Latitude == nil || coords.Longitude == nil {
		return apperr.Validation("latitude and longitude must be provided together")
	}
	if err := validLatLng(*coords.Latitude, *coords.Longitude); err != nil {
		return err
	}

	if l.policy.Office != nil && !l.policy.Office.Contains(*coords.Latitude, *coords.Longitude) {
		return ErrOutsideOffice
	}
	return nil
}

func validLatLng(lat, lng float64) error {
	switch {
	case math.IsNaN(lat) || math.IsInf(lat, 0):
		return apperr.Validation("latitude must be a finite number")
	case math.IsNaN(lng) || math.IsInf(lng, 0):
		return apperr.Validation("longitude must be a finite number")
	case lat < -90 || lat > 90:
		return apperr.Validation("latitude must be between -90 and 90")
	case lng < -180 || lng > 180:
		return apperr.Validation("longitude must be between -180 and 180")
	}
	return nil
}
