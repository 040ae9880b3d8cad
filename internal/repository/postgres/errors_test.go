package postgres

import (
	"database/sql"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"geoattendance/backend/internal/pkg/apperr"
)

type fakePgError map[byte]string

func (e fakePgError) Error() string       { return "ERROR: " + e['M'] }
func (e fakePgError) Field(k byte) string { return e[k] }

func TestTranslate(t *testing.T) {
	constraints := Constraints{"users_mobile_number_key": "Mobile number already registered"}

	tests := []struct {
		name    string
		err     error
		kind    apperr.Kind
		message string
	}{
		{
			name:    "known unique constraint",
			err:     fakePgError{'C': "23505", 'n': "users_mobile_number_key"},
			kind:    apperr.KindConflict,
			message: "Mobile number already registered",
		},
		{
			name:    "unknown unique constraint",
			err:     errors.Wrap(fakePgError{'C': "23505", 'n': "other"}, "insert"),
			kind:    apperr.KindConflict,
			message: "Duplicate value",
		},
		{
			name:    "foreign key",
			err:     fakePgError{'C': "23503"},
			kind:    apperr.KindValidation,
			message: "Referenced record not found",
		},
		{
			name:    "not null",
			err:     fakePgError{'C': "23502", 'c': "name"},
			kind:    apperr.KindValidation,
			message: "Missing required field: name",
		},
		{
			name:    "other sqlstate",
			err:     fakePgError{'C': "40001"},
			kind:    apperr.KindInternal,
			message: "inserting user",
		},
		{
			name:    "plain error",
			err:     errors.New("connection refused"),
			kind:    apperr.KindInternal,
			message: "inserting user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Translate(tt.err, "inserting user", constraints)

			var appErr *apperr.Error
			if assert.True(t, errors.As(err, &appErr)) {
				assert.Equal(t, tt.kind, appErr.Kind)
				assert.Equal(t, tt.message, appErr.Message)
			}
		})
	}
}

func TestTranslate_NilAndUnknown(t *testing.T) {
	assert.NoError(t, Translate(nil, "x", nil))
	// Repositories handle missing rows themselves; anything else is internal.
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(Translate(sql.ErrNoRows, "x", nil)))
}
