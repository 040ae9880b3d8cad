package metrics

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"geoattendance/backend/internal/pkg/apperr"
)

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "validation", Result(apperr.Validation("location is required")))
	assert.Equal(t, "conflict", Result(errors.Wrap(apperr.Conflict("dup"), "check in")))
	assert.Equal(t, "not_found", Result(apperr.NotFound("missing")))
	assert.Equal(t, "error", Result(errors.New("boom")))
}
