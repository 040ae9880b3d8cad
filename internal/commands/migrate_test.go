package commands

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemesOrdered(t *testing.T) {
	schemes := Schemes()
	require.NotEmpty(t, schemes)

	for i, s := range schemes {
		assert.Equal(t, i+1, s.Index, s.Description)
		assert.NotEmpty(t, strings.TrimSpace(s.Query))
	}
}

func TestSchemesDeclareConstraints(t *testing.T) {
	var all strings.Builder
	for _, s := range Schemes() {
		all.WriteString(s.Query)
	}
	sql := all.String()

	// Repositories translate violations of these names into client messages.
	for _, name := range []string{
		"users_mobile_number_key",
		"users_employee_id_key",
		"attendance_records_one_open_per_user",
	} {
		assert.Contains(t, sql, name)
	}
	assert.Contains(t, sql, "WHERE check_out_time IS NULL")
	assert.Contains(t, sql, "ON DELETE CASCADE")
	assert.Contains(t, sql, "TIMESTAMPTZ")
}
