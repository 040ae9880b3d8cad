// Package postgres holds helpers shared by the bun repositories.
package postgres

import (
	"fmt"

	"github.com/pkg/errors"

	"geoattendance/backend/internal/pkg/apperr"
)

// SQLSTATE codes handled by Translate.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
)

// pgError is implemented by pgdriver.Error.
type pgError interface {
	error
	Field(k byte) string
}

// Constraints maps unique constraint names to client messages.
type Constraints map[string]string

// Translate converts storage errors into application errors. msg describes
// the failed operation for internal errors.
func Translate(err error, msg string, constraints Constraints) error {
	if err == nil {
		return nil
	}

	var pgErr pgError
	if !errors.As(err, &pgErr) {
		return apperr.Internal(err, msg)
	}

	switch pgErr.Field('C') {
	case codeUniqueViolation:
		if m, ok := constraints[pgErr.Field('n')]; ok {
			return &apperr.Error{Kind: apperr.KindConflict, Message: m, Err: err}
		}
		return &apperr.Error{Kind: apperr.KindConflict, Message: "Duplicate value", Err: err}
	case codeForeignKeyViolation:
		return &apperr.Error{Kind: apperr.KindValidation, Message: "Referenced record not found", Err: err}
	case codeNotNullViolation:
		return &apperr.Error{
			Kind:    apperr.KindValidation,
			Message: fmt.Sprintf("Missing required field: %s", pgErr.Field('c')),
			Err:     err,
		}
	}

	return apperr.Internal(err, msg)
}
