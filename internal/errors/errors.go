// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Postgres error codes translated at the repository boundary.
const (
	pqUniqueViolation     = "23505"
	pqNotNullViolation    = "23502"
	pqForeignKeyViolation = "23503"
)

// ErrNotFound is returned when a record does not exist.
type ErrNotFound struct {
	Model string
	ID    int64
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Model, e.ID)
}

func NewNotFound(model string, id int64) error {
	return &ErrNotFound{Model: model, ID: id}
}

// ErrMissingRequiredField is returned when a required field is absent or blank.
type ErrMissingRequiredField struct {
	Model string
	Field string
}

func (e *ErrMissingRequiredField) Error() string {
	return fmt.Sprintf("%s: missing required field %q", e.Model, e.Field)
}

func NewMissingRequiredField(model, field string) error {
	return &ErrMissingRequiredField{Model: model, Field: field}
}

// ErrDuplicateKey is returned when a write violates a uniqueness constraint.
type ErrDuplicateKey struct {
	Model      string
	Constraint string
	Detail     string
}

func (e *ErrDuplicateKey) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: duplicate key violates %s: %s", e.Model, e.Constraint, e.Detail)
	}
	return fmt.Sprintf("%s: duplicate key violates %s", e.Model, e.Constraint)
}

// ErrInvalidReference is returned when a write points at a record that doesn't exist.
type ErrInvalidReference struct {
	Model      string
	Constraint string
}

func (e *ErrInvalidReference) Error() string {
	return fmt.Sprintf("%s: invalid reference (%s)", e.Model, e.Constraint)
}

// ErrInvalidChannel is returned for an unknown channel, or for a channel
// without the requested gateway tables.
type ErrInvalidChannel struct {
	Channel string
}

func (e *ErrInvalidChannel) Error() string {
	return fmt.Sprintf("invalid channel %q", e.Channel)
}

func NewInvalidChannel(channel string) error {
	return &ErrInvalidChannel{Channel: channel}
}

// FromPQ converts constraint violations reported by Postgres into typed
// errors. Anything else is returned unchanged.
func FromPQ(model string, err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		return &ErrDuplicateKey{Model: model, Constraint: pqErr.Constraint, Detail: pqErr.Detail}
	case pqNotNullViolation:
		return &ErrMissingRequiredField{Model: model, Field: pqErr.Column}
	case pqForeignKeyViolation:
		return &ErrInvalidReference{Model: model, Constraint: pqErr.Constraint}
	}
	return err
}

func IsNotFound(err error) bool {
	var e *ErrNotFound
	return errors.As(err, &e)
}

func IsDuplicateKey(err error) bool {
	var e *ErrDuplicateKey
	return errors.As(err, &e)
}

func IsMissingRequiredField(err error) bool {
	var e *ErrMissingRequiredField
	return errors.As(err, &e)
}
