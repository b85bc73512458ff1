/*
errors.go - Boundary errors for snapshot conversion

PURPOSE:
  Everything the factory rejects is a client error: the caller sent a
  snapshot the engine cannot compute with. Sentinels say what was wrong,
  FieldError says where.

USAGE:
  snap, err := factory.ParseSnapshot(body)
  if errors.Is(err, factory.ErrUnknownFrequency) { ... }

  var fe *factory.FieldError
  if errors.As(err, &fe) {
      log.Printf("bad field %s", fe.Field) // e.g. "incomes[0].frequency"
  }

  if factory.IsClientError(err) { // 400 rather than 500
      ...
  }
*/
package factory

import (
	"errors"
	"fmt"

	"github.com/warp/cashflow-engine/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownFrequency is calendar's sentinel, re-exported for callers that
	// only import the factory.
	ErrUnknownFrequency = calendar.ErrUnknownFrequency

	// ErrInvalidDate is calendar's sentinel for malformed YYYY-MM-DD strings.
	ErrInvalidDate = calendar.ErrInvalidDate

	// ErrInvalidAmount is returned for negative money amounts and
	// non-positive purchase prices.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidDueDay is returned for card due days outside 1-31.
	ErrInvalidDueDay = errors.New("due day must be between 1 and 31")

	// ErrInvalidInstalments is returned for a negative instalment count.
	ErrInvalidInstalments = errors.New("instalments remaining must not be negative")

	// ErrMissingField is returned when a required field is empty.
	ErrMissingField = errors.New("missing required field")

	// ErrMalformedJSON is returned when the body is not valid JSON.
	ErrMalformedJSON = errors.New("malformed JSON")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// FieldError pins a validation failure to one field of the input.
type FieldError struct {
	Field string // JSON path, e.g. "credit_cards[1].due_day"
	Value any
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v (got %v)", e.Field, e.Err, e.Value)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErr(field string, value any, err error) error {
	return &FieldError{Field: field, Value: value, Err: err}
}

// IsClientError reports whether err was caused by bad input.
func IsClientError(err error) bool {
	if err == nil {
		return false
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		return true
	}
	for _, sentinel := range []error{
		ErrUnknownFrequency,
		calendar.ErrFrequencyNotAllowed,
		ErrInvalidDate,
		ErrInvalidAmount,
		ErrInvalidDueDay,
		ErrInvalidInstalments,
		ErrMissingField,
		ErrMalformedJSON,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
