package calendar

import "errors"

var (
	// ErrInvalidDate is returned when a date string is not zero-padded YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

	// ErrUnknownFrequency is returned when a frequency string is not one of
	// weekly, fortnightly, monthly, quarterly, yearly.
	ErrUnknownFrequency = errors.New("unknown frequency")

	// ErrFrequencyNotAllowed is returned when a valid frequency is not accepted
	// for a particular kind of record (e.g. a yearly income).
	ErrFrequencyNotAllowed = errors.New("frequency not allowed")
)
