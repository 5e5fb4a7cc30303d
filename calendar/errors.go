package calendar

import "errors"

var (
	// ErrInvalidDate is returned when a date key is not yyyy-MM-dd.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidPeriod is returned when a period ends before it starts.
	ErrInvalidPeriod = errors.New("invalid period: end before start")
)
