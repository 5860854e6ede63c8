package rental

import "errors"

var (
	ErrUnauthenticated = errors.New("please log in to continue")
	ErrForbidden       = errors.New("administrator access required")

	ErrMissingFields = errors.New("car, start date and end date are required")
	ErrInvalidID     = errors.New("invalid id")
	ErrStartInPast   = errors.New("start date cannot be in the past")
	ErrInvalidRange  = errors.New("end date must be after start date")
)
