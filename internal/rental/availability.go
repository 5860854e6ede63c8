package rental

import (
	"context"
	"errors"
	"strings"

	"github.com/geocoder89/rentalhub/internal/domain/booking"
	"github.com/geocoder89/rentalhub/internal/domain/car"
)

type OverlapCounter interface {
	CountOverlapping(ctx context.Context, carID int64, r booking.DateRange) (int, error)
}

type CarReader interface {
	GetByID(ctx context.Context, id int64) (car.Car, error)
}

// Availability answers whether a car is free for a date range. Every booking
// that is not cancelled blocks its [start, end) days, completed ones included.
//
// This is the read-only check used by the catalog page. The booking create path
// repeats the same predicate inside its own transaction.
type Availability struct {
	bookings OverlapCounter
	cars     CarReader
}

func NewAvailability(bookings OverlapCounter, cars CarReader) *Availability {
	return &Availability{bookings: bookings, cars: cars}
}

func (a *Availability) IsAvailable(ctx context.Context, carID int64, r booking.DateRange) (bool, error) {
	n, err := a.bookings.CountOverlapping(ctx, carID, r)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Check is the request-facing form: raw YYYY-MM-DD strings, validated before
// any storage access.
func (a *Availability) Check(ctx context.Context, carID int64, startRaw, endRaw string) (bool, error) {
	r, err := ParseRange(carID, startRaw, endRaw)
	if err != nil {
		return false, err
	}

	if _, err := a.cars.GetByID(ctx, carID); err != nil {
		if errors.Is(err, car.ErrNotFound) {
			return false, booking.ErrCarNotFound
		}
		return false, err
	}

	return a.IsAvailable(ctx, carID, r)
}

// ParseRange validates presence and order of a booking range. It does not
// apply the "not in the past" rule, which only matters for new bookings.
func ParseRange(carID int64, startRaw, endRaw string) (booking.DateRange, error) {
	startRaw = strings.TrimSpace(startRaw)
	endRaw = strings.TrimSpace(endRaw)

	if carID <= 0 || startRaw == "" || endRaw == "" {
		return booking.DateRange{}, ErrMissingFields
	}

	start, err := booking.ParseDate(startRaw)
	if err != nil {
		return booking.DateRange{}, err
	}
	end, err := booking.ParseDate(endRaw)
	if err != nil {
		return booking.DateRange{}, err
	}

	r := booking.DateRange{Start: start, End: end}
	if !r.Valid() {
		return booking.DateRange{}, ErrInvalidRange
	}

	return r, nil
}
