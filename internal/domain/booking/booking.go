package booking

import (
	"errors"
	"time"
)

type Booking struct {
	ID            int64         `json:"id" db:"id"`
	UserID        int64         `json:"user_id" db:"user_id"`
	CarID         int64         `json:"car_id" db:"car_id"`
	StartDate     Date          `json:"start_date" db:"start_date"`
	EndDate       Date          `json:"end_date" db:"end_date"`
	TotalPrice    float64       `json:"total_price" db:"total_price"`
	Status        Status        `json:"status" db:"status"`
	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

func (b Booking) Range() DateRange {
	return DateRange{Start: b.StartDate.Time, End: b.EndDate.Time}
}

// View is a booking joined with the car's display fields.
type View struct {
	Booking
	Brand       string  `json:"brand" db:"brand"`
	Model       string  `json:"model" db:"model"`
	Category    string  `json:"category" db:"category"`
	PricePerDay float64 `json:"price_per_day,omitempty" db:"price_per_day"`
}

// AdminView adds the customer columns shown on the admin bookings list.
type AdminView struct {
	View
	CustomerName  string `json:"customer_name" db:"customer_name"`
	CustomerEmail string `json:"customer_email" db:"customer_email"`
}

var (
	ErrNotFound          = errors.New("booking not found")
	ErrCarNotFound       = errors.New("car not found")
	ErrCarUnavailable    = errors.New("car is not available")
	ErrDatesUnavailable  = errors.New("car is already booked for the selected dates")
	ErrAlreadyCancelled  = errors.New("booking is already cancelled")
	ErrInvalidTransition = errors.New("booking status cannot change from a terminal state")
)

// CreateRequest is the validated input to the insert, after dates were parsed.
type CreateRequest struct {
	UserID int64
	CarID  int64
	Range  DateRange
}

// CreateBookingBody is the create_booking payload. Validation happens in the
// lifecycle service so the messages follow the booking rules, not binding tags.
type CreateBookingBody struct {
	CarID     int64  `json:"car_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type UpdateStatusBody struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

type Created struct {
	ID         int64   `json:"booking_id"`
	TotalPrice float64 `json:"total_price"`
}
