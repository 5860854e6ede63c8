package car

import (
	"errors"
	"time"
)

type Car struct {
	ID          int64     `json:"id" db:"id"`
	Brand       string    `json:"brand" db:"brand"`
	Model       string    `json:"model" db:"model"`
	Category    string    `json:"category" db:"category"`
	PricePerDay float64   `json:"price_per_day" db:"price_per_day"`
	Description string    `json:"description,omitempty" db:"description"`
	Available   bool      `json:"available" db:"available"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

var (
	ErrNotFound          = errors.New("car not found")
	ErrHasActiveBookings = errors.New("car has active bookings")
)

type CreateCarRequest struct {
	Brand       string  `json:"brand" binding:"required,max=80"`
	Model       string  `json:"model" binding:"required,max=80"`
	Category    string  `json:"category" binding:"required,max=50"`
	PricePerDay float64 `json:"price_per_day" binding:"required,gt=0"`
	Description string  `json:"description" binding:"omitempty,max=1000"`
}

// full replacement, matching how the catalog form submits
type UpdateCarRequest struct {
	Brand       string  `json:"brand" binding:"required,max=80"`
	Model       string  `json:"model" binding:"required,max=80"`
	Category    string  `json:"category" binding:"required,max=50"`
	PricePerDay float64 `json:"price_per_day" binding:"required,gt=0"`
	Description string  `json:"description" binding:"omitempty,max=1000"`
	Available   bool    `json:"available"`
}
