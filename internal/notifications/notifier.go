package notifications

import (
	"context"
	"time"

	"github.com/geocoder89/rentalhub/internal/domain/booking"
)

type EventType string

const (
	EventBookingCreated       EventType = "created"
	EventBookingCancelled     EventType = "cancelled"
	EventBookingStatusChanged EventType = "status_changed"
)

// BookingEvent is published after a booking change has been committed.
type BookingEvent struct {
	Type          EventType             `json:"type"`
	BookingID     int64                 `json:"booking_id"`
	UserID        int64                 `json:"user_id"`
	CarID         int64                 `json:"car_id"`
	StartDate     booking.Date          `json:"start_date"`
	EndDate       booking.Date          `json:"end_date"`
	TotalPrice    float64               `json:"total_price"`
	Status        booking.Status        `json:"status"`
	PaymentStatus booking.PaymentStatus `json:"payment_status"`
	ActorID       int64                 `json:"actor_id"`
	OccurredAt    time.Time             `json:"occurred_at"`
}

func NewBookingEvent(t EventType, b booking.Booking, actorID int64, at time.Time) BookingEvent {
	return BookingEvent{
		Type:          t,
		BookingID:     b.ID,
		UserID:        b.UserID,
		CarID:         b.CarID,
		StartDate:     b.StartDate,
		EndDate:       b.EndDate,
		TotalPrice:    b.TotalPrice,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		ActorID:       actorID,
		OccurredAt:    at.UTC(),
	}
}

type Notifier interface {
	PublishBookingEvent(ctx context.Context, ev BookingEvent) error
}
