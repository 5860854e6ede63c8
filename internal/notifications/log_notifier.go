package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier is the fallback when no broker is configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) PublishBookingEvent(ctx context.Context, ev BookingEvent) error {
	n.log.InfoContext(ctx, "notification.booking_event",
		"type", string(ev.Type),
		"booking_id", ev.BookingID,
		"user_id", ev.UserID,
		"car_id", ev.CarID,
		"status", string(ev.Status),
		"payment_status", string(ev.PaymentStatus),
	)
	return nil
}
