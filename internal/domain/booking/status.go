package booking

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// BlocksAvailability reports whether a booking in this status occupies the car.
// Completed bookings keep blocking their dates.
func (s Status) BlocksAvailability() bool {
	return s != StatusCancelled
}

// IsActive is the catalog delete guard: cancelled and completed bookings no
// longer pin the car.
func (s Status) IsActive() bool {
	return !s.IsTerminal()
}

// CanTransition encodes the booking state machine. Setting the current status
// again is a no-op and always allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}

	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled || to == StatusCompleted
	case StatusConfirmed:
		return to == StatusCancelled || to == StatusCompleted
	default:
		return false
	}
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	default:
		return false
	}
}
