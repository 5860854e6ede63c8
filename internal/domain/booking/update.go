package booking

import "errors"

var (
	ErrEmptyUpdate          = errors.New("no changes to apply")
	ErrInvalidStatus        = errors.New("invalid booking status")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
)

// Optional is an explicit some/none wrapper for partially supplied fields.
type Optional[T any] struct {
	value T
	set   bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// Field enumerates the booking columns an admin may update.
type Field int

const (
	FieldStatus Field = iota
	FieldPaymentStatus
)

func (f Field) Column() string {
	switch f {
	case FieldStatus:
		return "status"
	case FieldPaymentStatus:
		return "payment_status"
	default:
		return ""
	}
}

// Assignment is one `column = value` pair of a partial update.
type Assignment struct {
	Field Field
	Value string
}

// StatusUpdate is the typed partial update applied by the admin status endpoint.
type StatusUpdate struct {
	Status        Optional[Status]
	PaymentStatus Optional[PaymentStatus]
}

// NewStatusUpdate builds an update from raw request values; empty strings mean
// the field was not supplied.
func NewStatusUpdate(status, paymentStatus string) (StatusUpdate, error) {
	var u StatusUpdate

	if status != "" {
		s := Status(status)
		if !s.IsValid() {
			return StatusUpdate{}, ErrInvalidStatus
		}
		u.Status = Some(s)
	}

	if paymentStatus != "" {
		p := PaymentStatus(paymentStatus)
		if !p.IsValid() {
			return StatusUpdate{}, ErrInvalidPaymentStatus
		}
		u.PaymentStatus = Some(p)
	}

	if u.IsEmpty() {
		return StatusUpdate{}, ErrEmptyUpdate
	}

	return u, nil
}

func (u StatusUpdate) IsEmpty() bool {
	_, s := u.Status.Get()
	_, p := u.PaymentStatus.Get()
	return !s && !p
}

// Assignments lists the supplied fields in a fixed column order.
func (u StatusUpdate) Assignments() []Assignment {
	out := make([]Assignment, 0, 2)

	if s, ok := u.Status.Get(); ok {
		out = append(out, Assignment{Field: FieldStatus, Value: string(s)})
	}
	if p, ok := u.PaymentStatus.Get(); ok {
		out = append(out, Assignment{Field: FieldPaymentStatus, Value: string(p)})
	}

	return out
}

// Apply mutates b in place. Used by the in-memory store; Postgres renders
// Assignments into a single UPDATE.
func (u StatusUpdate) Apply(b *Booking) {
	if s, ok := u.Status.Get(); ok {
		b.Status = s
	}
	if p, ok := u.PaymentStatus.Get(); ok {
		b.PaymentStatus = p
	}
}

// CheckTransition rejects status changes out of terminal states.
func (u StatusUpdate) CheckTransition(current Status) error {
	next, ok := u.Status.Get()
	if !ok {
		return nil
	}
	if !CanTransition(current, next) {
		return ErrInvalidTransition
	}
	return nil
}
