package rental

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/geocoder89/rentalhub/internal/actorctx"
	"github.com/geocoder89/rentalhub/internal/domain/booking"
	"github.com/geocoder89/rentalhub/internal/notifications"
	"github.com/geocoder89/rentalhub/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type BookingRepo interface {
	OverlapCounter
	Create(ctx context.Context, req booking.CreateRequest) (booking.Booking, error)
	Cancel(ctx context.Context, id, ownerID int64) (booking.Booking, error)
	UpdateStatus(ctx context.Context, id int64, u booking.StatusUpdate) (booking.Booking, error)
	GetView(ctx context.Context, id, ownerID int64) (booking.View, error)
	ListForUser(ctx context.Context, userID int64) ([]booking.View, error)
	ListAll(ctx context.Context) ([]booking.AdminView, error)
}

var tracer = otel.Tracer("github.com/geocoder89/rentalhub/internal/rental")

// BookingService owns the booking lifecycle: create, cancel, admin status
// updates and the read paths, each enforcing ownership or role.
type BookingService struct {
	repo     BookingRepo
	notifier notifications.Notifier
	prom     *observability.Prom
	log      *slog.Logger
	loc      *time.Location
	now      func() time.Time
}

type Options struct {
	Notifier notifications.Notifier
	Prom     *observability.Prom
	Log      *slog.Logger
	// Location decides which calendar day counts as today.
	Location *time.Location
	Now      func() time.Time
}

func NewBookingService(repo BookingRepo, opts Options) *BookingService {
	s := &BookingService{
		repo:     repo,
		notifier: opts.Notifier,
		prom:     opts.Prom,
		log:      opts.Log,
		loc:      opts.Location,
		now:      opts.Now,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *BookingService) today() time.Time {
	return booking.Day(s.now(), s.loc)
}

func (s *BookingService) Create(ctx context.Context, actor actorctx.Actor, body booking.CreateBookingBody) (booking.Created, error) {
	ctx, span := tracer.Start(ctx, "rental.create_booking")
	defer span.End()

	if !actor.IsAuthenticated() {
		return booking.Created{}, ErrUnauthenticated
	}

	r, err := ParseRange(body.CarID, body.StartDate, body.EndDate)
	if err != nil {
		s.prom.ObserveBooking("invalid")
		return booking.Created{}, err
	}

	if r.Start.Before(s.today()) {
		s.prom.ObserveBooking("invalid")
		return booking.Created{}, ErrStartInPast
	}

	span.SetAttributes(
		attribute.Int64("car.id", body.CarID),
		attribute.String("booking.range", r.String()),
	)

	b, err := s.repo.Create(ctx, booking.CreateRequest{UserID: actor.UserID, CarID: body.CarID, Range: r})
	if err != nil {
		s.prom.ObserveBooking(createResult(err))
		if !isBookingConflict(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "create booking")
		}
		return booking.Created{}, err
	}

	s.prom.ObserveBooking("created")
	span.SetAttributes(attribute.Int64("booking.id", b.ID))

	s.log.InfoContext(ctx, "booking created",
		"booking_id", b.ID,
		"user_id", b.UserID,
		"car_id", b.CarID,
		"range", r.String(),
		"total_price", b.TotalPrice,
	)

	s.publish(ctx, notifications.EventBookingCreated, b, actor.UserID)

	return booking.Created{ID: b.ID, TotalPrice: b.TotalPrice}, nil
}

// Cancel is open to the owner and to admins. For anyone else the booking is
// reported as not found.
func (s *BookingService) Cancel(ctx context.Context, actor actorctx.Actor, id int64) (booking.Booking, error) {
	if !actor.IsAuthenticated() {
		return booking.Booking{}, ErrUnauthenticated
	}
	if id <= 0 {
		return booking.Booking{}, ErrInvalidID
	}

	b, err := s.repo.Cancel(ctx, id, ownerFilter(actor))
	if err != nil {
		return booking.Booking{}, err
	}

	s.log.InfoContext(ctx, "booking cancelled", "booking_id", b.ID, "by_user_id", actor.UserID)
	s.publish(ctx, notifications.EventBookingCancelled, b, actor.UserID)

	return b, nil
}

// UpdateStatus is admin-only. The role check runs before the payload is looked at.
func (s *BookingService) UpdateStatus(ctx context.Context, actor actorctx.Actor, id int64, body booking.UpdateStatusBody) (booking.Booking, error) {
	if !actor.IsAuthenticated() {
		return booking.Booking{}, ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		return booking.Booking{}, ErrForbidden
	}
	if id <= 0 {
		return booking.Booking{}, ErrInvalidID
	}

	u, err := booking.NewStatusUpdate(body.Status, body.PaymentStatus)
	if err != nil {
		return booking.Booking{}, err
	}

	b, err := s.repo.UpdateStatus(ctx, id, u)
	if err != nil {
		return booking.Booking{}, err
	}

	s.log.InfoContext(ctx, "booking status updated",
		"booking_id", b.ID,
		"status", string(b.Status),
		"payment_status", string(b.PaymentStatus),
		"by_user_id", actor.UserID,
	)
	s.publish(ctx, notifications.EventBookingStatusChanged, b, actor.UserID)

	return b, nil
}

func (s *BookingService) Get(ctx context.Context, actor actorctx.Actor, id int64) (booking.View, error) {
	if !actor.IsAuthenticated() {
		return booking.View{}, ErrUnauthenticated
	}
	if id <= 0 {
		return booking.View{}, ErrInvalidID
	}

	return s.repo.GetView(ctx, id, ownerFilter(actor))
}

func (s *BookingService) ListMine(ctx context.Context, actor actorctx.Actor) ([]booking.View, error) {
	if !actor.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	return s.repo.ListForUser(ctx, actor.UserID)
}

func (s *BookingService) ListAll(ctx context.Context, actor actorctx.Actor) ([]booking.AdminView, error) {
	if !actor.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.repo.ListAll(ctx)
}

// publish runs after the change is committed. A failed delivery never fails
// the request.
func (s *BookingService) publish(ctx context.Context, t notifications.EventType, b booking.Booking, actorID int64) {
	if s.notifier == nil {
		return
	}

	ctx = context.WithoutCancel(ctx)

	err := s.notifier.PublishBookingEvent(ctx, notifications.NewBookingEvent(t, b, actorID, s.now()))
	if err != nil {
		s.prom.ObserveNotification(string(t), "error")
		s.log.WarnContext(ctx, "booking event not delivered", "type", string(t), "booking_id", b.ID, "err", err)
		return
	}
	s.prom.ObserveNotification(string(t), "ok")
}

func ownerFilter(actor actorctx.Actor) int64 {
	if actor.IsAdmin() {
		return 0
	}
	return actor.UserID
}

func isBookingConflict(err error) bool {
	return errors.Is(err, booking.ErrDatesUnavailable) ||
		errors.Is(err, booking.ErrCarUnavailable) ||
		errors.Is(err, booking.ErrCarNotFound)
}

func createResult(err error) string {
	switch {
	case errors.Is(err, booking.ErrDatesUnavailable):
		return "dates_unavailable"
	case errors.Is(err, booking.ErrCarUnavailable):
		return "car_unavailable"
	case errors.Is(err, booking.ErrCarNotFound):
		return "car_not_found"
	default:
		return "error"
	}
}
