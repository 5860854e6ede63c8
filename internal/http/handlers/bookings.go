package handlers

import (
	"context"
	"errors"

	"github.com/geocoder89/rentalhub/internal/actorctx"
	"github.com/geocoder89/rentalhub/internal/domain/booking"
	"github.com/geocoder89/rentalhub/internal/http/middlewares"
	"github.com/geocoder89/rentalhub/internal/rental"
	"github.com/gin-gonic/gin"
)

type BookingService interface {
	Create(ctx context.Context, actor actorctx.Actor, body booking.CreateBookingBody) (booking.Created, error)
	Cancel(ctx context.Context, actor actorctx.Actor, id int64) (booking.Booking, error)
	UpdateStatus(ctx context.Context, actor actorctx.Actor, id int64, body booking.UpdateStatusBody) (booking.Booking, error)
	Get(ctx context.Context, actor actorctx.Actor, id int64) (booking.View, error)
	ListMine(ctx context.Context, actor actorctx.Actor) ([]booking.View, error)
	ListAll(ctx context.Context, actor actorctx.Actor) ([]booking.AdminView, error)
}

type BookingsHandler struct {
	svc BookingService
}

func NewBookingsHandler(svc BookingService) *BookingsHandler {
	return &BookingsHandler{svc: svc}
}

// bookingMessages maps the rule violations a client can fix or act on to the
// text shown on the page. Anything not listed is treated as a storage failure.
var bookingMessages = []struct {
	err error
	msg string
}{
	{rental.ErrMissingFields, "Car, start date and end date are required"},
	{booking.ErrInvalidDate, "Dates must use the YYYY-MM-DD format"},
	{rental.ErrStartInPast, "Start date cannot be in the past"},
	{rental.ErrInvalidRange, "End date must be after start date"},
	{rental.ErrInvalidID, "Invalid id"},
	{booking.ErrEmptyUpdate, "Provide a status or payment status to update"},
	{booking.ErrInvalidStatus, "Invalid booking status"},
	{booking.ErrInvalidPaymentStatus, "Invalid payment status"},
	{booking.ErrDatesUnavailable, "The car is not available for the selected dates"},
	{booking.ErrCarUnavailable, "The car is currently not available for booking"},
	{booking.ErrCarNotFound, "Car not found"},
	{booking.ErrNotFound, "Booking not found"},
	{booking.ErrAlreadyCancelled, "Booking is already cancelled"},
	{booking.ErrInvalidTransition, "Booking can no longer change status"},
}

func respondBookingError(ctx *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, rental.ErrUnauthenticated):
		RespondUnauthorized(ctx, "Please log in to continue")
		return
	case errors.Is(err, rental.ErrForbidden):
		RespondForbidden(ctx, "Administrator access required")
		return
	}

	for _, m := range bookingMessages {
		if errors.Is(err, m.err) {
			RespondFail(ctx, m.msg, nil)
			return
		}
	}

	RespondStorageError(ctx, op, err)
}

func (h *BookingsHandler) Create(ctx *gin.Context) {
	var body booking.CreateBookingBody

	if !BindJSON(ctx, &body) {
		return
	}

	actor, _ := middlewares.ActorFrom(ctx)

	created, err := h.svc.Create(ctx.Request.Context(), actor, body)
	if err != nil {
		respondBookingError(ctx, "bookings.create", err)
		return
	}

	RespondOK(ctx, "Booking created successfully", created)
}

func (h *BookingsHandler) ListMine(ctx *gin.Context) {
	actor, _ := middlewares.ActorFrom(ctx)

	list, err := h.svc.ListMine(ctx.Request.Context(), actor)
	if err != nil {
		respondBookingError(ctx, "bookings.list_mine", err)
		return
	}

	RespondOK(ctx, "", list)
}

func (h *BookingsHandler) Get(ctx *gin.Context) {
	id, ok := ParamID(ctx, "id")
	if !ok {
		return
	}

	actor, _ := middlewares.ActorFrom(ctx)

	view, err := h.svc.Get(ctx.Request.Context(), actor, id)
	if err != nil {
		respondBookingError(ctx, "bookings.get", err)
		return
	}

	RespondOK(ctx, "", view)
}

func (h *BookingsHandler) Cancel(ctx *gin.Context) {
	id, ok := ParamID(ctx, "id")
	if !ok {
		return
	}

	actor, _ := middlewares.ActorFrom(ctx)

	b, err := h.svc.Cancel(ctx.Request.Context(), actor, id)
	if err != nil {
		respondBookingError(ctx, "bookings.cancel", err)
		return
	}

	RespondOK(ctx, "Booking cancelled", b)
}

func (h *BookingsHandler) ListAll(ctx *gin.Context) {
	actor, _ := middlewares.ActorFrom(ctx)

	list, err := h.svc.ListAll(ctx.Request.Context(), actor)
	if err != nil {
		respondBookingError(ctx, "bookings.list_all", err)
		return
	}

	RespondOK(ctx, "", list)
}

// UpdateStatus checks the role before it looks at the payload, so a customer
// gets 403 whatever they send.
func (h *BookingsHandler) UpdateStatus(ctx *gin.Context) {
	actor, _ := middlewares.ActorFrom(ctx)
	if !actor.IsAdmin() {
		respondBookingError(ctx, "bookings.update_status", rentalGuard(actor))
		return
	}

	id, ok := ParamID(ctx, "id")
	if !ok {
		return
	}

	var body booking.UpdateStatusBody

	if !BindJSON(ctx, &body) {
		return
	}

	b, err := h.svc.UpdateStatus(ctx.Request.Context(), actor, id, body)
	if err != nil {
		respondBookingError(ctx, "bookings.update_status", err)
		return
	}

	RespondOK(ctx, "Booking updated", b)
}

func rentalGuard(actor actorctx.Actor) error {
	if !actor.IsAuthenticated() {
		return rental.ErrUnauthenticated
	}
	return rental.ErrForbidden
}
