package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/geocoder89/rentalhub/internal/actorctx"
	"github.com/geocoder89/rentalhub/internal/domain/booking"
	"github.com/geocoder89/rentalhub/internal/http/handlers"
	"github.com/geocoder89/rentalhub/internal/rental"
)

type fakeBookings struct {
	err         error
	gotActor    actorctx.Actor
	gotBody     booking.CreateBookingBody
	updateCalls int
}

func (f *fakeBookings) Create(_ context.Context, a actorctx.Actor, body booking.CreateBookingBody) (booking.Created, error) {
	f.gotActor, f.gotBody = a, body
	if f.err != nil {
		return booking.Created{}, f.err
	}
	return booking.Created{ID: 42, TotalPrice: 150}, nil
}

func (f *fakeBookings) Cancel(_ context.Context, a actorctx.Actor, id int64) (booking.Booking, error) {
	f.gotActor = a
	return booking.Booking{ID: id, Status: booking.StatusCancelled}, f.err
}

func (f *fakeBookings) UpdateStatus(_ context.Context, a actorctx.Actor, id int64, _ booking.UpdateStatusBody) (booking.Booking, error) {
	f.updateCalls++
	return booking.Booking{ID: id, Status: booking.StatusConfirmed}, f.err
}

func (f *fakeBookings) Get(_ context.Context, a actorctx.Actor, id int64) (booking.View, error) {
	return booking.View{Booking: booking.Booking{ID: id}}, f.err
}

func (f *fakeBookings) ListMine(_ context.Context, a actorctx.Actor) ([]booking.View, error) {
	if !a.IsAuthenticated() {
		return nil, rental.ErrUnauthenticated
	}
	return []booking.View{}, f.err
}

func (f *fakeBookings) ListAll(_ context.Context, a actorctx.Actor) ([]booking.AdminView, error) {
	return []booking.AdminView{}, f.err
}

func bookingsRouter(actor actorctx.Actor, svc *fakeBookings) http.Handler {
	h := handlers.NewBookingsHandler(svc)

	r := newRouter(actor)
	r.POST("/bookings", h.Create)
	r.GET("/bookings", h.ListMine)
	r.GET("/bookings/:id", h.Get)
	r.POST("/bookings/:id/cancel", h.Cancel)
	r.GET("/admin/bookings", h.ListAll)
	r.PATCH("/admin/bookings/:id", h.UpdateStatus)
	return r
}

func TestBookingsCreate_PassesActorAndBody(t *testing.T) {
	svc := &fakeBookings{}
	r := bookingsRouter(customer, svc)

	_, env := do(t, r, http.MethodPost, "/bookings", `{"car_id":3,"start_date":"2030-01-10","end_date":"2030-01-13"}`)

	if !env.Success || string(env.Data) != `{"booking_id":42,"total_price":150}` {
		t.Fatalf("env=%+v data=%s", env, env.Data)
	}
	if svc.gotActor.UserID != customer.UserID || svc.gotBody.CarID != 3 || svc.gotBody.EndDate != "2030-01-13" {
		t.Fatalf("actor=%+v body=%+v", svc.gotActor, svc.gotBody)
	}
}

func TestBookingsErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantMsg    string
	}{
		{rental.ErrUnauthenticated, http.StatusUnauthorized, "Please log in to continue"},
		{rental.ErrForbidden, http.StatusForbidden, "Administrator access required"},
		{rental.ErrMissingFields, http.StatusOK, "Car, start date and end date are required"},
		{booking.ErrInvalidDate, http.StatusOK, "Dates must use the YYYY-MM-DD format"},
		{rental.ErrStartInPast, http.StatusOK, "Start date cannot be in the past"},
		{rental.ErrInvalidRange, http.StatusOK, "End date must be after start date"},
		{booking.ErrDatesUnavailable, http.StatusOK, "The car is not available for the selected dates"},
		{booking.ErrCarUnavailable, http.StatusOK, "The car is currently not available for booking"},
		{booking.ErrCarNotFound, http.StatusOK, "Car not found"},
		{booking.ErrNotFound, http.StatusOK, "Booking not found"},
		{booking.ErrAlreadyCancelled, http.StatusOK, "Booking is already cancelled"},
		{booking.ErrInvalidTransition, http.StatusOK, "Booking can no longer change status"},
		{errors.New("pq: deadlock detected"), http.StatusOK, "Database error"},
	}

	for _, tt := range tests {
		t.Run(tt.wantMsg, func(t *testing.T) {
			r := bookingsRouter(customer, &fakeBookings{err: tt.err})

			w, env := do(t, r, http.MethodPost, "/bookings/5/cancel", "")

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if env.Success || env.Message != tt.wantMsg {
				t.Fatalf("env = %+v, want message %q", env, tt.wantMsg)
			}
		})
	}
}

func TestBookingsInvalidID(t *testing.T) {
	r := bookingsRouter(customer, &fakeBookings{})

	for _, path := range []string{"/bookings/abc", "/bookings/0", "/bookings/-3"} {
		_, env := do(t, r, http.MethodGet, path, "")
		if env.Success || env.Message != "Invalid id" {
			t.Fatalf("%s: env = %+v", path, env)
		}
	}
}

func TestBookingsUpdateStatus_RoleCheckedBeforePayload(t *testing.T) {
	svc := &fakeBookings{}

	w, _ := do(t, bookingsRouter(customer, svc), http.MethodPatch, "/admin/bookings/abc", `{"status":"bogus"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("customer should get 403, got %d", w.Code)
	}

	w, _ = do(t, bookingsRouter(actorctx.Actor{}, svc), http.MethodPatch, "/admin/bookings/1", `{"status":"confirmed"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous should get 401, got %d", w.Code)
	}

	if svc.updateCalls != 0 {
		t.Fatalf("service must not be reached without admin role")
	}

	_, env := do(t, bookingsRouter(admin, svc), http.MethodPatch, "/admin/bookings/1", `{"status":"confirmed"}`)
	if !env.Success || svc.updateCalls != 1 {
		t.Fatalf("admin update failed: %+v", env)
	}
}

func TestBookingsListMine_Anonymous(t *testing.T) {
	w, env := do(t, bookingsRouter(actorctx.Actor{}, &fakeBookings{}), http.MethodGet, "/bookings", "")

	if w.Code != http.StatusUnauthorized || env.Redirect != "login.html" {
		t.Fatalf("status=%d env=%+v", w.Code, env)
	}
}
