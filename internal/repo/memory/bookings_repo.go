package memory

import (
	"context"
	"sort"

	"github.com/geocoder89/rentalhub/internal/domain/booking"
)

type BookingsRepo struct {
	db *DB
}

func NewBookingsRepo(db *DB) *BookingsRepo {
	return &BookingsRepo{db: db}
}

// countOverlapping expects the caller to hold db.mu.
func (r *BookingsRepo) countOverlapping(carID int64, rng booking.DateRange) int {
	n := 0
	for _, b := range r.db.bookings {
		if b.CarID == carID && b.Status.BlocksAvailability() && b.Range().Overlaps(rng) {
			n++
		}
	}
	return n
}

func (r *BookingsRepo) CountOverlapping(_ context.Context, carID int64, rng booking.DateRange) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return r.countOverlapping(carID, rng), nil
}

func (r *BookingsRepo) Create(_ context.Context, req booking.CreateRequest) (booking.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	row, ok := r.db.cars[req.CarID]
	if !ok || row.deleted {
		return booking.Booking{}, booking.ErrCarNotFound
	}

	if r.countOverlapping(req.CarID, req.Range) > 0 {
		return booking.Booking{}, booking.ErrDatesUnavailable
	}

	if !row.Available {
		return booking.Booking{}, booking.ErrCarUnavailable
	}

	r.db.nextBookingID++
	b := booking.Booking{
		ID:            r.db.nextBookingID,
		UserID:        req.UserID,
		CarID:         req.CarID,
		StartDate:     booking.NewDate(req.Range.Start),
		EndDate:       booking.NewDate(req.Range.End),
		TotalPrice:    booking.TotalPrice(row.PricePerDay, req.Range),
		Status:        booking.StatusPending,
		PaymentStatus: booking.PaymentPending,
		CreatedAt:     r.db.now().UTC(),
	}
	r.db.bookings[b.ID] = b

	return b, nil
}

func (r *BookingsRepo) lookup(id, ownerID int64) (booking.Booking, error) {
	b, ok := r.db.bookings[id]
	if !ok || (ownerID != 0 && b.UserID != ownerID) {
		return booking.Booking{}, booking.ErrNotFound
	}
	return b, nil
}

func (r *BookingsRepo) Cancel(_ context.Context, id, ownerID int64) (booking.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	b, err := r.lookup(id, ownerID)
	if err != nil {
		return booking.Booking{}, err
	}

	if b.Status == booking.StatusCancelled {
		return booking.Booking{}, booking.ErrAlreadyCancelled
	}
	if !booking.CanTransition(b.Status, booking.StatusCancelled) {
		return booking.Booking{}, booking.ErrInvalidTransition
	}

	b.Status = booking.StatusCancelled
	r.db.bookings[id] = b

	return b, nil
}

func (r *BookingsRepo) UpdateStatus(_ context.Context, id int64, u booking.StatusUpdate) (booking.Booking, error) {
	if u.IsEmpty() {
		return booking.Booking{}, booking.ErrEmptyUpdate
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	b, err := r.lookup(id, 0)
	if err != nil {
		return booking.Booking{}, err
	}

	if err := u.CheckTransition(b.Status); err != nil {
		return booking.Booking{}, err
	}

	u.Apply(&b)
	r.db.bookings[id] = b

	return b, nil
}

func (r *BookingsRepo) view(b booking.Booking) booking.View {
	c := r.db.cars[b.CarID]
	return booking.View{
		Booking:     b,
		Brand:       c.Brand,
		Model:       c.Model,
		Category:    c.Category,
		PricePerDay: c.PricePerDay,
	}
}

func (r *BookingsRepo) GetView(_ context.Context, id, ownerID int64) (booking.View, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	b, err := r.lookup(id, ownerID)
	if err != nil {
		return booking.View{}, err
	}
	return r.view(b), nil
}

func newestFirst(a, b booking.Booking) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func (r *BookingsRepo) ListForUser(_ context.Context, userID int64) ([]booking.View, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]booking.View, 0)
	for _, b := range r.db.bookings {
		if b.UserID == userID {
			out = append(out, r.view(b))
		}
	}

	sort.Slice(out, func(i, j int) bool { return newestFirst(out[i].Booking, out[j].Booking) })
	return out, nil
}

func (r *BookingsRepo) ListAll(_ context.Context) ([]booking.AdminView, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]booking.AdminView, 0, len(r.db.bookings))
	for _, b := range r.db.bookings {
		u := r.db.users[b.UserID]
		out = append(out, booking.AdminView{
			View:          r.view(b),
			CustomerName:  u.Name,
			CustomerEmail: u.Email,
		})
	}

	sort.Slice(out, func(i, j int) bool { return newestFirst(out[i].Booking, out[j].Booking) })
	return out, nil
}
