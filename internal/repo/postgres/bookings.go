package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/rentalhub/internal/domain/booking"
	"github.com/geocoder89/rentalhub/internal/observability"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id, user_id, car_id, start_date, end_date, total_price, status, payment_status, created_at`

// the range predicate mirrors booking.DateRange.Overlaps and the
// bookings_no_overlap exclusion constraint: [start, end) on both sides.
const overlapPredicate = `car_id = $1
	AND status <> 'cancelled'
	AND start_date < $3
	AND end_date > $2`

type BookingsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewBookingsRepo(pool *pgxpool.Pool, prom *observability.Prom) *BookingsRepo {
	return &BookingsRepo{pool: pool, prom: prom}
}

func (r *BookingsRepo) observe(op string, fn func() error) error {
	return observe(r.prom, op, fn)
}

func (r *BookingsRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.BeginTx(ctx, pgx.TxOptions{})
}

func (r *BookingsRepo) CountOverlapping(ctx context.Context, carID int64, rng booking.DateRange) (int, error) {
	var n int

	err := r.observe("bookings.count_overlapping", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM bookings WHERE `+overlapPredicate,
			carID, rng.Start, rng.End,
		).Scan(&n)
	})

	return n, err
}

// CreateTx runs availability check and insert against a locked car row. The
// lock serialises concurrent creates for the same car; the exclusion
// constraint catches anything that slips past it.
func (r *BookingsRepo) CreateTx(ctx context.Context, tx pgx.Tx, req booking.CreateRequest) (b booking.Booking, err error) {
	var (
		pricePerDay float64
		available   bool
	)

	err = r.observe("bookings.create_tx.car_lock", func() error {
		return tx.QueryRow(ctx, `
		SELECT price_per_day, available
		FROM cars
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`, req.CarID).Scan(&pricePerDay, &available)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = booking.ErrCarNotFound
		}
		return
	}

	var overlapping int
	err = r.observe("bookings.create_tx.overlap_check", func() error {
		return tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM bookings WHERE `+overlapPredicate,
			req.CarID, req.Range.Start, req.Range.End,
		).Scan(&overlapping)
	})

	if err != nil {
		return
	}

	if overlapping > 0 {
		err = booking.ErrDatesUnavailable
		return
	}

	if !available {
		err = booking.ErrCarUnavailable
		return
	}

	total := booking.TotalPrice(pricePerDay, req.Range)

	err = r.observe("bookings.create_tx.insert", func() error {
		return pgxscan.Get(ctx, tx, &b, `
		INSERT INTO bookings (user_id, car_id, start_date, end_date, total_price, status, payment_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING `+bookingColumns,
			req.UserID, req.CarID, req.Range.Start, req.Range.End, total,
			booking.StatusPending, booking.PaymentPending,
		)
	})

	if err != nil {
		if IsExclusionViolation(err) {
			err = booking.ErrDatesUnavailable
		}
		return
	}

	return
}

func (r *BookingsRepo) Create(ctx context.Context, req booking.CreateRequest) (b booking.Booking, err error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	b, err = r.CreateTx(ctx, tx, req)

	if err != nil {
		return
	}

	err = tx.Commit(ctx)

	if err != nil {
		if IsExclusionViolation(err) {
			err = booking.ErrDatesUnavailable
		}
		return
	}

	return
}

// lockForOwner loads and locks a booking. ownerID 0 skips the ownership filter;
// any other value hides bookings belonging to someone else.
func (r *BookingsRepo) lockForOwner(ctx context.Context, tx pgx.Tx, id, ownerID int64) (booking.Booking, error) {
	var b booking.Booking

	err := r.observe("bookings.lock", func() error {
		return pgxscan.Get(ctx, tx, &b,
			`SELECT `+bookingColumns+`
			FROM bookings
			WHERE id = $1 AND ($2::bigint = 0 OR user_id = $2)
			FOR UPDATE`,
			id, ownerID,
		)
	})

	if err != nil {
		if pgxscan.NotFound(err) {
			return booking.Booking{}, booking.ErrNotFound
		}
		return booking.Booking{}, err
	}

	return b, nil
}

func (r *BookingsRepo) Cancel(ctx context.Context, id, ownerID int64) (b booking.Booking, err error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	b, err = r.lockForOwner(ctx, tx, id, ownerID)
	if err != nil {
		return
	}

	if b.Status == booking.StatusCancelled {
		err = booking.ErrAlreadyCancelled
		return
	}

	if !booking.CanTransition(b.Status, booking.StatusCancelled) {
		err = booking.ErrInvalidTransition
		return
	}

	err = r.observe("bookings.cancel", func() error {
		_, e := tx.Exec(ctx, `UPDATE bookings SET status = $2 WHERE id = $1`, id, booking.StatusCancelled)
		return e
	})
	if err != nil {
		return
	}

	b.Status = booking.StatusCancelled

	err = tx.Commit(ctx)
	return
}

func (r *BookingsRepo) UpdateStatus(ctx context.Context, id int64, u booking.StatusUpdate) (b booking.Booking, err error) {
	assignments := u.Assignments()
	if len(assignments) == 0 {
		err = booking.ErrEmptyUpdate
		return
	}

	tx, err := r.BeginTx(ctx)
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	current, err := r.lockForOwner(ctx, tx, id, 0)
	if err != nil {
		return
	}

	if err = u.CheckTransition(current.Status); err != nil {
		return
	}

	sets := make([]string, 0, len(assignments))
	args := []any{id}
	for i, a := range assignments {
		sets = append(sets, fmt.Sprintf("%s = $%d", a.Field.Column(), i+2))
		args = append(args, a.Value)
	}

	query := `UPDATE bookings SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + bookingColumns

	err = r.observe("bookings.update_status", func() error {
		return pgxscan.Get(ctx, tx, &b, query, args...)
	})
	if err != nil {
		if IsExclusionViolation(err) {
			err = booking.ErrDatesUnavailable
		}
		return
	}

	err = tx.Commit(ctx)
	return
}

const viewSelect = `SELECT b.id, b.user_id, b.car_id, b.start_date, b.end_date, b.total_price,
		b.status, b.payment_status, b.created_at,
		c.brand, c.model, c.category, c.price_per_day
	FROM bookings b
	JOIN cars c ON c.id = b.car_id`

// GetView returns the booking with its car display fields. ownerID follows the
// same convention as lockForOwner.
func (r *BookingsRepo) GetView(ctx context.Context, id, ownerID int64) (booking.View, error) {
	var v booking.View

	err := r.observe("bookings.get_view", func() error {
		return pgxscan.Get(ctx, r.pool, &v,
			viewSelect+` WHERE b.id = $1 AND ($2::bigint = 0 OR b.user_id = $2)`, id, ownerID)
	})

	if err != nil {
		if pgxscan.NotFound(err) {
			return booking.View{}, booking.ErrNotFound
		}
		return booking.View{}, err
	}

	return v, nil
}

func (r *BookingsRepo) ListForUser(ctx context.Context, userID int64) ([]booking.View, error) {
	out := make([]booking.View, 0)

	err := r.observe("bookings.list_for_user", func() error {
		return pgxscan.Select(ctx, r.pool, &out,
			viewSelect+` WHERE b.user_id = $1 ORDER BY b.created_at DESC, b.id DESC`, userID)
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *BookingsRepo) ListAll(ctx context.Context) ([]booking.AdminView, error) {
	out := make([]booking.AdminView, 0)

	err := r.observe("bookings.list_all", func() error {
		return pgxscan.Select(ctx, r.pool, &out, `
		SELECT b.id, b.user_id, b.car_id, b.start_date, b.end_date, b.total_price,
			b.status, b.payment_status, b.created_at,
			c.brand, c.model, c.category, c.price_per_day,
			u.name AS customer_name, u.email AS customer_email
		FROM bookings b
		JOIN cars c ON c.id = b.car_id
		JOIN users u ON u.id = b.user_id
		ORDER BY b.created_at DESC, b.id DESC`)
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
