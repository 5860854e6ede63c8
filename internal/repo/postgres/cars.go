package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/rentalhub/internal/domain/car"
	"github.com/geocoder89/rentalhub/internal/observability"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const carColumns = `id, brand, model, category, price_per_day, description, available, created_at`

type CarsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewCarsRepo(pool *pgxpool.Pool, prom *observability.Prom) *CarsRepo {
	return &CarsRepo{pool: pool, prom: prom}
}

func (r *CarsRepo) observe(op string, fn func() error) error {
	return observe(r.prom, op, fn)
}

func (r *CarsRepo) List(ctx context.Context) ([]car.Car, error) {
	out := make([]car.Car, 0)

	err := r.observe("cars.list", func() error {
		return pgxscan.Select(ctx, r.pool, &out,
			`SELECT `+carColumns+`
			FROM cars
			WHERE deleted_at IS NULL
			ORDER BY brand, model, id`)
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *CarsRepo) GetByID(ctx context.Context, id int64) (car.Car, error) {
	var c car.Car

	err := r.observe("cars.get_by_id", func() error {
		return pgxscan.Get(ctx, r.pool, &c,
			`SELECT `+carColumns+` FROM cars WHERE id = $1 AND deleted_at IS NULL`, id)
	})

	if err != nil {
		if pgxscan.NotFound(err) {
			return car.Car{}, car.ErrNotFound
		}
		return car.Car{}, err
	}

	return c, nil
}

func (r *CarsRepo) Create(ctx context.Context, req car.CreateCarRequest) (car.Car, error) {
	var c car.Car

	err := r.observe("cars.create", func() error {
		return pgxscan.Get(ctx, r.pool, &c,
			`INSERT INTO cars (brand, model, category, price_per_day, description)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING `+carColumns,
			req.Brand, req.Model, req.Category, req.PricePerDay, req.Description,
		)
	})
	if err != nil {
		return car.Car{}, err
	}

	return c, nil
}

func (r *CarsRepo) Update(ctx context.Context, id int64, req car.UpdateCarRequest) (car.Car, error) {
	var c car.Car

	err := r.observe("cars.update", func() error {
		return pgxscan.Get(ctx, r.pool, &c,
			`UPDATE cars
				SET brand = $2,
					model = $3,
					category = $4,
					price_per_day = $5,
					description = $6,
					available = $7
			WHERE id = $1 AND deleted_at IS NULL
			RETURNING `+carColumns,
			id, req.Brand, req.Model, req.Category, req.PricePerDay, req.Description, req.Available,
		)
	})

	if err != nil {
		if pgxscan.NotFound(err) {
			return car.Car{}, car.ErrNotFound
		}
		return car.Car{}, err
	}

	return c, nil
}

// Delete retires a car from the catalog. Bookings keep referencing it, so the
// row is soft-deleted rather than removed.
func (r *CarsRepo) Delete(ctx context.Context, id int64) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var locked int64
	err = r.observe("cars.delete.lock", func() error {
		return tx.QueryRow(ctx,
			`SELECT id FROM cars WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id,
		).Scan(&locked)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return car.ErrNotFound
		}
		return err
	}

	var active int
	err = r.observe("cars.delete.active_bookings", func() error {
		return tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM bookings
			WHERE car_id = $1 AND status NOT IN ('cancelled', 'completed')`, id,
		).Scan(&active)
	})
	if err != nil {
		return err
	}

	if active > 0 {
		return car.ErrHasActiveBookings
	}

	err = r.observe("cars.delete.soft_delete", func() error {
		_, e := tx.Exec(ctx,
			`UPDATE cars SET deleted_at = NOW(), available = FALSE WHERE id = $1`, id)
		return e
	})
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
