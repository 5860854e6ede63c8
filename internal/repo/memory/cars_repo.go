package memory

import (
	"context"
	"sort"

	"github.com/geocoder89/rentalhub/internal/domain/car"
)

type CarsRepo struct {
	db *DB
}

func NewCarsRepo(db *DB) *CarsRepo {
	return &CarsRepo{db: db}
}

func (r *CarsRepo) List(_ context.Context) ([]car.Car, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]car.Car, 0, len(r.db.cars))
	for _, row := range r.db.cars {
		if !row.deleted {
			out = append(out, row.Car)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Brand != out[j].Brand {
			return out[i].Brand < out[j].Brand
		}
		if out[i].Model != out[j].Model {
			return out[i].Model < out[j].Model
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *CarsRepo) GetByID(_ context.Context, id int64) (car.Car, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	row, ok := r.db.cars[id]
	if !ok || row.deleted {
		return car.Car{}, car.ErrNotFound
	}
	return row.Car, nil
}

func (r *CarsRepo) Create(_ context.Context, req car.CreateCarRequest) (car.Car, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.nextCarID++
	c := car.Car{
		ID:          r.db.nextCarID,
		Brand:       req.Brand,
		Model:       req.Model,
		Category:    req.Category,
		PricePerDay: req.PricePerDay,
		Description: req.Description,
		Available:   true,
		CreatedAt:   r.db.now().UTC(),
	}
	r.db.cars[c.ID] = carRow{Car: c}

	return c, nil
}

func (r *CarsRepo) Update(_ context.Context, id int64, req car.UpdateCarRequest) (car.Car, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	row, ok := r.db.cars[id]
	if !ok || row.deleted {
		return car.Car{}, car.ErrNotFound
	}

	row.Brand = req.Brand
	row.Model = req.Model
	row.Category = req.Category
	row.PricePerDay = req.PricePerDay
	row.Description = req.Description
	row.Available = req.Available
	r.db.cars[id] = row

	return row.Car, nil
}

func (r *CarsRepo) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	row, ok := r.db.cars[id]
	if !ok || row.deleted {
		return car.ErrNotFound
	}

	for _, b := range r.db.bookings {
		if b.CarID == id && b.Status.IsActive() {
			return car.ErrHasActiveBookings
		}
	}

	row.deleted = true
	row.Available = false
	r.db.cars[id] = row

	return nil
}
