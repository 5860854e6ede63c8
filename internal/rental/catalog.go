package rental

import (
	"context"
	"strconv"
	"time"

	"github.com/geocoder89/rentalhub/internal/actorctx"
	"github.com/geocoder89/rentalhub/internal/cache"
	"github.com/geocoder89/rentalhub/internal/domain/car"
)

const (
	carsListKey  = "cars:list:v1"
	carKeyPrefix = "cars:id:v1:"
)

type CarRepo interface {
	CarReader
	List(ctx context.Context) ([]car.Car, error)
	Create(ctx context.Context, req car.CreateCarRequest) (car.Car, error)
	Update(ctx context.Context, id int64, req car.UpdateCarRequest) (car.Car, error)
	Delete(ctx context.Context, id int64) error
}

// Catalog serves the car list with a short read cache. Any admin mutation
// drops the cached entries.
type Catalog struct {
	repo  CarRepo
	list  *cache.Cache[[]car.Car]
	items *cache.Cache[car.Car]
}

func NewCatalog(repo CarRepo, ttl time.Duration) *Catalog {
	return &Catalog{
		repo:  repo,
		list:  cache.New[[]car.Car](ttl),
		items: cache.New[car.Car](ttl),
	}
}

func (c *Catalog) List(ctx context.Context) ([]car.Car, error) {
	if cars, ok := c.list.Get(carsListKey); ok {
		return cars, nil
	}

	cars, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	c.list.Set(carsListKey, cars)
	return cars, nil
}

func (c *Catalog) Get(ctx context.Context, id int64) (car.Car, error) {
	if id <= 0 {
		return car.Car{}, car.ErrNotFound
	}

	key := carKeyPrefix + strconv.FormatInt(id, 10)
	if v, ok := c.items.Get(key); ok {
		return v, nil
	}

	v, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return car.Car{}, err
	}

	c.items.Set(key, v)
	return v, nil
}

func (c *Catalog) Create(ctx context.Context, actor actorctx.Actor, req car.CreateCarRequest) (car.Car, error) {
	if !actor.IsAdmin() {
		return car.Car{}, ErrForbidden
	}

	v, err := c.repo.Create(ctx, req)
	if err != nil {
		return car.Car{}, err
	}

	c.invalidate()
	return v, nil
}

func (c *Catalog) Update(ctx context.Context, actor actorctx.Actor, id int64, req car.UpdateCarRequest) (car.Car, error) {
	if !actor.IsAdmin() {
		return car.Car{}, ErrForbidden
	}
	if id <= 0 {
		return car.Car{}, car.ErrNotFound
	}

	v, err := c.repo.Update(ctx, id, req)
	if err != nil {
		return car.Car{}, err
	}

	c.invalidate()
	return v, nil
}

// Delete refuses while the car has pending or confirmed bookings.
func (c *Catalog) Delete(ctx context.Context, actor actorctx.Actor, id int64) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if id <= 0 {
		return car.ErrNotFound
	}

	if err := c.repo.Delete(ctx, id); err != nil {
		return err
	}

	c.invalidate()
	return nil
}

func (c *Catalog) invalidate() {
	c.list.Clear()
	c.items.DeletePrefix(carKeyPrefix)
}
