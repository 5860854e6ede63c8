package handlers

import (
	"context"
	"errors"

	"github.com/geocoder89/rentalhub/internal/actorctx"
	"github.com/geocoder89/rentalhub/internal/domain/car"
	"github.com/geocoder89/rentalhub/internal/http/middlewares"
	"github.com/geocoder89/rentalhub/internal/security"
	"github.com/gin-gonic/gin"
)

type CarCatalog interface {
	List(ctx context.Context) ([]car.Car, error)
	Get(ctx context.Context, id int64) (car.Car, error)
	Create(ctx context.Context, actor actorctx.Actor, req car.CreateCarRequest) (car.Car, error)
	Update(ctx context.Context, actor actorctx.Actor, id int64, req car.UpdateCarRequest) (car.Car, error)
	Delete(ctx context.Context, actor actorctx.Actor, id int64) error
}

type AvailabilityChecker interface {
	Check(ctx context.Context, carID int64, startRaw, endRaw string) (bool, error)
}

type CarsHandler struct {
	catalog      CarCatalog
	availability AvailabilityChecker
}

func NewCarsHandler(catalog CarCatalog, availability AvailabilityChecker) *CarsHandler {
	return &CarsHandler{catalog: catalog, availability: availability}
}

func respondCarError(ctx *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, car.ErrNotFound):
		RespondFail(ctx, "Car not found", nil)
	case errors.Is(err, car.ErrHasActiveBookings):
		RespondFail(ctx, "Car has active bookings and cannot be deleted", nil)
	default:
		respondBookingError(ctx, op, err)
	}
}

func (h *CarsHandler) List(ctx *gin.Context) {
	cars, err := h.catalog.List(ctx.Request.Context())
	if err != nil {
		respondCarError(ctx, "cars.list", err)
		return
	}

	RespondOK(ctx, "", cars)
}

func (h *CarsHandler) Get(ctx *gin.Context) {
	id, ok := ParamID(ctx, "id")
	if !ok {
		return
	}

	c, err := h.catalog.Get(ctx.Request.Context(), id)
	if err != nil {
		respondCarError(ctx, "cars.get", err)
		return
	}

	RespondOK(ctx, "", c)
}

// Availability answers GET /cars/:id/availability?start_date=&end_date=.
func (h *CarsHandler) Availability(ctx *gin.Context) {
	id, ok := ParamID(ctx, "id")
	if !ok {
		return
	}

	free, err := h.availability.Check(ctx.Request.Context(), id, ctx.Query("start_date"), ctx.Query("end_date"))
	if err != nil {
		respondCarError(ctx, "cars.availability", err)
		return
	}

	RespondOK(ctx, "", gin.H{"available": free})
}

func (h *CarsHandler) Create(ctx *gin.Context) {
	var req car.CreateCarRequest

	if !BindJSON(ctx, &req) {
		return
	}

	req.Brand, req.Model, req.Category, req.Description = sanitizeCarText(req.Brand, req.Model, req.Category, req.Description)
	if msg := missingCarText(req.Brand, req.Model, req.Category); msg != "" {
		RespondFail(ctx, msg, nil)
		return
	}

	actor, _ := middlewares.ActorFrom(ctx)

	c, err := h.catalog.Create(ctx.Request.Context(), actor, req)
	if err != nil {
		respondCarError(ctx, "cars.create", err)
		return
	}

	RespondOK(ctx, "Car added successfully", c)
}

func (h *CarsHandler) Update(ctx *gin.Context) {
	id, ok := ParamID(ctx, "id")
	if !ok {
		return
	}

	var req car.UpdateCarRequest

	if !BindJSON(ctx, &req) {
		return
	}

	req.Brand, req.Model, req.Category, req.Description = sanitizeCarText(req.Brand, req.Model, req.Category, req.Description)
	if msg := missingCarText(req.Brand, req.Model, req.Category); msg != "" {
		RespondFail(ctx, msg, nil)
		return
	}

	actor, _ := middlewares.ActorFrom(ctx)

	c, err := h.catalog.Update(ctx.Request.Context(), actor, id, req)
	if err != nil {
		respondCarError(ctx, "cars.update", err)
		return
	}

	RespondOK(ctx, "Car updated successfully", c)
}

func (h *CarsHandler) Delete(ctx *gin.Context) {
	id, ok := ParamID(ctx, "id")
	if !ok {
		return
	}

	actor, _ := middlewares.ActorFrom(ctx)

	if err := h.catalog.Delete(ctx.Request.Context(), actor, id); err != nil {
		respondCarError(ctx, "cars.delete", err)
		return
	}

	RespondOK(ctx, "Car deleted successfully", nil)
}

func sanitizeCarText(brand, model, category, description string) (string, string, string, string) {
	return security.SanitizeInput(brand),
		security.SanitizeInput(model),
		security.SanitizeInput(category),
		security.SanitizeInput(description)
}

// binding's required tag accepts whitespace, so recheck after trimming
func missingCarText(brand, model, category string) string {
	switch {
	case brand == "":
		return "brand is required"
	case model == "":
		return "model is required"
	case category == "":
		return "category is required"
	default:
		return ""
	}
}
