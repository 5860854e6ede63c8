package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/rentalhub/internal/config"
	"github.com/geocoder89/rentalhub/internal/domain/user"
	"github.com/geocoder89/rentalhub/internal/http/handlers"
	"github.com/geocoder89/rentalhub/internal/http/middlewares"
	"github.com/geocoder89/rentalhub/internal/notifications"
	"github.com/geocoder89/rentalhub/internal/observability"
	"github.com/geocoder89/rentalhub/internal/rental"
	"github.com/geocoder89/rentalhub/internal/session"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type UserStore interface {
	handlers.UserStore
	GetByID(ctx context.Context, id int64) (user.User, error)
}

// Stores is one storage backend, postgres or memory.
type Stores struct {
	Users    UserStore
	Cars     rental.CarRepo
	Bookings rental.BookingRepo
	Sessions session.Repo
}

type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Prom     *observability.Prom
	Stores   Stores
	Notifier notifications.Notifier
	// Limiter and Lease are backed by redis when it is configured.
	Limiter middlewares.Limiter
	Lease   session.Lease
	Ready   map[string]handlers.Pinger
	// ShuttingDown flips /readyz to 503 while the server drains.
	ShuttingDown func() bool
	// Now overrides the clock for sessions and bookings, for tests.
	Now func() time.Time
}

func NewRouter(d Deps) (*gin.Engine, error) {
	cfg := d.Config

	if err := cfg.CheckSecrets(); err != nil {
		return nil, err
	}

	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	if len(cfg.SessionHashKey) < 32 {
		return nil, errors.New("session hash key must be at least 32 bytes")
	}
	switch len(cfg.SessionBlockKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("session block key must be 16, 24 or 32 bytes, got %d", len(cfg.SessionBlockKey))
	}

	now := d.Now
	if now == nil {
		now = time.Now
	}

	notifier := d.Notifier
	if notifier == nil {
		notifier = notifications.NewLogNotifier(log)
	}

	// services
	sessions := session.NewStore(d.Stores.Sessions, cfg.SessionSecret, cfg.SessionTimeout, log).WithClock(now)
	sweeper := session.NewSweeper(sessions, cfg.SessionSweepProbability, d.Lease, d.Prom, log)

	catalog := rental.NewCatalog(d.Stores.Cars, cfg.CatalogCacheTTL)
	availability := rental.NewAvailability(d.Stores.Bookings, d.Stores.Cars)
	bookings := rental.NewBookingService(d.Stores.Bookings, rental.Options{
		Notifier: notifier,
		Prom:     d.Prom,
		Log:      log,
		Location: cfg.Location(),
		Now:      now,
	})

	secure := cfg.Env == "prod"
	cookies := middlewares.NewCookieStore(middlewares.CookieOptions{
		Name:     cfg.SessionCookieName,
		HashKey:  []byte(cfg.SessionHashKey),
		BlockKey: []byte(cfg.SessionBlockKey),
		Secure:   secure,
		MaxAge:   24 * time.Hour,
	})
	guard := middlewares.NewSessionGuard(cookies, cfg.SessionCookieName, sessions, d.Stores.Users, log)

	limiter := d.Limiter
	if limiter == nil {
		limiter = middlewares.NewMemoryLimiter()
	}

	// handlers
	health := handlers.NewHealthHandler(d.Ready, d.ShuttingDown)
	authH := handlers.NewAuthHandler(d.Stores.Users, sessions, guard)
	carsH := handlers.NewCarsHandler(catalog, availability)
	bookingsH := handlers.NewBookingsHandler(bookings)

	r := gin.New()

	// middleware
	r.Use(otelgin.Middleware(observability.ServiceName))
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(secure))
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())
	r.Use(guard.Load())
	r.Use(sweepAfterRequest(sweeper))

	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	if d.Prom != nil {
		r.GET("/metrics", gin.WrapH(d.Prom.Handler()))
	}

	auth := r.Group("/auth")
	{
		auth.POST("/register", middlewares.RateLimit(limiter, "register", cfg.LoginRateLimit, cfg.LoginRateWindow, middlewares.KeyByIP), authH.Register)
		auth.POST("/login", middlewares.RateLimit(limiter, "login", cfg.LoginRateLimit, cfg.LoginRateWindow, middlewares.KeyByIP), authH.Login)
		auth.POST("/logout", authH.Logout)
		auth.GET("/me", middlewares.RequireLogin(), authH.Me)
		auth.POST("/session/extend", middlewares.RequireLogin(), authH.ExtendSession)
	}

	r.GET("/cars", carsH.List)
	r.GET("/cars/:id", carsH.Get)
	r.GET("/cars/:id/availability", carsH.Availability)

	mine := r.Group("/bookings", middlewares.RequireLogin())
	{
		mine.POST("", middlewares.RateLimit(limiter, "bookings", 30, time.Minute, middlewares.KeyByUserOrIP), bookingsH.Create)
		mine.GET("", bookingsH.ListMine)
		mine.GET("/:id", bookingsH.Get)
		mine.POST("/:id/cancel", bookingsH.Cancel)
	}

	admin := r.Group("/admin", middlewares.RequireAdmin())
	{
		admin.POST("/cars", carsH.Create)
		admin.PUT("/cars/:id", carsH.Update)
		admin.DELETE("/cars/:id", carsH.Delete)

		admin.GET("/bookings", bookingsH.ListAll)
		admin.PATCH("/bookings/:id/status", bookingsH.UpdateStatus)
	}

	return r, nil
}

// sweepAfterRequest gives each finished request a small chance to purge
// expired sessions. The client may already be gone, so the sweep gets its own
// deadline.
func sweepAfterRequest(s *session.Sweeper) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 5*time.Second)
		defer cancel()
		s.MaybeSweep(ctx)
	}
}
