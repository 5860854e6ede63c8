package memory

import (
	"sync"
	"time"

	"github.com/geocoder89/rentalhub/internal/domain/booking"
	"github.com/geocoder89/rentalhub/internal/domain/car"
	"github.com/geocoder89/rentalhub/internal/domain/user"
)

type carRow struct {
	car.Car
	deleted bool
}

type sessionRow struct {
	tokenHash string
	expiresAt time.Time
}

// DB is the shared state behind the in-memory repositories. A single lock
// guards every table, which gives the booking create path the same
// check-and-insert atomicity the Postgres row lock provides.
type DB struct {
	mu sync.RWMutex

	users    map[int64]user.User
	cars     map[int64]carRow
	bookings map[int64]booking.Booking
	sessions map[int64]sessionRow

	nextUserID    int64
	nextCarID     int64
	nextBookingID int64

	now func() time.Time
}

func NewDB() *DB {
	return &DB{
		users:    make(map[int64]user.User),
		cars:     make(map[int64]carRow),
		bookings: make(map[int64]booking.Booking),
		sessions: make(map[int64]sessionRow),
		now:      time.Now,
	}
}

// SetClock replaces the clock used for created_at stamps.
func (db *DB) SetClock(now func() time.Time) {
	db.mu.Lock()
	db.now = now
	db.mu.Unlock()
}
