package session

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/geocoder89/rentalhub/internal/observability"
)

const (
	sweepLeaseKey = "rental:sessions:sweep"
	sweepLeaseTTL = 30 * time.Second
)

// Lease lets several API replicas agree that only one of them sweeps at a time.
type Lease interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Sweeper removes expired sessions on a small fraction of requests instead of
// on a timer. Stale rows only cost storage; Validate always rechecks expiry.
type Sweeper struct {
	store       *Store
	probability float64
	lease       Lease
	prom        *observability.Prom
	log         *slog.Logger
	roll        func() float64
}

func NewSweeper(store *Store, probability float64, lease Lease, prom *observability.Prom, log *slog.Logger) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{
		store:       store,
		probability: probability,
		lease:       lease,
		prom:        prom,
		log:         log,
		roll:        rand.Float64,
	}
}

// WithRoll replaces the random source, for tests.
func (s *Sweeper) WithRoll(roll func() float64) *Sweeper {
	s.roll = roll
	return s
}

// MaybeSweep reports whether a sweep ran. Errors are logged and swallowed.
func (s *Sweeper) MaybeSweep(ctx context.Context) bool {
	if s == nil || s.probability <= 0 || s.roll() >= s.probability {
		return false
	}

	if s.lease != nil {
		ok, err := s.lease.Acquire(ctx, sweepLeaseKey, sweepLeaseTTL)
		if err != nil {
			s.log.WarnContext(ctx, "session sweep lease failed", "err", err)
			return false
		}
		if !ok {
			return false
		}
	}

	n, err := s.Sweep(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "session sweep failed", "err", err)
		return false
	}

	if n > 0 {
		s.log.InfoContext(ctx, "expired sessions swept", "count", n)
	}
	return true
}

// Sweep runs unconditionally; used by the operator CLI.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := s.store.SweepExpired(ctx)
	if err != nil {
		return 0, err
	}
	s.prom.ObserveSweep(n)
	return n, nil
}
