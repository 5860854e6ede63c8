package session

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"
)

// tokenBytes gives 256 bits of entropy per session token.
const tokenBytes = 32

// Repo persists session records. Implementations must make Replace atomic.
type Repo interface {
	Replace(ctx context.Context, userID int64, tokenHash string, expiresAt, now time.Time) error
	Exists(ctx context.Context, userID int64, tokenHash string, now time.Time) (bool, error)
	Touch(ctx context.Context, userID int64, tokenHash string, expiresAt, now time.Time) (bool, error)
	Delete(ctx context.Context, userID int64, tokenHash string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Store issues and checks opaque session tokens. Only an HMAC of each token is
// persisted, keyed with the session secret.
type Store struct {
	repo    Repo
	secret  []byte
	timeout time.Duration
	now     func() time.Time
	log     *slog.Logger
}

func NewStore(repo Repo, secret string, timeout time.Duration, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		repo:    repo,
		secret:  []byte(secret),
		timeout: timeout,
		now:     time.Now,
		log:     log,
	}
}

// WithClock swaps the time source, for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Timeout() time.Duration {
	return s.timeout
}

func (s *Store) Now() time.Time {
	return s.now()
}

func (s *Store) hash(token string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Issue creates a fresh token for userID. Every earlier session of the user is
// dropped in the same step, together with any globally expired record.
func (s *Store) Issue(ctx context.Context, userID int64) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	now := s.now()
	if err := s.repo.Replace(ctx, userID, s.hash(token), now.Add(s.timeout), now); err != nil {
		return "", err
	}

	return token, nil
}

// Validate fails closed: a storage error counts as not authenticated.
func (s *Store) Validate(ctx context.Context, userID int64, token string) bool {
	if userID <= 0 || token == "" {
		return false
	}

	ok, err := s.repo.Exists(ctx, userID, s.hash(token), s.now())
	if err != nil {
		s.log.ErrorContext(ctx, "session validate failed", "user_id", userID, "err", err)
		return false
	}
	return ok
}

// Extend pushes expiry to now+timeout, but only for a session that is still live.
func (s *Store) Extend(ctx context.Context, userID int64, token string) bool {
	if userID <= 0 || token == "" {
		return false
	}

	now := s.now()
	ok, err := s.repo.Touch(ctx, userID, s.hash(token), now.Add(s.timeout), now)
	if err != nil {
		s.log.ErrorContext(ctx, "session extend failed", "user_id", userID, "err", err)
		return false
	}
	return ok
}

// Revoke is idempotent and never fails the caller.
func (s *Store) Revoke(ctx context.Context, userID int64, token string) {
	if userID <= 0 || token == "" {
		return
	}

	if err := s.repo.Delete(ctx, userID, s.hash(token)); err != nil {
		s.log.WarnContext(ctx, "session revoke failed", "user_id", userID, "err", err)
	}
}

func (s *Store) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}
