package memory

import (
	"context"
	"time"
)

type SessionsRepo struct {
	db *DB
}

func NewSessionsRepo(db *DB) *SessionsRepo {
	return &SessionsRepo{db: db}
}

func (r *SessionsRepo) Replace(_ context.Context, userID int64, tokenHash string, expiresAt, now time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for id, s := range r.db.sessions {
		if s.expiresAt.Before(now) {
			delete(r.db.sessions, id)
		}
	}

	r.db.sessions[userID] = sessionRow{tokenHash: tokenHash, expiresAt: expiresAt}
	return nil
}

func (r *SessionsRepo) Exists(_ context.Context, userID int64, tokenHash string, now time.Time) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.sessions[userID]
	return ok && s.tokenHash == tokenHash && s.expiresAt.After(now), nil
}

func (r *SessionsRepo) Touch(_ context.Context, userID int64, tokenHash string, expiresAt, now time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[userID]
	if !ok || s.tokenHash != tokenHash || !s.expiresAt.After(now) {
		return false, nil
	}

	s.expiresAt = expiresAt
	r.db.sessions[userID] = s
	return true, nil
}

func (r *SessionsRepo) Delete(_ context.Context, userID int64, tokenHash string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[userID]; ok && s.tokenHash == tokenHash {
		delete(r.db.sessions, userID)
	}
	return nil
}

func (r *SessionsRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for id, s := range r.db.sessions {
		if s.expiresAt.Before(now) {
			delete(r.db.sessions, id)
			n++
		}
	}
	return n, nil
}
