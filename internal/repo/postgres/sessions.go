package postgres

import (
	"context"
	"time"

	"github.com/geocoder89/rentalhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionsRepo stores one row per live session. Tokens are only ever stored as
// their keyed hash.
type SessionsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewSessionsRepo(pool *pgxpool.Pool, prom *observability.Prom) *SessionsRepo {
	return &SessionsRepo{pool: pool, prom: prom}
}

func (r *SessionsRepo) observe(op string, fn func() error) error {
	return observe(r.prom, op, fn)
}

// Replace drops every session of userID (and any expired row) and inserts the
// new one in a single transaction, so a user never has zero-then-two rows
// visible to other requests.
func (r *SessionsRepo) Replace(ctx context.Context, userID int64, tokenHash string, expiresAt, now time.Time) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = r.observe("sessions.replace.delete", func() error {
		_, e := tx.Exec(ctx,
			`DELETE FROM sessions WHERE user_id = $1 OR expires_at < $2`, userID, now)
		return e
	})
	if err != nil {
		return err
	}

	err = r.observe("sessions.replace.insert", func() error {
		_, e := tx.Exec(ctx, `
			INSERT INTO sessions (user_id, token_hash, expires_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id) DO UPDATE
				SET token_hash = EXCLUDED.token_hash,
					expires_at = EXCLUDED.expires_at,
					created_at = NOW()
		`, userID, tokenHash, expiresAt)
		return e
	})
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *SessionsRepo) Exists(ctx context.Context, userID int64, tokenHash string, now time.Time) (bool, error) {
	var ok bool

	err := r.observe("sessions.exists", func() error {
		return r.pool.QueryRow(ctx, `SELECT EXISTS(
			SELECT 1 FROM sessions
			WHERE user_id = $1 AND token_hash = $2 AND expires_at > $3
		)`, userID, tokenHash, now).Scan(&ok)
	})

	return ok, err
}

// Touch moves expires_at forward on a still-live session. The validity check
// and the update are one statement.
func (r *SessionsRepo) Touch(ctx context.Context, userID int64, tokenHash string, expiresAt, now time.Time) (bool, error) {
	var affected int64

	err := r.observe("sessions.touch", func() error {
		tag, e := r.pool.Exec(ctx, `
			UPDATE sessions SET expires_at = $4
			WHERE user_id = $1 AND token_hash = $2 AND expires_at > $3
		`, userID, tokenHash, now, expiresAt)
		affected = tag.RowsAffected()
		return e
	})

	return affected == 1, err
}

func (r *SessionsRepo) Delete(ctx context.Context, userID int64, tokenHash string) error {
	return r.observe("sessions.delete", func() error {
		_, e := r.pool.Exec(ctx,
			`DELETE FROM sessions WHERE user_id = $1 AND token_hash = $2`, userID, tokenHash)
		return e
	})
}

func (r *SessionsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64

	err := r.observe("sessions.delete_expired", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
		n = tag.RowsAffected()
		return e
	})

	return n, err
}
