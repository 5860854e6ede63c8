package db

import (
	"context"
	"errors"
	"strings"

	"github.com/geocoder89/rentalhub/internal/config"
	"github.com/geocoder89/rentalhub/internal/domain/user"
	"github.com/geocoder89/rentalhub/internal/security"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureAdminUser creates the bootstrap admin from ADMIN_EMAIL/ADMIN_PASSWORD.
// An existing account with that email is promoted instead of duplicated.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) (bool, error) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return false, nil
	}

	email := security.NormalizeEmail(cfg.AdminEmail)

	var id int64

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE lower(email) = $1`, email).Scan(&id)

	if err == nil {
		_, err = pool.Exec(ctx, `UPDATE users SET role = $2 WHERE id = $1 AND role <> $2`, id, user.RoleAdmin)
		return false, err
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return false, err
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (email, password_hash, name, role)
		VALUES ($1,$2,$3,$4)
		`,
		email, hash, strings.TrimSpace(cfg.AdminName), user.RoleAdmin,
	)

	if err != nil {
		return false, err
	}

	return true, nil
}
