package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/rentalhub/internal/config"
	"github.com/geocoder89/rentalhub/internal/db"
	"github.com/geocoder89/rentalhub/internal/observability"
	"github.com/geocoder89/rentalhub/internal/repo/postgres"
	"github.com/geocoder89/rentalhub/internal/session"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rentalctl",
		Short:         "Operator tasks for the rental API database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newSeedAdminCommand())
	cmd.AddCommand(newSweepSessionsCommand())
	return cmd
}

// withPool loads config, connects and hands the pool to fn.
func withPool(cmd *cobra.Command, fn func(ctx context.Context, cfg config.Config, log *slog.Logger, pool *pgxpool.Pool) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := db.NewPool(cctx, cfg.DBURL)
	cancel()
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, log, pool)
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd, func(ctx context.Context, _ config.Config, log *slog.Logger, pool *pgxpool.Pool) error {
				if err := db.Migrate(ctx, pool); err != nil {
					return err
				}
				log.Info("migrations applied")
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd, func(ctx context.Context, _ config.Config, _ *slog.Logger, pool *pgxpool.Pool) error {
				return db.MigrationStatus(ctx, pool)
			})
		},
	})

	return cmd
}

func newSeedAdminCommand() *cobra.Command {
	var (
		email    string
		password string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the administrator account, or promote an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd, func(ctx context.Context, cfg config.Config, log *slog.Logger, pool *pgxpool.Pool) error {
				if email != "" {
					cfg.AdminEmail = email
				}
				if password != "" {
					cfg.AdminPassword = password
				}
				if name != "" {
					cfg.AdminName = name
				}
				if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
					return fmt.Errorf("admin email and password are required (flags or ADMIN_EMAIL/ADMIN_PASSWORD)")
				}

				created, err := db.EnsureAdminUser(ctx, pool, cfg)
				if err != nil {
					return err
				}

				if created {
					log.Info("admin user created", "email", cfg.AdminEmail)
				} else {
					log.Info("existing user is admin", "email", cfg.AdminEmail)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email (defaults to ADMIN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (defaults to ADMIN_PASSWORD)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to ADMIN_NAME)")
	return cmd
}

func newSweepSessionsCommand() *cobra.Command {
	var every time.Duration

	cmd := &cobra.Command{
		Use:   "sweep-sessions",
		Short: "Delete expired session records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd, func(ctx context.Context, cfg config.Config, log *slog.Logger, pool *pgxpool.Pool) error {
				store := session.NewStore(postgres.NewSessionsRepo(pool, nil), cfg.SessionSecret, cfg.SessionTimeout, log)
				sweeper := session.NewSweeper(store, 0, nil, nil, log)

				sweep := func() error {
					n, err := sweeper.Sweep(ctx)
					if err != nil {
						return err
					}
					log.Info("expired sessions swept", "count", n)
					return nil
				}

				if every <= 0 {
					return sweep()
				}

				ticker := time.NewTicker(every)
				defer ticker.Stop()

				for {
					if err := sweep(); err != nil {
						log.Error("sweep failed", "err", err)
					}

					select {
					case <-ctx.Done():
						return nil
					case <-ticker.C:
					}
				}
			})
		},
	}

	cmd.Flags().DurationVar(&every, "every", 0, "Repeat on this interval until interrupted")
	return cmd
}
