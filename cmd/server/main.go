package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qaforum/internal/config"
	"qaforum/internal/db"
	"qaforum/internal/handlers"
	"qaforum/internal/models"
	"qaforum/internal/qa"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "qaforum",
		Short:        "Community questions and answers server",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newSetRoleCmd())
	return root
}

// setup loads the configuration, opens the database and applies migrations.
func setup(ctx context.Context) (*config.Config, *slog.Logger, *db.Repository, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	repo, err := db.NewRepository(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("database initialization: %w", err)
	}
	if err := repo.RunMigrations(ctx); err != nil {
		repo.Close()
		return nil, nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return cfg, logger, repo, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, logger, repo, err := setup(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			quotas, err := config.LoadQuotaTable(cfg.QuotaFile)
			if err != nil {
				return err
			}

			// Периодическая очистка истёкших сессий
			go func() {
				ticker := time.NewTicker(cfg.CleanupInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						if err := repo.CleanExpiredSessions(ctx); err != nil {
							logger.Error("session cleanup failed", slog.String("error", err.Error()))
						}
					}
				}
			}()

			svc := qa.NewService(repo, qa.Options{
				Logger:       logger,
				Quotas:       quotas,
				EnforceQuota: cfg.EnforceQuota,
			})

			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           handlers.Routes(repo, svc, logger, cfg.SessionTTL),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server started", slog.String("addr", "http://localhost:"+cfg.Port), slog.Bool("enforce_quota", cfg.EnforceQuota))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server start: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, repo, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer repo.Close()
			logger.Info("migrations applied", slog.String("db", cfg.DBPath))
			return nil
		},
	}
}

func newSetRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <username> <role>",
		Short: "Change a user's role (student, user, expert, moderator, admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := models.ParseRole(args[1])
			if err != nil {
				return err
			}
			_, logger, repo, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer repo.Close()

			user, err := repo.GetUserByUsername(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, db.ErrNotFound) {
					return fmt.Errorf("user %q not found", args[0])
				}
				return err
			}
			if err := repo.SetUserRole(cmd.Context(), user.ID, role); err != nil {
				return err
			}
			logger.Info("role changed", slog.String("username", user.Username), slog.String("role", string(role)))
			return nil
		},
	}
}
