package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"auth-serverless/internal/app"
	"auth-serverless/internal/config"
	"auth-serverless/internal/db"
	"auth-serverless/internal/observability"
	"auth-serverless/internal/user"
)

func main() {
	logger := observability.NewLogger()
	if err := newRootCommand(logger).Execute(); err != nil {
		logger.Error("command_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func newRootCommand(logger *observability.Logger) *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "auth-serverless",
		Short:         "Password sign-in with stateless access and refresh tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if envFile != "" {
				_ = godotenv.Load(envFile)
				return
			}
			_ = godotenv.Load()
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading the environment")

	serve := newServeCommand(logger)
	root.AddCommand(serve, newMigrateCommand(logger), newSeedCommand(logger))
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func newServeCommand(logger *observability.Logger) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runtime, err := app.Build(ctx, cfg, app.Options{RunMigrations: migrate, Logger: logger})
			if err != nil {
				return err
			}
			defer func() {
				if err := runtime.Close(); err != nil {
					logger.Error("close_runtime_failed", map[string]any{"error": err.Error()})
				}
			}()

			server := &http.Server{
				Addr:              cfg.Addr(),
				Handler:           runtime.Handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server_start", map[string]any{"addr": server.Addr, "env": cfg.AppEnv})
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server failed: %w", err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			logger.Info("server_shutdown", nil)
			return server.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations before serving")

	return cmd
}

func newMigrateCommand(logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.RequireDatabase(); err != nil {
				return err
			}

			database, err := db.Open(cmd.Context(), cfg.DatabaseURL, app.PoolOptions(cfg))
			if err != nil {
				return err
			}
			defer database.Close()

			applied, err := db.RunMigrations(cmd.Context(), database)
			if err != nil {
				return err
			}
			logger.Info("migrations_applied", map[string]any{"versions": applied})
			return nil
		},
	}
}

func newSeedCommand(logger *observability.Logger) *cobra.Command {
	var email, plaintext string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a user or reset its password",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.RequireDatabase(); err != nil {
				return err
			}
			if email == "" {
				email = cfg.SeedEmail
			}
			if plaintext == "" {
				plaintext = cfg.SeedPassword
			}

			database, err := db.Open(cmd.Context(), cfg.DatabaseURL, app.PoolOptions(cfg))
			if err != nil {
				return err
			}
			defer database.Close()

			u, err := app.SeedUser(cmd.Context(), user.NewRepository(database), email, plaintext)
			if err != nil {
				return err
			}
			logger.Info("seed_user_upserted", map[string]any{"user_id": u.ID, "email": u.Email})
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email (defaults to SEED_EMAIL)")
	cmd.Flags().StringVar(&plaintext, "password", "", "user password (defaults to SEED_PASSWORD)")

	return cmd
}
