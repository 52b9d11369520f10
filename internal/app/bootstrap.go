package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"auth-serverless/internal/auth"
	"auth-serverless/internal/config"
	"auth-serverless/internal/db"
	"auth-serverless/internal/observability"
	"auth-serverless/internal/password"
	"auth-serverless/internal/token"
	"auth-serverless/internal/user"
)

const serviceName = "auth-serverless"

type Options struct {
	RunMigrations bool
	Logger        *observability.Logger
}

type Runtime struct {
	Handler http.Handler
	Close   func() error
}

func Build(ctx context.Context, cfg config.Config, options Options) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = observability.NewLogger()
	}

	if err := observability.InitSentry(cfg.SentryDSN, cfg.AppEnv); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}
	shutdownTracing, err := observability.InitTracing(ctx, cfg.OTelEndpoint, serviceName)
	if err != nil {
		logger.Error("init_tracing_failed", map[string]any{"error": err.Error()})
	}

	database, err := db.Open(ctx, cfg.DatabaseURL, PoolOptions(cfg))
	if err != nil {
		return nil, err
	}

	if options.RunMigrations {
		applied, err := db.RunMigrations(ctx, database)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		if len(applied) > 0 {
			logger.Info("migrations_applied", map[string]any{"versions": applied})
		}
	}

	users := user.NewRepository(database)
	if cfg.SeedEmail != "" {
		if _, err := SeedUser(ctx, users, cfg.SeedEmail, cfg.SeedPassword); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("seed user: %w", err)
		}
		logger.Info("seed_user_upserted", map[string]any{"email": cfg.SeedEmail})
	}

	handler, err := NewHandler(cfg, users, logger)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.HandleFunc("GET "+cfg.BasePath+"/health", healthHandler(database))

	return &Runtime{
		Handler: observability.Wrap(logger, mux),
		Close: func() error {
			observability.FlushSentry()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				logger.Error("shutdown_tracing_failed", map[string]any{"error": err.Error()})
			}
			return database.Close()
		},
	}, nil
}

// NewHandler wires signer, issuer, service, guards and auth routes on top of a user store.
func NewHandler(cfg config.Config, users auth.UserStore, logger *observability.Logger) (http.Handler, error) {
	signer, err := token.NewSigner(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("init signer: %w", err)
	}
	issuer := token.NewIssuer(signer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	service := auth.NewService(users, password.Comparer{}, issuer, auth.WithDecoyHash(password.DecoyHash()))
	cookies := auth.NewCookiePolicy(cfg.AuthPath(), cfg.IsProduction())
	handler := auth.NewHandler(service, cookies, logger)

	mux := http.NewServeMux()
	handler.Routes(mux, cfg.AuthPath(), auth.NewAccessGuard(signer), auth.NewRefreshGuard(signer, cookies.Name))
	return mux, nil
}

func PoolOptions(cfg config.Config) db.PoolOptions {
	return db.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	}
}

func healthHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := database.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
