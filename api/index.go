package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"

	"auth-serverless/internal/app"
	"auth-serverless/internal/config"
	"auth-serverless/internal/observability"
)

var (
	initOnce   sync.Once
	apiRuntime *app.Runtime
	initErr    error
)

// Handler is the serverless entrypoint. The runtime is built on the first
// request and reused by warm invocations.
func Handler(w http.ResponseWriter, r *http.Request) {
	initOnce.Do(func() {
		logger := observability.NewLogger()

		cfg, err := config.Load()
		if err != nil {
			initErr = err
			logger.Error("load_config_failed", map[string]any{"error": err.Error()})
			return
		}

		apiRuntime, initErr = app.Build(context.Background(), cfg, app.Options{
			RunMigrations: cfg.RunMigrations,
			Logger:        logger,
		})
		if initErr != nil {
			logger.Error("bootstrap_failed", map[string]any{"error": initErr.Error()})
		}
	})

	if initErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "application bootstrap failed"})
		return
	}

	apiRuntime.Handler.ServeHTTP(w, r)
}
