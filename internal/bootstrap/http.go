package bootstrap

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/apphub/tagging-service/config"
	httpx "github.com/apphub/tagging-service/internal/http"
)

// HTTPServerConfig contains configuration for the read API server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	DB       *sql.DB
	Redis    redis.UniversalClient
	Logger   *slog.Logger
}

// StartHTTPServer creates and starts the read API server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	services := httpx.RouterServices{
		Store:     cfg.Services.Store,
		Queue:     cfg.Services.Queue,
		Readiness: buildReadinessChecks(cfg.DB, cfg.Redis),
		Logger:    logger,
	}

	handler := buildHTTPHandler(logger, services)
	return startServer(logger, handler, appCfg.HTTP.Addr())
}

func buildReadinessChecks(db *sql.DB, client redis.UniversalClient) []httpx.ReadinessCheck {
	checks := make([]httpx.ReadinessCheck, 0, 2)
	if db != nil {
		checks = append(checks, httpx.ReadinessCheck{
			Name: "sqlite",
			Ping: db.PingContext,
		})
	}
	if client != nil {
		checks = append(checks, httpx.ReadinessCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
		})
	}
	return checks
}

func buildHTTPHandler(logger *slog.Logger, services httpx.RouterServices) http.Handler {
	// Order: Recover -> Logging -> Router
	h := httpx.NewRouter(services)
	h = httpx.Logging(logger)(h)
	h = httpx.Recover(logger)(h)
	return h
}

func startServer(logger *slog.Logger, handler http.Handler, addr string) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" || addr == ":0" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Grace   time.Duration
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	grace := cfg.Grace
	if grace <= 0 {
		grace = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(cfg.Context, grace)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
