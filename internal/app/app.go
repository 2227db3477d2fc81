package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"goal-rush/server"
	servernet "goal-rush/server/internal/net"
	"goal-rush/server/logging"
	loggingSinks "goal-rush/server/logging/sinks"
)

// Config carries the process-level knobs; env vars override the zero values.
type Config struct {
	Addr   string
	Logger *log.Logger
}

// Run wires the logging router, room registry, input gateway, and HTTP
// surface together, then serves until the listener fails or the context is
// cancelled.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	if raw := os.Getenv("ARENA_ADDR"); raw != "" {
		addr = raw
	}

	logConfig := logging.DefaultConfig()
	sinks := map[string]logging.Sink{
		"console": loggingSinks.NewConsoleSink(os.Stdout),
	}
	if path := os.Getenv("ARENA_LOG_FILE"); path != "" {
		sink, err := loggingSinks.NewJSONSink(path)
		if err != nil {
			logger.Printf("invalid ARENA_LOG_FILE=%q: %v", path, err)
		} else {
			sinks["json"] = sink
			logConfig.EnabledSinks = append(logConfig.EnabledSinks, "json")
		}
	}

	router, err := logging.NewRouter(logConfig, logging.SystemClock{}, logger, sinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(context.Background()); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	telemetry := server.NewTelemetryCounters()
	registry := server.NewRegistry(router, telemetry)
	registry.SetTimings(
		envSeconds(logger, "ARENA_SWEEP_SECONDS"),
		envSeconds(logger, "ARENA_IDLE_SECONDS"),
		envSeconds(logger, "ARENA_GRACE_SECONDS"),
	)
	gateway := server.NewInputGateway(router, telemetry)

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go registry.RunSweeper(sweepCtx)

	handler := servernet.NewHTTPHandler(registry, gateway, telemetry, servernet.HTTPHandlerConfig{
		Logger:    logger,
		Publisher: router,
	})

	srv := &http.Server{Addr: addr, Handler: handler}
	logger.Printf("arena server listening on %s (tick rate %d)", srv.Addr, server.TickRate())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}
}

// envSeconds reads a duration override given in whole seconds; zero means
// keep the default.
func envSeconds(logger *log.Logger, key string) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		logger.Printf("invalid %s=%q", key, raw)
		return 0
	}
	return time.Duration(value) * time.Second
}
