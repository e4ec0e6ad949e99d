// Package cli implements the spendtrack command line: the web server
// entry point plus commands that talk to the expenses API directly.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"spendtrack/internal/config"
	"spendtrack/internal/events"
	"spendtrack/internal/log"
)

const (
	shutdownTimeout = 30 * time.Second
	amqpAttempts    = 3
	eventBuffer     = 256
)

// NewLogger builds the process logger from the configured level and format.
func NewLogger(cfg *config.Config, w io.Writer) *log.Logger {
	return log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentCLI,
		Output:    w,
	})
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig reads the configuration held by v and validates it.
func LoadConfig(v *viper.Viper) (*config.Config, error) {
	cfg := config.FromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewPublisher returns the AMQP activity publisher when AMQP_URL is set.
// An unreachable broker is logged and replaced by a no-op publisher, since
// activity messages never gate user actions.
func NewPublisher(ctx context.Context, cfg *config.Config, logger *log.Logger) events.Publisher {
	if cfg.AMQPURL == "" {
		return events.Noop{}
	}
	pub, err := events.NewAMQPPublisher(ctx, cfg.AMQPURL, cfg.AMQPExchange, amqpAttempts, logger)
	if err != nil {
		logger.Warn("Activity publishing disabled", log.FieldError, err.Error())
		return events.Noop{}
	}
	logger.Info("Activity publishing enabled", "exchange", cfg.AMQPExchange)
	return pub
}

type server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// RunServer serves until ctx is cancelled, then shuts srv down within
// timeout.
func RunServer(ctx context.Context, logger *log.Logger, srv server, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err.Error())
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server stopped gracefully")
	return nil
}
