package cli

import (
	"context"

	"github.com/spf13/cobra"

	"spendtrack/internal/config"
	"spendtrack/internal/events"
	apphttp "spendtrack/internal/http"
	"spendtrack/internal/log"
	"spendtrack/internal/session"
)

func (a *App) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web front end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("port", "", "listen port (default 8081)")
	_ = a.v.BindPFlag(config.KeyPort, cmd.Flags().Lookup("port"))
	return cmd
}

func (a *App) serve(ctx context.Context) error {
	cfg := a.cfg
	logger := NewLogger(cfg, a.out).WithComponent(log.ComponentApp)
	log.SetDefault(logger)

	client, err := a.client()
	if err != nil {
		return err
	}
	sameSite, err := session.ParseSameSite(cfg.CookieSameSite)
	if err != nil {
		return err
	}

	dispatcher := events.NewDispatcher(NewPublisher(ctx, cfg, logger), eventBuffer, logger)
	srv, err := apphttp.NewServer(apphttp.Options{
		Addr: ":" + cfg.Port,
		API:  client,
		Cookies: session.CookieConfig{
			TTL:      cfg.SessionTTL,
			Secure:   cfg.CookieSecure,
			SameSite: sameSite,
		},
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CategoryCacheTTL:   cfg.CategoryCacheTTL,
		Events:             dispatcher,
		Logger:             logger,
	})
	if err != nil {
		_ = dispatcher.Close(context.Background())
		return err
	}

	logger.Info("Starting spendtrack server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"api_base_url", client.BaseURL())
	return RunServer(ctx, logger, srv, shutdownTimeout)
}
