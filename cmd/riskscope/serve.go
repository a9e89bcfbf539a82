package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/riskscope/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API",
		Long: `Serve starts the REST API.

Endpoints:
  POST /analyze/url        {"url": "..."}
  POST /analyze/password   {"password": "..."}
  POST /analyze/text       {"text": "..."}
  POST /agent/route        {"type": "url|password|text", ...}
  GET  /events, /events/{id}
  GET  /memory/summary, /memory/recent
  GET  /metrics

Examples:
  # Listen on the configured host and port (default 0.0.0.0:8000)
  riskscope serve

  # Listen on localhost only
  riskscope serve --host 127.0.0.1 --port 9000`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().String("host", "", "Listen host (overrides configuration)")
	cmd.Flags().IntP("port", "p", 0, "Listen port (overrides configuration)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	host, err := cmd.Flags().GetString("host")
	if err != nil {
		return err
	}
	if host != "" {
		cfg.Host = host
	}
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Port = port
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger := newLogger(cmd, cfg)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cfg, logger, appOptions{persist: true, notify: true})
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(a.router,
		server.WithEventStore(a.events),
		server.WithMemory(a.memory),
		server.WithMetricsHandler(a.metrics.Handler()),
		server.WithLogger(logger),
		server.WithVersion(getVersion()),
	)

	logger.Info("starting riskscope",
		"addr", cfg.Addr(),
		"remote_url_scanner", cfg.VirusTotalAPIKey != "",
		"llm", cfg.OpenAIAPIKey != "",
		"range_lookup", cfg.EnableHIBP,
	)
	return srv.Serve(ctx, cfg.Addr())
}
