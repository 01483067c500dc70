package cmd

import (
	"context"
	"errors"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/shockcast/internal/api"
	"github.com/hugo-lorenzo-mato/shockcast/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the shockcast HTTP API.

Endpoints:
  POST /api/v1/analyses            analyze one event
  POST /api/v1/scenarios/compare   rank a batch of scenarios
  POST /api/v1/reports?format=     analyze and render a report (text, json)
  GET  /api/v1/reference           reference dataset (ETag aware)
  GET  /api/v1/stats               in-process activity
  GET  /api/v1/events              Server-Sent Events stream
  GET  /metrics                    Prometheus metrics
  GET  /health

Examples:
  # Start with defaults (127.0.0.1:8080)
  shockcast serve

  # Listen on all interfaces and reload the reference file on change
  shockcast serve --host 0.0.0.0 --port 3000 --watch`,
	RunE: runServe,
}

var (
	serveHost  string
	servePort  int
	serveWatch bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "host address to bind to (default from config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (default from config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the reference dataset when its file changes")
}

func runServe(cmd *cobra.Command, _ []string) error {
	s, err := newSession(appConfig)
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := s.cfg.Server
	if cmd.Flags().Changed("host") {
		cfg.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	watch := s.cfg.Reference.Watch || serveWatch

	server := api.NewServer(s.analyzer,
		api.WithEventBus(s.bus),
		api.WithMetrics(s.metrics),
		api.WithLogger(s.logger),
		api.WithServerConfig(cfg),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	g.Go(func() error {
		return server.ListenAndServe(gctx, addr)
	})
	if watch {
		g.Go(func() error {
			if err := s.reference.Watch(gctx); err != nil && gctx.Err() == nil {
				s.logger.Warn("reference watcher stopped", "error", err)
			}
			return nil
		})
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	s.logger.Info("server stopped", "summary", service.NewReportGenerator(s.metrics).GenerateSummary())
	return nil
}
