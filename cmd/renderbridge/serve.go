package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/vango-dev/renderbridge/internal/config"
	"github.com/vango-dev/renderbridge/internal/errors"
	"github.com/vango-dev/renderbridge/pkg/bridge"
	"github.com/vango-dev/renderbridge/pkg/protocol"
	"github.com/vango-dev/renderbridge/pkg/transport"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		port       int
		host       string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the update channel over WebSocket",
		Long: `Serve the update channel over WebSocket.

Each connection gets its own channel and string table. Batches are
applied to an in-memory node tree; measure requests are answered
from the given constraints.

Configuration is read from renderbridge.json in the working
directory when present.

Examples:
  renderbridge serve
  renderbridge serve --port=9000
  renderbridge serve --config=./deploy/renderbridge.json --log-level=debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to renderbridge.json")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.FromError(err, "R100")
	}
	return config.LoadOrDefault(wd)
}

// newLogger builds the process logger from the log section.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// app is the assembled HTTP surface.
type app struct {
	router   chi.Router
	handler  *transport.Handler
	registry *prometheus.Registry
}

func newApp(cfg *config.Config, logger *slog.Logger) *app {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := bridge.NewMetrics(
		bridge.WithRegistry(registry),
		bridge.WithNamespace(cfg.Metrics.Namespace),
	)

	tc := transport.DefaultConfig()
	tc.ReadTimeout = cfg.ReadTimeout()
	tc.WriteTimeout = cfg.WriteTimeout()
	tc.MaxMessageSize = cfg.Transport.MaxMessageSize
	if len(cfg.Transport.AllowedOrigins) > 0 {
		tc.CheckOrigin = transport.AllowOrigins(cfg.Transport.AllowedOrigins)
	}

	handler := transport.NewHandler(tc,
		func(r *http.Request, id int64) bridge.Delegate {
			return newTreeDelegate(logger.With("instance_id", id))
		},
		bridge.WithLogger(logger.With("component", "bridge")),
		bridge.WithMetrics(metrics),
		bridge.WithLimits(protocol.Limits{MaxDepth: cfg.Codec.MaxDepth}),
	)
	handler.SetLogger(logger.With("component", "transport"))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Handle(cfg.Server.Path, handler)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "ok sessions=%d\n", handler.SessionCount())
	})
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	}

	return &app{router: r, handler: handler, registry: registry}
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	a := newApp(cfg, logger)

	ln, err := net.Listen("tcp", cfg.Address())
	if err != nil {
		return errors.New("R301").
			WithDetail(fmt.Sprintf("Cannot listen on %s", cfg.Address())).
			WithSuggestion("Pick another port with --port or server.port").
			Wrap(err)
	}

	srv := &http.Server{
		Handler:  a.router,
		ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	printBanner(cmd)
	fmt.Fprintln(cmd.OutOrStdout(), "  serve")
	fmt.Fprintln(cmd.OutOrStdout())
	success(cmd, "Listening on ws://%s%s", ln.Addr(), cfg.Server.Path)
	if cfg.Metrics.Enabled {
		info(cmd, "Metrics at http://%s%s", ln.Addr(), cfg.Metrics.Path)
	}
	if cfg.Path() == "" {
		info(cmd, "No %s found, using defaults", config.ConfigFileName)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return errors.New("R300").Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	fmt.Fprintln(cmd.OutOrStdout(), "\n  Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	// Hijacked connections are not tracked by http.Server.
	a.handler.Shutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		warn(cmd, "Shutdown incomplete: %v", err)
		return errors.New("R300").Wrap(err)
	}
	success(cmd, "Stopped")
	return nil
}
