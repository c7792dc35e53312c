package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	cfhttp "github.com/Strob0t/StatForge/internal/adapter/http"
	"github.com/Strob0t/StatForge/internal/adapter/mcp"
	cfotel "github.com/Strob0t/StatForge/internal/adapter/otel"
	"github.com/Strob0t/StatForge/internal/adapter/postgres"
	"github.com/Strob0t/StatForge/internal/adapter/ws"
	"github.com/Strob0t/StatForge/internal/middleware"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	port       string
	migrate    bool
	askTimeout time.Duration
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST, WebSocket and MCP APIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), sessionFrom(cmd), opts)
		},
	}
	cmd.Flags().StringVar(&opts.port, "port", "", "HTTP port (overrides server.port)")
	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "apply database migrations before serving")
	cmd.Flags().DurationVar(&opts.askTimeout, "ask-timeout", 5*time.Minute, "upper bound for a single question")
	return cmd
}

func runServe(ctx context.Context, sess *session, opts *serveOptions) error {
	cfg := sess.cfg
	if opts.port != "" {
		cfg.Server.Port = opts.port
	}

	if opts.migrate {
		if err := postgres.Migrate(ctx, cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		slog.Info("migrations applied")
	}

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	hub := ws.NewHub(cfg.Server.CORSOrigin)
	defer hub.Close()
	a.agent.SetBroadcaster(hub)

	limiter := middleware.NewRateLimiter(cfg.Rate)
	handlers := &cfhttp.Handlers{
		Agent:      a.agent,
		Tools:      a.tools,
		Health:     a.store,
		Cache:      a.cacheStats,
		AskTimeout: opts.askTimeout,
		Version:    version,
		Now:        time.Now,
		RateLimit:  limiter.Handler,
	}

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(cfg.Server.CORSOrigin, cfg.OTEL.ServiceName, handlers, hub),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	var mcpSrv *mcp.Server
	if cfg.MCP.Enabled {
		mcpSrv = mcp.NewServer(mcp.ServerConfig{
			Addr:    ":" + strconv.Itoa(cfg.MCP.Port),
			Name:    "statforge",
			Version: version,
			APIKey:  cfg.MCP.APIKey,
		}, mcp.ServerDeps{Tools: a.tools, Agent: a.agent})
		if err := mcpSrv.Start(); err != nil {
			return fmt.Errorf("mcp: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	limiter.StartCleanup(gctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", addr, "model", a.agent.Model())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if mcpSrv != nil {
			if err := mcpSrv.Stop(shutdownCtx); err != nil {
				slog.Warn("mcp shutdown", "error", err)
			}
		}
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newRouter assembles the middleware chain and mounts the API.
func newRouter(corsOrigin, serviceName string, h *cfhttp.Handlers, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()
	r.Use(cfhttp.CORS(corsOrigin))
	r.Use(middleware.RequestID)
	r.Use(cfhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cfhttp.SecurityHeaders)
	r.Use(cfotel.HTTPMiddleware(serviceName))

	var stream http.HandlerFunc
	if hub != nil {
		stream = hub.HandleWS
	}
	cfhttp.MountRoutes(r, h, stream)
	return r
}
