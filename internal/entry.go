// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/navkit/internal/api"
	"github.com/starford/navkit/internal/chain"
	"github.com/starford/navkit/internal/mcpserver"
	"github.com/starford/navkit/internal/metrics"
	"github.com/starford/navkit/internal/navigation"
	"github.com/starford/navkit/internal/navservice"
	"github.com/starford/navkit/internal/route"
	"github.com/starford/navkit/internal/routetable"
	"github.com/starford/navkit/internal/sse"
	"github.com/starford/navkit/internal/state"
	"github.com/starford/navkit/internal/storage"
	"github.com/starford/navkit/internal/strategy"
)

// runtime is the navigation stack shared by the HTTP and MCP modes.
type runtime struct {
	svc    *navservice.Service
	source *routetable.Source
	closer io.Closer
}

func (rt *runtime) close() {
	rt.svc.Close()
	if rt.closer != nil {
		_ = rt.closer.Close()
	}
}

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

func openStore(cfg PersistenceConfig) (storage.Provider, io.Closer, error) {
	switch cfg.Driver {
	case DriverFile:
		f, err := storage.NewFile(cfg.Path)
		return f, nil, err
	case DriverSQLite:
		db, err := storage.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	default:
		return storage.NewMemory(), nil, nil
	}
}

// hooks connects the daemon surfaces to the navigation stack. Every field is
// optional.
type hooks struct {
	observers []func(navigation.Event)
	notifier  strategy.Notifier
	onError   func(error)
}

// setup builds the strategy, manager, chain and service, registers the route
// table and restores saved state.
func setup(ctx context.Context, app *application, logger *slog.Logger, h hooks) (*runtime, error) {
	cfg := app.config

	host := app.host
	if host == nil {
		host = strategy.HostFunc(func(op strategy.Operation) error {
			logger.Debug("host: apply",
				slog.String("op", op.Kind.String()),
				slog.String("tab", op.Tab),
				slog.String("route", op.Route))
			return nil
		})
	}

	backend := cfg.Navigation.BackendType()
	var s strategy.Strategy
	switch backend {
	case route.Imperative:
		s = strategy.NewImperative(strategy.WithHost(host), strategy.WithLogger(logger))
	default:
		d := strategy.NewDeclarative(strategy.WithHost(host), strategy.WithLogger(logger))
		if h.notifier != nil {
			d.SetNotifier(h.notifier)
		}
		s = d
	}

	store, closer, err := openStore(cfg.Persistence)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	mopts := []navigation.Option{
		navigation.WithLogger(logger),
		navigation.WithStorage(store),
		navigation.WithTabs(cfg.Navigation.Tabs...),
		navigation.WithAutosave(cfg.Persistence.Autosave && cfg.Persistence.Driver != DriverMemory),
		navigation.WithCircularGuard(cfg.Navigation.CircularGuard),
	}
	for _, fn := range h.observers {
		mopts = append(mopts, navigation.WithObserver(fn))
	}
	m := navigation.NewManager(s, mopts...)
	if cfg.Navigation.DefaultTab != "" {
		if err := m.SetTab(cfg.Navigation.DefaultTab); err != nil {
			if closer != nil {
				_ = closer.Close()
			}
			return nil, fmt.Errorf("select default tab: %w", err)
		}
	}

	source := routetable.NewSource()
	rt := &runtime{
		svc:    navservice.New(m, chain.Default(source.Factory, logger), logger, navservice.WithErrorHook(h.onError)),
		source: source,
		closer: closer,
	}

	if cfg.Routes.Path != "" {
		table, err := routetable.Load(cfg.Routes.Path)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("load route table: %w", err)
		}
		source.Update(table)
		sum, err := rt.svc.RegisterRoutes(ctx, table.Keys())
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("register routes: %w", err)
		}
		logger.Info("Routes registered",
			slog.Int("succeeded", sum.Succeeded),
			slog.Int("failed", sum.Failed))
	}

	if cfg.Persistence.Restore && cfg.Persistence.Driver != DriverMemory {
		ok, err := rt.svc.Restore(ctx)
		switch {
		case err != nil:
			logger.Warn("state restore failed", slog.String("error", err.Error()))
		case ok:
			logger.Info("Navigation state restored")
		}
	}

	return rt, nil
}

// watchRoutes keeps the registered routes in sync with the route table file.
func watchRoutes(ctx context.Context, rt *runtime, path string, logger *slog.Logger) {
	err := routetable.Watch(ctx, path, logger, func(t *routetable.Table) {
		rt.source.Update(t)
		sum, err := rt.svc.SyncRoutes(ctx, t.Keys())
		if err != nil {
			logger.Warn("route sync failed", slog.String("error", err.Error()))
			return
		}
		logger.Info("Routes reloaded",
			slog.Int("succeeded", sum.Succeeded),
			slog.Int("failed", sum.Failed))
	})
	if err != nil {
		logger.Warn("route watcher stopped", slog.String("error", err.Error()))
	}
}

// Run starts the HTTP daemon with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(os.Stdout, cfg.App.LogLevel)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("backend", cfg.Navigation.Backend),
		slog.String("routes_path", cfg.Routes.Path),
		slog.String("persistence", cfg.Persistence.Driver),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	h := hooks{
		observers: []func(navigation.Event){broker.PublishNavigation},
		notifier:  broker,
	}
	var (
		rt  *runtime
		rec *metrics.Recorder
	)
	if cfg.App.Metrics {
		// Scrapes start after the HTTP server, by which time rt is set.
		rec = metrics.New(cfg.Navigation.Backend, func(ctx context.Context) (*state.NavigationState, error) {
			return rt.svc.State(ctx)
		})
		h.observers = append(h.observers, rec.Observe)
		h.onError = rec.ObserveError
	}

	rt, err = setup(ctx, app, logger, h)
	if err != nil {
		return err
	}
	defer rt.close()

	apiRouter := api.NewRouter(rt.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := rt.svc.State(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if rec != nil {
		r.Handle("/metrics", rec.Handler())
	}

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Routes.Watch && cfg.Routes.Path != "" {
		g.Go(func() error {
			watchRoutes(gCtx, rt, cfg.Routes.Path, logger)
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		if cfg.Persistence.Driver != DriverMemory {
			if err := rt.svc.Save(shutdownCtx); err != nil {
				logger.Error("state save on shutdown failed", slog.String("error", err.Error()))
			}
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the errgroup so the watcher exits with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the navigation tools over stdio. Logs go to stderr because
// stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(os.Stderr, cfg.App.LogLevel)

	rt, err := setup(ctx, app, logger, hooks{})
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	if cfg.Routes.Watch && cfg.Routes.Path != "" {
		g.Go(func() error {
			watchRoutes(gCtx, rt, cfg.Routes.Path, logger)
			return nil
		})
	}
	g.Go(func() error {
		defer cancel()
		logger.Info("MCP server starting", slog.String("version", app.version))
		return mcpserver.New(rt.svc, app.version).ServeStdio()
	})
	return g.Wait()
}
