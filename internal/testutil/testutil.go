// Package testutil provides shared test helpers for setting up navigation
// services and persistence.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/navkit/internal/chain"
	"github.com/starford/navkit/internal/navigation"
	"github.com/starford/navkit/internal/navservice"
	"github.com/starford/navkit/internal/route"
	"github.com/starford/navkit/internal/storage"
	"github.com/starford/navkit/internal/strategy"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestSQLite creates a temporary SQLite store that is automatically cleaned up.
func TestSQLite(t *testing.T) *storage.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "navkit-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := storage.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Env is a running navigation service over a recording host.
type Env struct {
	Service *navservice.Service
	Host    *strategy.Recorder
	Store   storage.Provider
}

// DefaultRoutes are registered by TestService for each backend.
var DefaultRoutes = map[route.Backend][]route.Key{
	route.Declarative: {
		route.MustKey("home", route.Push),
		route.MustKey("profile", route.Push),
		route.MustKey("settings", route.Sheet),
		route.MustKey("swiftui_onboarding", route.FullScreen),
		route.MustKey("admin_users", route.Modal),
	},
	route.Imperative: {
		route.MustKey("listVC", route.Push),
		route.MustKey("detailVC", route.Push),
		route.MustKey("editVC", route.Modal),
		route.MustKey("uikit_search", route.Tab),
		route.MustKey("deeplink_promo", route.Replace),
	},
}

// TestService starts a service for backend b with tabs "main" and
// "search", SQLite persistence and DefaultRoutes registered.
func TestService(t *testing.T, b route.Backend, opts ...navigation.Option) *Env {
	t.Helper()
	logger := Logger()
	host := &strategy.Recorder{}

	var s strategy.Strategy
	if b == route.Imperative {
		s = strategy.NewImperative(strategy.WithHost(host), strategy.WithLogger(logger))
	} else {
		s = strategy.NewDeclarative(strategy.WithHost(host), strategy.WithLogger(logger))
	}
	store := TestSQLite(t)
	opts = append([]navigation.Option{
		navigation.WithLogger(logger),
		navigation.WithStorage(store),
		navigation.WithTabs(strategy.TabConfig{ID: "main"}, strategy.TabConfig{ID: "search"}),
	}, opts...)
	m := navigation.NewManager(s, opts...)
	for _, k := range DefaultRoutes[b] {
		if err := m.Register(route.DescriptorFactory(b, ""), k); err != nil {
			t.Fatalf("register %s: %v", k.Name, err)
		}
	}

	svc := navservice.New(m, chain.Default(chain.Factories(nil), logger), logger)
	t.Cleanup(svc.Close)
	return &Env{Service: svc, Host: host, Store: store}
}
