package internal

import (
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/navkit/internal/route"
	"github.com/starford/navkit/internal/strategy"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Persistence drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Config represents the application configuration.
type Config struct {
	App         ApplicationConfig `yaml:"app" toml:"app"`
	Navigation  NavigationConfig  `yaml:"navigation" toml:"navigation"`
	Routes      RoutesConfig      `yaml:"routes" toml:"routes"`
	Persistence PersistenceConfig `yaml:"persistence" toml:"persistence"`
	Auth        AuthConfig        `yaml:"auth" toml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Navigation.Validate(); err != nil {
		return fmt.Errorf("navigation: %w", err)
	}
	if err := c.Routes.Validate(); err != nil {
		return fmt.Errorf("routes: %w", err)
	}
	if err := c.Persistence.Validate(); err != nil {
		return fmt.Errorf("persistence: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	HTTP     HTTPConfig `yaml:"http" toml:"http"`
	Metrics  bool       `yaml:"metrics" toml:"metrics"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// NavigationConfig selects the strategy and the tabs it starts with.
// DefaultTab, when set, is activated after the tabs are registered.
type NavigationConfig struct {
	Backend       string               `yaml:"backend" toml:"backend"`
	Tabs          []strategy.TabConfig `yaml:"tabs" toml:"tabs"`
	DefaultTab    string               `yaml:"default_tab" toml:"default_tab"`
	CircularGuard bool                 `yaml:"circular_guard" toml:"circular_guard"`
}

// Validate validates the navigation configuration.
func (c *NavigationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required,
			validation.In(route.Declarative.String(), route.Imperative.String())),
	); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Tabs))
	for i, tab := range c.Tabs {
		if tab.ID == "" {
			return fmt.Errorf("tabs[%d]: id is required", i)
		}
		if seen[tab.ID] {
			return fmt.Errorf("tabs[%d]: duplicate id %q", i, tab.ID)
		}
		seen[tab.ID] = true
	}
	if c.DefaultTab != "" && !seen[c.DefaultTab] {
		return fmt.Errorf("default_tab %q is not a configured tab", c.DefaultTab)
	}
	return nil
}

// BackendType returns the configured backend. Call after Validate.
func (c *NavigationConfig) BackendType() route.Backend {
	b, _ := route.ParseBackend(c.Backend)
	return b
}

// RoutesConfig points at the route table file.
type RoutesConfig struct {
	Path  string `yaml:"path" toml:"path"`
	Watch bool   `yaml:"watch" toml:"watch"`
}

// Validate validates the routes configuration.
func (c *RoutesConfig) Validate() error {
	if c.Watch && c.Path == "" {
		return errors.New("watch requires a path")
	}
	return nil
}

// PersistenceConfig selects where navigation state is saved.
type PersistenceConfig struct {
	Driver   string `yaml:"driver" toml:"driver"`
	Path     string `yaml:"path" toml:"path"`
	Autosave bool   `yaml:"autosave" toml:"autosave"`
	Restore  bool   `yaml:"restore" toml:"restore"`
}

// Validate validates the persistence configuration.
func (c *PersistenceConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverMemory, DriverFile, DriverSQLite)),
		validation.Field(&c.Path, validation.When(c.Driver != DriverMemory, validation.Required)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" toml:"mode"`
	Token string `yaml:"token" toml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
			Metrics: true,
		},
		Navigation: NavigationConfig{
			Backend: route.Declarative.String(),
			Tabs: []strategy.TabConfig{
				{ID: "main", Title: "Main"},
			},
		},
		Routes: RoutesConfig{
			Path:  "./config/routes.yaml",
			Watch: true,
		},
		Persistence: PersistenceConfig{
			Driver:   DriverSQLite,
			Path:     "./navkit.db",
			Autosave: true,
			Restore:  true,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
