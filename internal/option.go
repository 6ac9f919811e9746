package internal

import "github.com/starford/navkit/internal/strategy"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	version string
	host    strategy.Host
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithHost sets the rendering host the strategy drives. Without one, host
// operations are only logged.
func WithHost(h strategy.Host) Option {
	return func(a *application) {
		a.host = h
	}
}
