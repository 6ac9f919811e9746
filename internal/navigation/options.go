package navigation

import (
	"log/slog"
	"time"

	"github.com/starford/navkit/internal/route"
	"github.com/starford/navkit/internal/storage"
	"github.com/starford/navkit/internal/strategy"
)

// Option configures a Manager.
type Option func(*Manager)

// WithStorage sets the persistence provider used by Save and Restore.
func WithStorage(p storage.Provider) Option {
	return func(m *Manager) { m.store = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock sets the time source for token and tab timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithTabs registers tabs at construction. The first becomes current.
func WithTabs(tabs ...strategy.TabConfig) Option {
	return func(m *Manager) { m.initialTabs = append(m.initialTabs, tabs...) }
}

// WithObserver adds a function called after every successful state change.
func WithObserver(fn func(Event)) Option {
	return func(m *Manager) {
		if fn != nil {
			m.observers = append(m.observers, fn)
		}
	}
}

// WithAutosave saves the state in the background after every change.
func WithAutosave(enabled bool) Option {
	return func(m *Manager) { m.autosave = enabled }
}

// WithCircularGuard rejects a push of the route already on top of the
// target tab with identical parameters.
func WithCircularGuard(enabled bool) Option {
	return func(m *Manager) { m.circularGuard = enabled }
}

// NavigateOption adjusts a single Navigate call.
type NavigateOption func(*navigateOptions)

type navigateOptions struct {
	params    route.Parameters
	tab       string
	navType   route.NavigationType
	animation *route.Animation
}

// WithParameters sets the route parameters.
func WithParameters(p route.Parameters) NavigateOption {
	return func(o *navigateOptions) { o.params = p }
}

// WithParams is WithParameters for a plain map.
func WithParams(m map[string]string) NavigateOption {
	return WithParameters(route.NewParameters(m))
}

// InTab targets tab instead of the current tab. For tab navigation it names
// the tab to switch to.
func InTab(tab string) NavigateOption {
	return func(o *navigateOptions) { o.tab = tab }
}

// As overrides the route's declared presentation.
func As(t route.NavigationType) NavigateOption {
	return func(o *navigateOptions) { o.navType = t }
}

// WithAnimation attaches an animation hint.
func WithAnimation(a route.Animation) NavigateOption {
	return func(o *navigateOptions) { o.animation = &a }
}
