// Package chain registers routes through an ordered chain of handlers. Each
// handler claims route keys by naming convention and registers the claimed
// key with a factory for its backend. Backend-bound handlers register
// factories for their own backend, so a claimed key whose backend differs
// from the manager's is rejected by the manager.
package chain

import (
	"log/slog"
	"strings"

	"github.com/starford/navkit/internal/route"
)

// Registrar is the registration surface of a navigation manager.
type Registrar interface {
	Register(f route.Factory, key route.Key) error
	Supports(t route.NavigationType) bool
	Backend() route.Backend
}

// FactorySource returns the factory a handler registers for key on
// backend b.
type FactorySource func(b route.Backend, key route.Key) route.Factory

// Handler claims and registers route keys.
type Handler interface {
	Name() string
	// CanHandle reports whether the handler claims key. It is a pure
	// predicate over the key string.
	CanHandle(key string) bool
	// RegisterRoute registers key with reg and reports success.
	RegisterRoute(key route.Key, reg Registrar) bool
}

// Matcher is a claim predicate.
type Matcher func(key string) bool

// Prefix matches keys starting with p.
func Prefix(p string) Matcher {
	return func(key string) bool { return strings.HasPrefix(key, p) }
}

// Suffix matches keys ending with s.
func Suffix(s string) Matcher {
	return func(key string) bool { return strings.HasSuffix(key, s) }
}

// OneOf matches keys in names.
func OneOf(names ...string) Matcher {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(key string) bool {
		_, ok := set[key]
		return ok
	}
}

// Any matches when at least one of ms does.
func Any(ms ...Matcher) Matcher {
	return func(key string) bool {
		for _, m := range ms {
			if m(key) {
				return true
			}
		}
		return false
	}
}

// BaseHandler is a configurable Handler.
type BaseHandler struct {
	name      string
	match     Matcher
	backend   route.Backend
	supported map[route.NavigationType]bool
	factories FactorySource
	logger    *slog.Logger
}

// NewHandler builds a handler that claims keys matching m and registers
// them when their presentation is in supported. A zero backend follows the
// registrar's backend.
func NewHandler(name string, m Matcher, backend route.Backend, supported []route.NavigationType, factories FactorySource, logger *slog.Logger) *BaseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	set := make(map[route.NavigationType]bool, len(supported))
	for _, t := range supported {
		set[t] = true
	}
	return &BaseHandler{
		name:      name,
		match:     m,
		backend:   backend,
		supported: set,
		factories: factories,
		logger:    logger.With(slog.String("handler", name)),
	}
}

func (h *BaseHandler) Name() string { return h.name }

func (h *BaseHandler) CanHandle(key string) bool {
	return h.match != nil && h.match(key)
}

// Supports reports whether t is in the handler's own supported set.
func (h *BaseHandler) Supports(t route.NavigationType) bool {
	return h.supported[t]
}

func (h *BaseHandler) RegisterRoute(key route.Key, reg Registrar) bool {
	if !h.supported[key.Presentation] {
		h.logger.Warn("presentation not supported by handler",
			slog.String("route", key.Name),
			slog.String("type", key.Presentation.String()))
		return false
	}
	if !reg.Supports(key.Presentation) {
		h.logger.Warn("presentation not supported by strategy",
			slog.String("route", key.Name),
			slog.String("type", key.Presentation.String()))
		return false
	}
	if h.factories == nil {
		h.logger.Warn("handler has no factory source", slog.String("route", key.Name))
		return false
	}
	b := h.backend
	if b == 0 {
		b = reg.Backend()
	}
	f := h.factories(b, key)
	if f == nil {
		h.logger.Warn("no factory for route", slog.String("route", key.Name))
		return false
	}
	if err := reg.Register(f, key); err != nil {
		h.logger.Warn("route registration failed",
			slog.String("route", key.Name),
			slog.String("error", err.Error()))
		return false
	}
	h.logger.Debug("route registered", slog.String("route", key.Name))
	return true
}
