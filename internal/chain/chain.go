package chain

import (
	"log/slog"

	"github.com/starford/navkit/internal/route"
)

type link struct {
	handler Handler
	next    *link
}

// Chain dispatches a key to the first handler that claims it.
type Chain struct {
	head   *link
	logger *slog.Logger
}

// Builder assembles a Chain in insertion order.
type Builder struct {
	handlers []Handler
	logger   *slog.Logger
}

// NewBuilder returns an empty builder.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

// Add appends h.
func (b *Builder) Add(h Handler) *Builder {
	if h != nil {
		b.handlers = append(b.handlers, h)
	}
	return b
}

// Build links the handlers.
func (b *Builder) Build() *Chain {
	c := &Chain{logger: b.logger}
	for i := len(b.handlers) - 1; i >= 0; i-- {
		c.head = &link{handler: b.handlers[i], next: c.head}
	}
	return c
}

// Handlers returns handler names in dispatch order.
func (c *Chain) Handlers() []string {
	var names []string
	for l := c.head; l != nil; l = l.next {
		names = append(names, l.handler.Name())
	}
	return names
}

// Claim returns the name of the handler that would claim key.
func (c *Chain) Claim(key string) (string, bool) {
	for l := c.head; l != nil; l = l.next {
		if l.handler.CanHandle(key) {
			return l.handler.Name(), true
		}
	}
	return "", false
}

// HandleRegistration offers key to each handler in order. The first
// handler whose CanHandle is true decides the outcome; later handlers are
// not consulted.
func (c *Chain) HandleRegistration(key route.Key, reg Registrar) bool {
	for l := c.head; l != nil; l = l.next {
		if l.handler.CanHandle(key.Name) {
			return l.handler.RegisterRoute(key, reg)
		}
	}
	c.logger.Warn("no handler claimed route", slog.String("route", key.Name))
	return false
}

// Summary is the outcome of a batch registration.
type Summary struct {
	Succeeded  int      `json:"succeeded"`
	Failed     int      `json:"failed"`
	FailedKeys []string `json:"failedKeys,omitempty"`
}

// RegisterRoutes attempts every key and returns counts.
func (c *Chain) RegisterRoutes(keys []route.Key, reg Registrar) Summary {
	var s Summary
	for _, k := range keys {
		if c.HandleRegistration(k, reg) {
			s.Succeeded++
			continue
		}
		s.Failed++
		s.FailedKeys = append(s.FailedKeys, k.Name)
	}
	c.logger.Info("routes registered",
		slog.Int("succeeded", s.Succeeded),
		slog.Int("failed", s.Failed))
	return s
}

// RegisterRoutesWithResults attempts every key and reports each outcome.
func (c *Chain) RegisterRoutesWithResults(keys []route.Key, reg Registrar) map[string]bool {
	out := make(map[string]bool, len(keys))
	for _, k := range keys {
		out[k.Name] = c.HandleRegistration(k, reg)
	}
	return out
}
