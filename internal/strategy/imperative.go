package strategy

import "github.com/starford/navkit/internal/route"

// Imperative drives a controller hierarchy: one stack controller per tab,
// a tab bar controller, and presented controllers that may stack.
type Imperative struct {
	*engine
}

var _ Strategy = (*Imperative)(nil)

// NewImperative returns a strategy for imperative components.
func NewImperative(opts ...Option) *Imperative {
	return &Imperative{
		engine: newEngine(route.Imperative, route.AllTypes, false, opts),
	}
}
