package route

import "fmt"

// Context describes one navigation request. It is built fresh for every
// navigation and handed to factories by value; factories must not retain it
// for mutation.
type Context struct {
	Key            Key
	Parameters     Parameters
	NavigationType NavigationType
	TabID          string
	Animation      *Animation
}

// Destination is the strategy-facing view of a Context. Factory input and
// strategy input never diverge, so they share one type.
type Destination = Context

// Route returns the route key name.
func (c Context) Route() string {
	return c.Key.Name
}

// Component is a backend-native view artifact built by a factory. View is
// opaque to navkit: a declarative node or an imperative controller.
type Component struct {
	Backend Backend
	View    any
}

// Factory builds the backend component for a route.
type Factory interface {
	Backend() Backend
	Build(ctx Context) (Component, error)
}

// DeclarativeFunc adapts a function returning a declarative view node.
type DeclarativeFunc func(ctx Context) (any, error)

func (f DeclarativeFunc) Backend() Backend { return Declarative }

func (f DeclarativeFunc) Build(ctx Context) (Component, error) {
	v, err := f(ctx)
	if err != nil {
		return Component{}, err
	}
	return Component{Backend: Declarative, View: v}, nil
}

// ImperativeFunc adapts a function returning an imperative view controller.
type ImperativeFunc func(ctx Context) (any, error)

func (f ImperativeFunc) Backend() Backend { return Imperative }

func (f ImperativeFunc) Build(ctx Context) (Component, error) {
	v, err := f(ctx)
	if err != nil {
		return Component{}, err
	}
	return Component{Backend: Imperative, View: v}, nil
}

// Descriptor is a placeholder view used where concrete screens are not
// available: it records what would have been shown.
type Descriptor struct {
	Route      string            `json:"route"`
	Title      string            `json:"title,omitempty"`
	Parameters map[string]string `json:"parameters"`
	Backend    string            `json:"backend"`
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s[%s]", d.Route, d.Backend)
}

// DescriptorFactory returns a factory for backend b that builds a Descriptor.
func DescriptorFactory(b Backend, title string) Factory {
	build := func(ctx Context) (any, error) {
		return Descriptor{
			Route:      ctx.Key.Name,
			Title:      title,
			Parameters: ctx.Parameters.Data(),
			Backend:    b.String(),
		}, nil
	}
	if b == Imperative {
		return ImperativeFunc(build)
	}
	return DeclarativeFunc(build)
}
