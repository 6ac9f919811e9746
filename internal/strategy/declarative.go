package strategy

import (
	"log/slog"
	"time"

	"github.com/starford/navkit/internal/apperr"
	"github.com/starford/navkit/internal/route"
)

// Declarative drives a declarative view tree: a bound navigation path per
// tab plus at most one sheet, one full-screen cover and one modal per tab.
// Tab switching by navigation type and replace are not available.
type Declarative struct {
	*engine

	backCallback func()
	notifier     Notifier
	now          func() time.Time
}

var (
	_ Strategy    = (*Declarative)(nil)
	_ ForcePopper = (*Declarative)(nil)
)

// NewDeclarative returns a strategy for declarative components.
func NewDeclarative(opts ...Option) *Declarative {
	return &Declarative{
		engine: newEngine(route.Declarative,
			[]route.NavigationType{route.Push, route.Sheet, route.FullScreen, route.Modal},
			true, opts),
		now: time.Now,
	}
}

// SetBackCallback registers the callback ForceStackPop invokes. A nil fn
// removes it.
func (d *Declarative) SetBackCallback(fn func()) {
	d.backCallback = fn
}

// SetNotifier sets where ForceStackPop publishes back events when no
// callback is registered.
func (d *Declarative) SetNotifier(n Notifier) {
	d.notifier = n
}

// ForceStackPop removes the top entry of the active tab's path regardless of
// open presentations. The view layer is told through the registered
// callback, or through a back event when no callback is set; with neither,
// the host receives a pop.
func (d *Declarative) ForceStackPop() (BackResult, error) {
	if d.active == "" {
		return BackResult{}, nil
	}
	ts, err := d.tab("")
	if err != nil {
		return BackResult{}, err
	}
	top := ts.stack.Peek()
	if top == nil {
		d.logger.Debug("force stack pop at root", slog.String("tab", ts.cfg.ID))
		return BackResult{Tab: ts.cfg.ID}, nil
	}

	switch {
	case d.backCallback != nil:
		d.backCallback()
	case d.notifier != nil:
		d.notifier.NotifyBack(BackEvent{Tab: ts.cfg.ID, Route: top.Route, At: d.now()})
	default:
		op := Operation{Kind: OpPop, Tab: ts.cfg.ID, Route: top.Route, Presentation: top.NavigationType}
		if err := d.host.Apply(op); err != nil {
			return BackResult{}, apperr.NavigationFailed("pop "+top.Route, err)
		}
	}

	popped := ts.stack.Pop()
	return BackResult{
		Action:         BackPopped,
		Tab:            ts.cfg.ID,
		Route:          popped.Route,
		NavigationType: popped.NavigationType,
	}, nil
}
