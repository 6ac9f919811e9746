package strategy

import (
	"fmt"
	"log/slog"

	"github.com/starford/navkit/internal/apperr"
	"github.com/starford/navkit/internal/route"
)

// Option configures a strategy.
type Option func(*engine)

// WithHost sets the backend host. The default accepts every operation.
func WithHost(h Host) Option {
	return func(e *engine) {
		if h != nil {
			e.host = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *engine) {
		if l != nil {
			e.logger = l
		}
	}
}

type presentation struct {
	route string
}

type tabState struct {
	cfg       TabConfig
	stack     *Stack
	presented map[route.NavigationType][]presentation
}

// engine holds the bookkeeping shared by both backends. Backend-specific
// behavior is selected by the supported set and singlePresentation.
type engine struct {
	backend            route.Backend
	supported          []route.NavigationType
	singlePresentation bool

	host   Host
	logger *slog.Logger

	tabs   map[string]*tabState
	order  []string
	active string
}

func newEngine(b route.Backend, supported []route.NavigationType, single bool, opts []Option) *engine {
	e := &engine{
		backend:            b,
		supported:          supported,
		singlePresentation: single,
		host:               NopHost,
		logger:             slog.Default(),
		tabs:               make(map[string]*tabState),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(slog.String("backend", b.String()))
	return e
}

func (e *engine) Backend() route.Backend { return e.backend }

func (e *engine) SupportedTypes() []route.NavigationType {
	return append([]route.NavigationType(nil), e.supported...)
}

func (e *engine) Supports(t route.NavigationType) bool {
	for _, s := range e.supported {
		if s == t {
			return true
		}
	}
	return false
}

func (e *engine) RegisterTab(cfg TabConfig) {
	if cfg.ID == "" {
		return
	}
	if _, ok := e.tabs[cfg.ID]; ok {
		return
	}
	e.tabs[cfg.ID] = &tabState{cfg: cfg}
	e.order = append(e.order, cfg.ID)
	if e.active == "" {
		e.active = cfg.ID
	}
}

func (e *engine) ActiveTab() string { return e.active }

func (e *engine) Tabs() []string {
	return append([]string(nil), e.order...)
}

// tab resolves id (the active tab when empty) and lazily initializes its
// bookkeeping.
func (e *engine) tab(id string) (*tabState, error) {
	if id == "" {
		id = e.active
	}
	ts, ok := e.tabs[id]
	if !ok {
		return nil, apperr.TabNotFound(id)
	}
	if ts.stack == nil {
		ts.stack = NewStack()
		ts.presented = make(map[route.NavigationType][]presentation)
	}
	return ts, nil
}

func (e *engine) Navigate(dest route.Destination, c route.Component, tab string) error {
	nt := dest.NavigationType
	if !nt.Valid() {
		return apperr.InvalidNavigationType(nt.String())
	}
	if !e.Supports(nt) {
		e.logger.Warn("navigation type not supported",
			slog.String("route", dest.Route()),
			slog.String("type", nt.String()))
		return apperr.StrategyNotSupported(nt.String())
	}
	if c.Backend != e.backend {
		return apperr.BackendMismatch(dest.Route(),
			fmt.Sprintf("%s component on %s strategy", c.Backend, e.backend))
	}

	if nt == route.Tab {
		target := dest.TabID
		if target == "" {
			target = tab
		}
		return e.SetTab(target)
	}

	ts, err := e.tab(tab)
	if err != nil {
		return err
	}
	op := Operation{
		Tab:          ts.cfg.ID,
		Route:        dest.Route(),
		Presentation: nt,
		Component:    c,
		Animation:    dest.Animation,
	}
	entry := StackEntry{Route: dest.Route(), NavigationType: nt, Component: c}

	switch nt {
	case route.Push:
		op.Kind = OpPush
		if err := e.host.Apply(op); err != nil {
			return apperr.NavigationFailed("push "+dest.Route(), err)
		}
		ts.stack.Push(entry)
	case route.Replace:
		op.Kind = OpReplace
		if err := e.host.Apply(op); err != nil {
			return apperr.NavigationFailed("replace "+dest.Route(), err)
		}
		ts.stack.ReplaceTop(entry)
	default:
		if e.singlePresentation && len(ts.presented[nt]) > 0 {
			return apperr.NavigationFailed(
				fmt.Sprintf("%s already presented in tab %s", nt, ts.cfg.ID), nil)
		}
		op.Kind = OpPresent
		if err := e.host.Apply(op); err != nil {
			return apperr.NavigationFailed("present "+dest.Route(), err)
		}
		ts.presented[nt] = append(ts.presented[nt], presentation{route: dest.Route()})
	}

	e.logger.Debug("navigated",
		slog.String("route", dest.Route()),
		slog.String("type", nt.String()),
		slog.String("tab", ts.cfg.ID))
	return nil
}

func (e *engine) NavigateBack() (BackResult, error) {
	if e.active == "" {
		return BackResult{}, nil
	}
	ts, err := e.tab("")
	if err != nil {
		return BackResult{}, err
	}
	for _, kind := range dismissOrder {
		if len(ts.presented[kind]) > 0 {
			return e.dismissTop(ts, kind)
		}
	}
	top := ts.stack.Peek()
	if top == nil {
		e.logger.Debug("navigate back at root", slog.String("tab", ts.cfg.ID))
		return BackResult{Tab: ts.cfg.ID}, nil
	}
	op := Operation{Kind: OpPop, Tab: ts.cfg.ID, Route: top.Route, Presentation: top.NavigationType}
	if err := e.host.Apply(op); err != nil {
		return BackResult{}, apperr.NavigationFailed("pop "+top.Route, err)
	}
	popped := ts.stack.Pop()
	return BackResult{
		Action:         BackPopped,
		Tab:            ts.cfg.ID,
		Route:          popped.Route,
		NavigationType: popped.NavigationType,
	}, nil
}

// dismissTop dismisses the most recent presentation of kind in ts.
func (e *engine) dismissTop(ts *tabState, kind route.NavigationType) (BackResult, error) {
	list := ts.presented[kind]
	return e.dismissAt(ts, kind, len(list)-1)
}

func (e *engine) dismissAt(ts *tabState, kind route.NavigationType, i int) (BackResult, error) {
	list := ts.presented[kind]
	p := list[i]
	op := Operation{Kind: OpDismiss, Tab: ts.cfg.ID, Route: p.route, Presentation: kind}
	if err := e.host.Apply(op); err != nil {
		return BackResult{}, apperr.NavigationFailed("dismiss "+p.route, err)
	}
	ts.presented[kind] = append(list[:i:i], list[i+1:]...)
	return BackResult{
		Action:         BackDismissed,
		Tab:            ts.cfg.ID,
		Route:          p.route,
		NavigationType: kind,
	}, nil
}

func (e *engine) NavigateToRoot(tab string) error {
	if tab != "" {
		ts, err := e.tab(tab)
		if err != nil {
			return err
		}
		return e.toRoot(ts)
	}
	for _, id := range e.order {
		ts, _ := e.tab(id)
		if err := e.toRoot(ts); err != nil {
			return err
		}
	}
	return nil
}

func (e *engine) toRoot(ts *tabState) error {
	if err := e.host.Apply(Operation{Kind: OpPopToRoot, Tab: ts.cfg.ID}); err != nil {
		return apperr.NavigationFailed("pop to root in tab "+ts.cfg.ID, err)
	}
	ts.stack.Clear()
	for kind := range ts.presented {
		delete(ts.presented, kind)
	}
	return nil
}

func (e *engine) SetTab(tab string) error {
	if _, ok := e.tabs[tab]; !ok {
		return apperr.TabNotFound(tab)
	}
	if tab == e.active {
		return nil
	}
	if err := e.host.Apply(Operation{Kind: OpSelectTab, Tab: tab}); err != nil {
		return apperr.NavigationFailed("select tab "+tab, err)
	}
	e.active = tab
	return nil
}

func (e *engine) DismissModal() (BackResult, error) {
	if e.active == "" {
		return BackResult{}, nil
	}
	ts, err := e.tab("")
	if err != nil {
		return BackResult{}, err
	}
	for _, kind := range dismissOrder {
		if len(ts.presented[kind]) > 0 {
			return e.dismissTop(ts, kind)
		}
	}
	return BackResult{Tab: ts.cfg.ID}, nil
}

func (e *engine) DismissAllModals() ([]BackResult, error) {
	var out []BackResult
	for _, id := range e.order {
		ts, _ := e.tab(id)
		for _, kind := range dismissOrder {
			for len(ts.presented[kind]) > 0 {
				r, err := e.dismissTop(ts, kind)
				if err != nil {
					return out, err
				}
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (e *engine) DismissModalKey(key string) (BackResult, error) {
	if e.active == "" {
		return BackResult{}, nil
	}
	ts, err := e.tab("")
	if err != nil {
		return BackResult{}, err
	}
	for _, kind := range dismissOrder {
		list := ts.presented[kind]
		for i := len(list) - 1; i >= 0; i-- {
			if list[i].route == key {
				return e.dismissAt(ts, kind, i)
			}
		}
	}
	return BackResult{Tab: ts.cfg.ID}, nil
}

func (e *engine) StackDepth(tab string) int {
	ts, err := e.tab(tab)
	if err != nil {
		return 0
	}
	return ts.stack.Len()
}

func (e *engine) Presented(tab string) map[route.NavigationType][]string {
	out := make(map[route.NavigationType][]string)
	ts, err := e.tab(tab)
	if err != nil {
		return out
	}
	for kind, list := range ts.presented {
		if len(list) == 0 {
			continue
		}
		routes := make([]string, len(list))
		for i, p := range list {
			routes[i] = p.route
		}
		out[kind] = routes
	}
	return out
}

func (e *engine) Reset() {
	e.tabs = make(map[string]*tabState)
	e.order = nil
	e.active = ""
}
