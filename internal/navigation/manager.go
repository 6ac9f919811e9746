// Package navigation implements the NavigationManager: the single entry
// point applications use to register routes and navigate. It keeps the
// active strategy's bookkeeping and the persistable state in lockstep.
//
// A Manager is not safe for concurrent use; call it from one goroutine
// (the UI thread). See package navservice for a goroutine-owning wrapper.
package navigation

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/starford/navkit/internal/apperr"
	"github.com/starford/navkit/internal/route"
	"github.com/starford/navkit/internal/state"
	"github.com/starford/navkit/internal/storage"
	"github.com/starford/navkit/internal/strategy"
)

// DefaultTab is registered when no tab is configured.
const DefaultTab = "main"

type registration struct {
	key     route.Key
	factory route.Factory
}

// Manager coordinates route registration, navigation and persistence.
type Manager struct {
	strategy strategy.Strategy
	routes   map[string]registration
	state    *state.NavigationState
	tabs     []strategy.TabConfig

	store         storage.Provider
	writer        *writer
	logger        *slog.Logger
	now           func() time.Time
	observers     []func(Event)
	autosave      bool
	circularGuard bool
	initialTabs   []strategy.TabConfig
}

// NewManager returns a manager driving s.
func NewManager(s strategy.Strategy, opts ...Option) *Manager {
	m := &Manager{
		strategy: s,
		routes:   make(map[string]registration),
		state:    state.New(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if len(m.initialTabs) == 0 {
		m.initialTabs = []strategy.TabConfig{{ID: DefaultTab}}
	}
	for _, tab := range m.initialTabs {
		m.RegisterTab(tab)
	}
	m.initialTabs = nil
	if m.store != nil {
		m.writer = newWriter(m.store, m.logger)
	}
	return m
}

func (m *Manager) clock() time.Time {
	return m.now().UTC().Round(0)
}

// Strategy returns the active strategy.
func (m *Manager) Strategy() strategy.Strategy { return m.strategy }

// Backend reports the active strategy's backend.
func (m *Manager) Backend() route.Backend { return m.strategy.Backend() }

// Supports reports whether the active strategy supports t.
func (m *Manager) Supports(t route.NavigationType) bool { return m.strategy.Supports(t) }

// Register binds f to key. The factory's backend must match the strategy
// and the key must not already be registered.
func (m *Manager) Register(f route.Factory, key route.Key) error {
	return m.register(f, key, false)
}

// Override binds f to key, replacing any existing registration.
func (m *Manager) Override(f route.Factory, key route.Key) error {
	return m.register(f, key, true)
}

func (m *Manager) register(f route.Factory, key route.Key, replace bool) error {
	if _, err := route.NewKey(key.Name, key.Presentation); err != nil {
		return err
	}
	if f == nil {
		return apperr.FactoryNotRegistered(key.Name)
	}
	if f.Backend() != m.strategy.Backend() {
		err := apperr.BackendMismatch(key.Name,
			fmt.Sprintf("%s factory on %s strategy", f.Backend(), m.strategy.Backend()))
		m.logger.Warn("route rejected",
			slog.String("route", key.Name),
			slog.String("error", err.Error()))
		return err
	}
	if _, exists := m.routes[key.Name]; exists && !replace {
		return apperr.RouteAlreadyRegistered(key.Name)
	}
	m.routes[key.Name] = registration{key: key, factory: f}
	return nil
}

// Unregister removes the registration for name.
func (m *Manager) Unregister(name string) bool {
	if _, ok := m.routes[name]; !ok {
		return false
	}
	delete(m.routes, name)
	return true
}

// IsRegistered reports whether name has a factory.
func (m *Manager) IsRegistered(name string) bool {
	_, ok := m.routes[name]
	return ok
}

// Routes returns the registered keys sorted by name.
func (m *Manager) Routes() []route.Key {
	out := make([]route.Key, 0, len(m.routes))
	for _, r := range m.routes {
		out = append(out, r.key)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RegisterTab registers a tab with the strategy and the state. The first
// registered tab becomes current.
func (m *Manager) RegisterTab(cfg strategy.TabConfig) {
	if cfg.ID == "" || m.state.HasTab(cfg.ID) {
		return
	}
	now := m.clock()
	m.strategy.RegisterTab(cfg)
	m.state.RegisterTab(cfg.ID, now)
	m.tabs = append(m.tabs, cfg)
	if m.state.CurrentTab == "" {
		m.state.Activate(cfg.ID, now)
	}
}

// Tabs returns the registered tab configurations.
func (m *Manager) Tabs() []strategy.TabConfig {
	return append([]strategy.TabConfig(nil), m.tabs...)
}

// State returns a deep copy of the current navigation state.
func (m *Manager) State() *state.NavigationState {
	return m.state.Clone()
}

// CurrentTab returns the active tab id.
func (m *Manager) CurrentTab() string { return m.state.CurrentTab }

// Navigate builds the component registered for key and presents it. The
// presentation defaults to the key's declared type.
func (m *Manager) Navigate(key string, opts ...NavigateOption) error {
	reg, ok := m.routes[key]
	if !ok {
		m.logger.Warn("route not found", slog.String("route", key))
		return apperr.RouteNotFound(key)
	}
	o := navigateOptions{navType: reg.key.Presentation}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.navType.Valid() {
		return apperr.InvalidNavigationType(o.navType.String())
	}
	if !m.strategy.Supports(o.navType) {
		m.logger.Warn("navigation type not supported",
			slog.String("route", key),
			slog.String("type", o.navType.String()))
		return apperr.StrategyNotSupported(o.navType.String())
	}

	tab := o.tab
	if o.navType == route.Tab {
		if tab == "" {
			tab = key
		}
	} else if tab == "" {
		tab = m.state.CurrentTab
	}
	if !m.state.HasTab(tab) {
		return apperr.TabNotFound(tab)
	}
	if m.circularGuard && o.navType == route.Push {
		if stack := m.state.Stack(tab); len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.Key == key && top.Parameters.Equal(o.params) {
				return apperr.CircularNavigation(key)
			}
		}
	}

	ctx := route.Context{
		Key:            reg.key,
		Parameters:     o.params,
		NavigationType: o.navType,
		TabID:          tab,
		Animation:      o.animation,
	}
	component, err := reg.factory.Build(ctx)
	if err != nil {
		return apperr.NavigationFailed("build "+key, err)
	}
	if err := m.strategy.Navigate(ctx, component, tab); err != nil {
		m.logger.Warn("navigation failed",
			slog.String("route", key),
			slog.String("type", o.navType.String()),
			slog.String("error", err.Error()))
		return err
	}

	now := m.clock()
	switch {
	case o.navType == route.Tab:
		m.state.Activate(tab, now)
	case o.navType.IsModal():
		m.state.PushModal(state.ModalDestination{
			Key:            key,
			Parameters:     o.params,
			NavigationType: o.navType,
			Timestamp:      now,
			TabID:          tab,
		})
	default:
		token := state.RouteToken{Key: key, Parameters: o.params, Timestamp: now, NavigationType: o.navType}
		if o.navType == route.Replace {
			m.state.ReplaceTop(tab, token)
		} else {
			m.state.Push(tab, token)
		}
	}

	m.changed(Event{
		Type:           EventNavigated,
		Route:          key,
		Tab:            tab,
		NavigationType: o.navType,
		Parameters:     o.params.Data(),
		At:             now,
	})
	return nil
}

// NavigateBack dismisses the top presentation of the current tab or pops
// its stack.
func (m *Manager) NavigateBack() (strategy.BackResult, error) {
	res, err := m.strategy.NavigateBack()
	if err != nil {
		return res, err
	}
	m.mirrorBack(res, EventBack)
	return res, nil
}

// ForceStackPop pops one stack level of the current tab, ignoring open
// presentations. Strategies without forced pop report strategy-not-supported.
func (m *Manager) ForceStackPop() (strategy.BackResult, error) {
	fp, ok := m.strategy.(strategy.ForcePopper)
	if !ok {
		m.logger.Warn("force stack pop not supported")
		return strategy.BackResult{}, apperr.StrategyNotSupported("forceStackPop")
	}
	res, err := fp.ForceStackPop()
	if err != nil {
		return res, err
	}
	m.mirrorBack(res, EventBack)
	return res, nil
}

func (m *Manager) mirrorBack(res strategy.BackResult, eventType string) {
	switch res.Action {
	case strategy.BackDismissed:
		m.state.RemoveModal(res.NavigationType, res.Route, res.Tab)
		eventType = EventDismissed
	case strategy.BackPopped:
		m.state.Pop(res.Tab)
	default:
		return
	}
	m.changed(Event{Type: eventType, Route: res.Route, Tab: res.Tab, NavigationType: res.NavigationType})
}

// NavigateToRoot returns tab (every tab when empty) to its root and clears
// the modals presented from it.
//
// Each tab is one host transition. When every tab is unwound and the host
// rejects one of them, the tabs before it stay at their root, the rest are
// untouched, and the state mirrors exactly that.
func (m *Manager) NavigateToRoot(tab string) error {
	tabs := []string{tab}
	if tab == "" {
		tabs = m.state.Tabs()
	} else if !m.state.HasTab(tab) {
		return apperr.TabNotFound(tab)
	}
	for i, t := range tabs {
		if err := m.strategy.NavigateToRoot(t); err != nil {
			if i > 0 {
				m.changed(Event{Type: EventRoot, Tab: tab})
			}
			return err
		}
		m.state.Truncate(t)
		m.state.ClearModals(t)
	}
	m.changed(Event{Type: EventRoot, Tab: tab})
	return nil
}

// SetTab makes tab current.
func (m *Manager) SetTab(tab string) error {
	if !m.state.HasTab(tab) {
		return apperr.TabNotFound(tab)
	}
	if err := m.strategy.SetTab(tab); err != nil {
		return err
	}
	m.state.Activate(tab, m.clock())
	m.changed(Event{Type: EventTab, Tab: tab})
	return nil
}

// DismissModal dismisses the top presentation of the current tab.
func (m *Manager) DismissModal() (strategy.BackResult, error) {
	res, err := m.strategy.DismissModal()
	if err != nil {
		return res, err
	}
	m.mirrorBack(res, EventDismissed)
	return res, nil
}

// DismissModalKey dismisses the most recent presentation of key in the
// current tab.
func (m *Manager) DismissModalKey(key string) (strategy.BackResult, error) {
	res, err := m.strategy.DismissModalKey(key)
	if err != nil {
		return res, err
	}
	m.mirrorBack(res, EventDismissed)
	return res, nil
}

// DismissAllModals dismisses every open presentation and returns how many
// were dismissed.
func (m *Manager) DismissAllModals() (int, error) {
	results, err := m.strategy.DismissAllModals()
	for _, res := range results {
		m.mirrorBack(res, EventDismissed)
	}
	return len(results), err
}
