package navigation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/navkit/internal/apperr"
	"github.com/starford/navkit/internal/route"
	"github.com/starford/navkit/internal/state"
	"github.com/starford/navkit/internal/strategy"
)

// Save writes a snapshot of the current state to the provider. It is
// ordered after any background save still in flight.
func (m *Manager) Save(ctx context.Context) error {
	if m.store == nil {
		return apperr.PersistenceFailed("no persistence provider configured", nil)
	}
	select {
	case err := <-m.writer.submit(ctx, m.state.Clone()):
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SaveAsync snapshots the state on the calling goroutine and queues it for
// the background writer. The channel receives the result and is then closed.
// When a newer snapshot is queued before this one is written, only the newer
// one is written and its result is delivered here.
func (m *Manager) SaveAsync(ctx context.Context) <-chan error {
	if m.store == nil {
		ch := make(chan error, 1)
		ch <- apperr.PersistenceFailed("no persistence provider configured", nil)
		close(ch)
		return ch
	}
	return m.writer.submit(ctx, m.state.Clone())
}

// Flush waits until every queued background save has been written.
func (m *Manager) Flush(ctx context.Context) error {
	if m.writer == nil {
		return nil
	}
	return m.writer.flush(ctx)
}

// Restore replaces the live state with the saved snapshot and replays it
// into the strategy. It reports false when nothing was saved. The host is
// unwound to the root of every tab before the snapshot is replayed. On a
// replay failure the host is unwound again and the previous state is
// replayed back.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	if m.store == nil {
		return false, apperr.StateRestorationFailed("no persistence provider configured", nil)
	}
	if err := m.writer.flush(ctx); err != nil {
		return false, apperr.StateRestorationFailed("flush pending saves", err)
	}
	saved, err := m.store.Restore(ctx)
	if err != nil {
		return false, err
	}
	if saved == nil {
		return false, nil
	}
	for _, cfg := range m.tabs {
		saved.RegisterTab(cfg.ID, m.clock())
	}
	if saved.CurrentTab == "" && len(m.tabs) > 0 {
		saved.Activate(m.tabs[0].ID, m.clock())
	}
	for i := range saved.ModalStack {
		if saved.ModalStack[i].TabID == "" {
			saved.ModalStack[i].TabID = saved.CurrentTab
		}
	}
	if err := m.validate(saved); err != nil {
		return false, err
	}

	previous := m.state.Clone()
	if err := m.unwind(m.state); err != nil {
		m.logger.Error("unwind before restore failed", slog.String("error", err.Error()))
		m.changed(Event{Type: EventRoot})
		return false, apperr.StateRestorationFailed("unwind", err)
	}
	if err := m.replay(saved); err != nil {
		m.logger.Error("state replay failed, rolling back", slog.String("error", err.Error()))
		if rbErr := m.unwind(state.New()); rbErr != nil {
			m.logger.Error("rollback unwind failed", slog.String("error", rbErr.Error()))
		} else if rbErr := m.replay(previous); rbErr != nil {
			m.logger.Error("rollback replay failed", slog.String("error", rbErr.Error()))
		}
		m.state = previous
		return false, apperr.StateRestorationFailed("replay", err)
	}
	for _, tab := range saved.Tabs() {
		if !m.hasTabConfig(tab) {
			m.tabs = append(m.tabs, strategy.TabConfig{ID: tab})
		}
	}
	m.state = saved
	m.changed(Event{Type: EventRestored, Tab: saved.CurrentTab})
	return true, nil
}

func (m *Manager) hasTabConfig(id string) bool {
	for _, cfg := range m.tabs {
		if cfg.ID == id {
			return true
		}
	}
	return false
}

// unwind dismisses every open presentation, returns every tab to its root
// and selects the first registered tab, on the host and in the strategy.
// Each completed step is mirrored into s.
func (m *Manager) unwind(s *state.NavigationState) error {
	results, err := m.strategy.DismissAllModals()
	for _, res := range results {
		s.RemoveModal(res.NavigationType, res.Route, res.Tab)
	}
	if err != nil {
		return err
	}
	for _, tab := range m.strategy.Tabs() {
		if m.strategy.StackDepth(tab) == 0 {
			continue
		}
		if err := m.strategy.NavigateToRoot(tab); err != nil {
			return err
		}
		s.Truncate(tab)
	}
	if len(m.tabs) == 0 {
		return nil
	}
	first := m.tabs[0].ID
	if err := m.strategy.SetTab(first); err != nil {
		return err
	}
	s.Activate(first, m.clock())
	return nil
}

// ClearPersisted removes the saved snapshot.
func (m *Manager) ClearPersisted(ctx context.Context) error {
	if m.store == nil {
		return apperr.PersistenceFailed("no persistence provider configured", nil)
	}
	if err := m.writer.flush(ctx); err != nil {
		return apperr.PersistenceFailed("flush pending saves", err)
	}
	return m.store.Clear(ctx)
}

// validate checks that every route in s is registered and presentable by the
// strategy.
func (m *Manager) validate(s *state.NavigationState) error {
	check := func(key string, nt route.NavigationType) error {
		if _, ok := m.routes[key]; !ok {
			return apperr.StateRestorationFailed(fmt.Sprintf("route %q is not registered", key), nil)
		}
		if nt == route.Replace {
			nt = route.Push
		}
		if !m.strategy.Supports(nt) {
			return apperr.StateRestorationFailed(
				fmt.Sprintf("route %q uses unsupported type %s", key, nt), nil)
		}
		return nil
	}
	for _, tab := range s.Tabs() {
		for _, tok := range s.Stack(tab) {
			if err := check(tok.Key, tok.NavigationType); err != nil {
				return err
			}
		}
	}
	for _, md := range s.ModalStack {
		if md.TabID != "" && !s.HasTab(md.TabID) {
			return apperr.StateRestorationFailed(fmt.Sprintf("modal %q references unknown tab %q", md.Key, md.TabID), nil)
		}
		if err := check(md.Key, md.NavigationType); err != nil {
			return err
		}
	}
	return nil
}

// replay resets the strategy and rebuilds its bookkeeping from s. The host
// must already be unwound.
func (m *Manager) replay(s *state.NavigationState) error {
	m.strategy.Reset()
	titles := make(map[string]strategy.TabConfig, len(m.tabs))
	for _, cfg := range m.tabs {
		titles[cfg.ID] = cfg
	}
	for _, cfg := range m.tabs {
		m.strategy.RegisterTab(cfg)
	}
	for _, tab := range s.Tabs() {
		if _, ok := titles[tab]; !ok {
			m.strategy.RegisterTab(strategy.TabConfig{ID: tab})
		}
	}

	present := func(key string, params route.Parameters, nt route.NavigationType, tab string) error {
		reg := m.routes[key]
		ctx := route.Context{Key: reg.key, Parameters: params, NavigationType: nt, TabID: tab}
		c, err := reg.factory.Build(ctx)
		if err != nil {
			return apperr.NavigationFailed("build "+key, err)
		}
		return m.strategy.Navigate(ctx, c, tab)
	}
	for _, tab := range s.Tabs() {
		for _, tok := range s.Stack(tab) {
			if err := present(tok.Key, tok.Parameters, route.Push, tab); err != nil {
				return err
			}
		}
	}
	for _, md := range s.ModalStack {
		tab := md.TabID
		if tab == "" {
			tab = s.CurrentTab
		}
		if err := present(md.Key, md.Parameters, md.NavigationType, tab); err != nil {
			return err
		}
	}
	if s.CurrentTab != "" {
		return m.strategy.SetTab(s.CurrentTab)
	}
	return nil
}
