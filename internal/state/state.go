// Package state holds the persistable snapshot of where the user is: per-tab
// navigation stacks, the open-modal stack, and timestamps.
package state

import (
	"sort"
	"time"

	"github.com/starford/navkit/internal/route"
)

// RouteToken records one navigation step for state reconstruction.
type RouteToken struct {
	Key            string               `json:"key"`
	Parameters     route.Parameters     `json:"parameters"`
	Timestamp      time.Time            `json:"timestamp"`
	NavigationType route.NavigationType `json:"navigationType"`
}

// ModalDestination records one open modal-class presentation. TabID names the
// tab it was presented from.
type ModalDestination struct {
	Key            string               `json:"key"`
	Parameters     route.Parameters     `json:"parameters"`
	NavigationType route.NavigationType `json:"navigationType"`
	Timestamp      time.Time            `json:"timestamp"`
	TabID          string               `json:"tabId,omitempty"`
}

// TabNavigationState is one tab's stack. An empty stack means the tab shows
// its root.
type TabNavigationState struct {
	TabID           string       `json:"tabId"`
	NavigationStack []RouteToken `json:"navigationStack"`
	IsActive        bool         `json:"isActive"`
	LastAccessed    time.Time    `json:"lastAccessed"`
}

// NavigationState is the root snapshot.
type NavigationState struct {
	CurrentTab string                        `json:"currentTab,omitempty"`
	TabStates  map[string]TabNavigationState `json:"tabStates"`
	ModalStack []ModalDestination            `json:"modalStack"`
}

// New returns an empty state.
func New() *NavigationState {
	return &NavigationState{
		TabStates:  make(map[string]TabNavigationState),
		ModalStack: []ModalDestination{},
	}
}

// HasTab reports whether tab is registered.
func (s *NavigationState) HasTab(tab string) bool {
	_, ok := s.TabStates[tab]
	return ok
}

// Tabs returns registered tab ids sorted.
func (s *NavigationState) Tabs() []string {
	out := make([]string, 0, len(s.TabStates))
	for id := range s.TabStates {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// RegisterTab adds an empty, inactive tab. Existing tabs are left alone.
func (s *NavigationState) RegisterTab(tab string, now time.Time) {
	if s.HasTab(tab) {
		return
	}
	s.TabStates[tab] = TabNavigationState{
		TabID:           tab,
		NavigationStack: []RouteToken{},
		LastAccessed:    now,
	}
}

// Activate marks tab as current and touches its LastAccessed.
func (s *NavigationState) Activate(tab string, now time.Time) bool {
	ts, ok := s.TabStates[tab]
	if !ok {
		return false
	}
	if s.CurrentTab != "" && s.CurrentTab != tab {
		if prev, ok := s.TabStates[s.CurrentTab]; ok {
			prev.IsActive = false
			s.TabStates[s.CurrentTab] = prev
		}
	}
	ts.IsActive = true
	ts.LastAccessed = now
	s.TabStates[tab] = ts
	s.CurrentTab = tab
	return true
}

// Stack returns tab's navigation stack.
func (s *NavigationState) Stack(tab string) []RouteToken {
	return s.TabStates[tab].NavigationStack
}

// Push appends token to tab's stack.
func (s *NavigationState) Push(tab string, token RouteToken) bool {
	ts, ok := s.TabStates[tab]
	if !ok {
		return false
	}
	ts.NavigationStack = append(ts.NavigationStack, token)
	s.TabStates[tab] = ts
	return true
}

// ReplaceTop swaps the top of tab's stack for token, or pushes it onto an
// empty stack.
func (s *NavigationState) ReplaceTop(tab string, token RouteToken) bool {
	ts, ok := s.TabStates[tab]
	if !ok {
		return false
	}
	if n := len(ts.NavigationStack); n > 0 {
		ts.NavigationStack[n-1] = token
	} else {
		ts.NavigationStack = append(ts.NavigationStack, token)
	}
	s.TabStates[tab] = ts
	return true
}

// Pop removes and returns the top of tab's stack.
func (s *NavigationState) Pop(tab string) (RouteToken, bool) {
	ts, ok := s.TabStates[tab]
	if !ok || len(ts.NavigationStack) == 0 {
		return RouteToken{}, false
	}
	n := len(ts.NavigationStack)
	top := ts.NavigationStack[n-1]
	ts.NavigationStack = ts.NavigationStack[:n-1]
	s.TabStates[tab] = ts
	return top, true
}

// Truncate empties tab's stack, or every stack when tab is empty.
func (s *NavigationState) Truncate(tab string) {
	for id, ts := range s.TabStates {
		if tab != "" && id != tab {
			continue
		}
		ts.NavigationStack = []RouteToken{}
		s.TabStates[id] = ts
	}
}

// PushModal records an open presentation.
func (s *NavigationState) PushModal(m ModalDestination) {
	s.ModalStack = append(s.ModalStack, m)
}

// RemoveModal removes the most recent modal matching navigationType, tab and,
// when key is non-empty, key.
func (s *NavigationState) RemoveModal(t route.NavigationType, key, tab string) bool {
	for i := len(s.ModalStack) - 1; i >= 0; i-- {
		m := s.ModalStack[i]
		if m.NavigationType != t || m.TabID != tab {
			continue
		}
		if key != "" && m.Key != key {
			continue
		}
		s.ModalStack = append(s.ModalStack[:i], s.ModalStack[i+1:]...)
		return true
	}
	return false
}

// ClearModals removes modals presented from tab, or all when tab is empty.
func (s *NavigationState) ClearModals(tab string) {
	kept := s.ModalStack[:0]
	for _, m := range s.ModalStack {
		if tab != "" && m.TabID != tab {
			kept = append(kept, m)
		}
	}
	s.ModalStack = kept
}

// Modals returns the modals presented from tab in presentation order.
func (s *NavigationState) Modals(tab string) []ModalDestination {
	var out []ModalDestination
	for _, m := range s.ModalStack {
		if m.TabID == tab {
			out = append(out, m)
		}
	}
	return out
}

// Clone returns a deep copy.
func (s *NavigationState) Clone() *NavigationState {
	if s == nil {
		return nil
	}
	out := &NavigationState{
		CurrentTab: s.CurrentTab,
		TabStates:  make(map[string]TabNavigationState, len(s.TabStates)),
		ModalStack: append([]ModalDestination{}, s.ModalStack...),
	}
	for id, ts := range s.TabStates {
		ts.NavigationStack = append([]RouteToken{}, ts.NavigationStack...)
		out.TabStates[id] = ts
	}
	return out
}
