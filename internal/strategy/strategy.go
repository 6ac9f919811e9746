// Package strategy implements navigation strategies: one per rendering
// backend, each translating the six navigation types into backend operations
// and keeping per-tab bookkeeping of stacks and open presentations.
//
// Strategies are not safe for concurrent use. All calls must come from the
// goroutine that owns the navigation manager.
package strategy

import (
	"github.com/starford/navkit/internal/route"
)

// TabConfig describes a tab to register.
type TabConfig struct {
	ID    string `yaml:"id" toml:"id"`
	Title string `yaml:"title" toml:"title"`
}

// BackAction tells what a back (or dismiss) operation did.
type BackAction int

const (
	// BackNone means nothing changed: no presentation open and stack at root.
	BackNone BackAction = iota
	// BackDismissed means a presentation was dismissed.
	BackDismissed
	// BackPopped means one stack entry was popped.
	BackPopped
)

func (a BackAction) String() string {
	switch a {
	case BackDismissed:
		return "dismissed"
	case BackPopped:
		return "popped"
	default:
		return "none"
	}
}

// BackResult describes the effect of a back or dismiss operation, so the
// manager can mirror it into the persisted state.
type BackResult struct {
	Action         BackAction
	Tab            string
	Route          string
	NavigationType route.NavigationType
}

// Strategy is the contract shared by all backends.
type Strategy interface {
	// Backend reports which component kind the strategy can host.
	Backend() route.Backend
	// SupportedTypes lists the navigation types the strategy implements.
	SupportedTypes() []route.NavigationType
	// Supports reports whether t is in SupportedTypes.
	Supports(t route.NavigationType) bool

	// Navigate presents c for dest in tab (the active tab when empty).
	Navigate(dest route.Destination, c route.Component, tab string) error
	// NavigateBack dismisses the top presentation of the active tab, or
	// pops its stack when nothing is presented.
	NavigateBack() (BackResult, error)
	// NavigateToRoot truncates tab's stack (every tab when empty) and clears
	// presentation bookkeeping for the same scope. Tabs are unwound in
	// registration order; a host failure stops at the failing tab and
	// leaves the earlier tabs at their root.
	NavigateToRoot(tab string) error
	// SetTab switches the active tab.
	SetTab(tab string) error
	// RegisterTab adds bookkeeping for a tab. It is idempotent.
	RegisterTab(cfg TabConfig)
	// ActiveTab returns the active tab id, or "" before any tab exists.
	ActiveTab() string
	// Tabs returns registered tab ids in registration order.
	Tabs() []string

	// DismissModal dismisses the top presentation of the active tab.
	DismissModal() (BackResult, error)
	// DismissAllModals dismisses every presentation of every tab.
	DismissAllModals() ([]BackResult, error)
	// DismissModalKey dismisses the most recent presentation of route key in
	// the active tab.
	DismissModalKey(key string) (BackResult, error)

	// StackDepth returns the number of entries above tab's root.
	StackDepth(tab string) int
	// Presented returns the routes presented from tab, keyed by type.
	Presented(tab string) map[route.NavigationType][]string

	// Reset drops all bookkeeping. The host is not notified.
	Reset()
}

// ForcePopper is implemented by strategies that can pop one stack level
// independent of any open presentation.
type ForcePopper interface {
	ForceStackPop() (BackResult, error)
}

// dismissOrder is the order in which presentation kinds are checked when
// backing out: sheets first, then full-screen covers, then generic modals.
var dismissOrder = []route.NavigationType{route.Sheet, route.FullScreen, route.Modal}
