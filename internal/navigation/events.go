package navigation

import (
	"context"
	"time"

	"github.com/starford/navkit/internal/route"
)

// Event types published to observers.
const (
	EventNavigated        = "navigation.navigated"
	EventBack             = "navigation.back"
	EventRoot             = "navigation.root"
	EventTab              = "navigation.tab"
	EventDismissed        = "navigation.dismissed"
	EventRestored         = "navigation.restored"
	EventRoutesRegistered = "routes.registered"
)

// Event describes one state change.
type Event struct {
	Type           string               `json:"type"`
	Route          string               `json:"route,omitempty"`
	Tab            string               `json:"tab,omitempty"`
	NavigationType route.NavigationType `json:"navigationType,omitempty"`
	Parameters     map[string]string    `json:"parameters,omitempty"`
	At             time.Time            `json:"at"`
}

// Publish sends ev to the manager's observers. It is used for events that
// originate outside the manager, such as batch route registration.
func (m *Manager) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = m.clock()
	}
	for _, fn := range m.observers {
		fn(ev)
	}
}

func (m *Manager) changed(ev Event) {
	m.Publish(ev)
	if m.autosave && m.writer != nil {
		m.writer.enqueue(context.Background(), m.state.Clone(), nil)
	}
}
