// Package route defines the value types that describe a navigation request:
// route keys, parameters, navigation types, and the factory contract that
// turns a request into a backend component.
package route

import (
	"strings"
	"time"

	"github.com/starford/navkit/internal/apperr"
)

// NavigationType is the presentation style requested for a route.
// The zero value means "use the route's declared presentation".
type NavigationType int

const (
	Push NavigationType = iota + 1
	Sheet
	FullScreen
	Tab
	Modal
	Replace
)

// AllTypes lists every navigation type in declaration order.
var AllTypes = []NavigationType{Push, Sheet, FullScreen, Tab, Modal, Replace}

var typeNames = map[NavigationType]string{
	Push:       "push",
	Sheet:      "sheet",
	FullScreen: "fullScreen",
	Tab:        "tab",
	Modal:      "modal",
	Replace:    "replace",
}

func (t NavigationType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return ""
}

// Valid reports whether t is one of the six navigation types.
func (t NavigationType) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// IsModal reports whether t presents over the current stack.
func (t NavigationType) IsModal() bool {
	return t == Sheet || t == FullScreen || t == Modal
}

// ParseNavigationType parses the text form ("push", "fullScreen", ...).
// Matching is case-insensitive so "fullscreen" is accepted from config files.
func ParseNavigationType(s string) (NavigationType, error) {
	for t, name := range typeNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return 0, apperr.InvalidNavigationType(s)
}

func (t NavigationType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, apperr.InvalidNavigationType(t.String())
	}
	return []byte(t.String()), nil
}

func (t *NavigationType) UnmarshalText(b []byte) error {
	v, err := ParseNavigationType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Backend identifies a rendering backend.
type Backend int

const (
	// Declarative is a declarative view tree backend.
	Declarative Backend = iota + 1
	// Imperative is an imperative view-controller hierarchy backend.
	Imperative
)

func (b Backend) String() string {
	switch b {
	case Declarative:
		return "declarative"
	case Imperative:
		return "imperative"
	default:
		return "unknown"
	}
}

// ParseBackend parses "declarative" or "imperative".
func ParseBackend(s string) (Backend, bool) {
	switch strings.ToLower(s) {
	case "declarative":
		return Declarative, true
	case "imperative":
		return Imperative, true
	}
	return 0, false
}

// Animation is an optional presentation hint. Strategies pass it through to
// the host untouched.
type Animation struct {
	Style    string        `json:"style,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}
