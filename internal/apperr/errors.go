// Package apperr defines the navigation error taxonomy shared by every navkit
// component.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies a class of navigation failure.
type Kind int

const (
	KindInvalidRouteKey Kind = iota + 1
	KindRouteNotFound
	KindNavigationFailed
	KindInvalidParameters
	KindTabNotFound
	KindPersistenceFailed
	KindParameterNotFound
	KindParameterDecodingFailed
	KindAnimationNotSupported
	KindStrategyNotSupported
	KindFactoryNotRegistered
	KindInvalidNavigationType
	KindCircularNavigation
	KindStateRestorationFailed
	KindRouteAlreadyRegistered
	KindBackendMismatch
)

var kindNames = map[Kind]string{
	KindInvalidRouteKey:         "invalid_route_key",
	KindRouteNotFound:           "route_not_found",
	KindNavigationFailed:        "navigation_failed",
	KindInvalidParameters:       "invalid_parameters",
	KindTabNotFound:             "tab_not_found",
	KindPersistenceFailed:       "persistence_failed",
	KindParameterNotFound:       "parameter_not_found",
	KindParameterDecodingFailed: "parameter_decoding_failed",
	KindAnimationNotSupported:   "animation_not_supported",
	KindStrategyNotSupported:    "strategy_not_supported",
	KindFactoryNotRegistered:    "factory_not_registered",
	KindInvalidNavigationType:   "invalid_navigation_type",
	KindCircularNavigation:      "circular_navigation",
	KindStateRestorationFailed:  "state_restoration_failed",
	KindRouteAlreadyRegistered:  "route_already_registered",
	KindBackendMismatch:         "backend_mismatch",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Sentinels usable with errors.Is against any *Error of the same kind.
var (
	ErrInvalidRouteKey         = &Error{Kind: KindInvalidRouteKey}
	ErrRouteNotFound           = &Error{Kind: KindRouteNotFound}
	ErrNavigationFailed        = &Error{Kind: KindNavigationFailed}
	ErrInvalidParameters       = &Error{Kind: KindInvalidParameters}
	ErrTabNotFound             = &Error{Kind: KindTabNotFound}
	ErrPersistenceFailed       = &Error{Kind: KindPersistenceFailed}
	ErrParameterNotFound       = &Error{Kind: KindParameterNotFound}
	ErrParameterDecodingFailed = &Error{Kind: KindParameterDecodingFailed}
	ErrAnimationNotSupported   = &Error{Kind: KindAnimationNotSupported}
	ErrStrategyNotSupported    = &Error{Kind: KindStrategyNotSupported}
	ErrFactoryNotRegistered    = &Error{Kind: KindFactoryNotRegistered}
	ErrInvalidNavigationType   = &Error{Kind: KindInvalidNavigationType}
	ErrCircularNavigation      = &Error{Kind: KindCircularNavigation}
	ErrStateRestorationFailed  = &Error{Kind: KindStateRestorationFailed}
	ErrRouteAlreadyRegistered  = &Error{Kind: KindRouteAlreadyRegistered}
	ErrBackendMismatch         = &Error{Kind: KindBackendMismatch}
)

// Error is a navigation failure. Subject holds the route key, tab id,
// parameter key or navigation type the failure is about; Reason is free text.
type Error struct {
	Kind     Kind
	Subject  string
	Expected string // expected type name for parameter decoding failures
	Reason   string
	Err      error
}

func (e *Error) Error() string {
	msg := e.message()
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) message() string {
	switch e.Kind {
	case KindInvalidRouteKey:
		return fmt.Sprintf("invalid route key %q", e.Subject)
	case KindRouteNotFound:
		return fmt.Sprintf("route %q not found", e.Subject)
	case KindNavigationFailed:
		return fmt.Sprintf("navigation failed: %s", e.Reason)
	case KindInvalidParameters:
		return fmt.Sprintf("invalid parameters: %s", e.Reason)
	case KindTabNotFound:
		return fmt.Sprintf("tab %q not found", e.Subject)
	case KindPersistenceFailed:
		return fmt.Sprintf("persistence failed: %s", e.Reason)
	case KindParameterNotFound:
		return fmt.Sprintf("parameter %q not found", e.Subject)
	case KindParameterDecodingFailed:
		return fmt.Sprintf("parameter %q could not be decoded as %s", e.Subject, e.Expected)
	case KindAnimationNotSupported:
		return "animation not supported"
	case KindStrategyNotSupported:
		if e.Subject != "" {
			return fmt.Sprintf("strategy does not support navigation type %s", e.Subject)
		}
		return "strategy not supported"
	case KindFactoryNotRegistered:
		return fmt.Sprintf("no factory registered for route %q", e.Subject)
	case KindInvalidNavigationType:
		return fmt.Sprintf("invalid navigation type %q", e.Subject)
	case KindCircularNavigation:
		return fmt.Sprintf("circular navigation to route %q", e.Subject)
	case KindStateRestorationFailed:
		return fmt.Sprintf("state restoration failed: %s", e.Reason)
	case KindRouteAlreadyRegistered:
		return fmt.Sprintf("route %q already registered", e.Subject)
	case KindBackendMismatch:
		return fmt.Sprintf("factory for route %q does not match strategy backend: %s", e.Subject, e.Reason)
	default:
		return "unknown navigation error"
	}
}

// RecoverySuggestion returns a short hint for the caller or the user.
func (e *Error) RecoverySuggestion() string {
	switch e.Kind {
	case KindInvalidRouteKey, KindRouteNotFound, KindFactoryNotRegistered:
		return "Check that the route is declared in the route table and registered before navigating."
	case KindTabNotFound:
		return "Register the tab before selecting or navigating inside it."
	case KindInvalidParameters, KindParameterNotFound, KindParameterDecodingFailed:
		return "Verify the parameters passed to the route."
	case KindPersistenceFailed, KindStateRestorationFailed:
		return "Clear the saved navigation state and start from the root."
	case KindStrategyNotSupported, KindBackendMismatch, KindAnimationNotSupported, KindInvalidNavigationType:
		return "Use a presentation type supported by the active navigation strategy."
	case KindCircularNavigation:
		return "Navigate back instead of pushing a route that is already on top."
	case KindRouteAlreadyRegistered:
		return "Use Override to replace an existing route registration."
	default:
		return "Try the navigation again."
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind. A backend mismatch also matches
// ErrStrategyNotSupported.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == KindStrategyNotSupported && e.Kind == KindBackendMismatch {
		return true
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of err, or 0 when err is not a navigation error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func InvalidRouteKey(key string) error { return &Error{Kind: KindInvalidRouteKey, Subject: key} }
func RouteNotFound(key string) error   { return &Error{Kind: KindRouteNotFound, Subject: key} }
func TabNotFound(tab string) error     { return &Error{Kind: KindTabNotFound, Subject: tab} }

func NavigationFailed(reason string, err error) error {
	return &Error{Kind: KindNavigationFailed, Reason: reason, Err: err}
}

func InvalidParameters(reason string) error {
	return &Error{Kind: KindInvalidParameters, Reason: reason}
}

func PersistenceFailed(reason string, err error) error {
	return &Error{Kind: KindPersistenceFailed, Reason: reason, Err: err}
}

func ParameterNotFound(key string) error {
	return &Error{Kind: KindParameterNotFound, Subject: key}
}

func ParameterDecodingFailed(key, expected string, err error) error {
	return &Error{Kind: KindParameterDecodingFailed, Subject: key, Expected: expected, Err: err}
}

func AnimationNotSupported() error { return &Error{Kind: KindAnimationNotSupported} }

func StrategyNotSupported(navigationType string) error {
	return &Error{Kind: KindStrategyNotSupported, Subject: navigationType}
}

func FactoryNotRegistered(key string) error {
	return &Error{Kind: KindFactoryNotRegistered, Subject: key}
}

func InvalidNavigationType(value string) error {
	return &Error{Kind: KindInvalidNavigationType, Subject: value}
}

func CircularNavigation(route string) error {
	return &Error{Kind: KindCircularNavigation, Subject: route}
}

func StateRestorationFailed(reason string, err error) error {
	return &Error{Kind: KindStateRestorationFailed, Reason: reason, Err: err}
}

func RouteAlreadyRegistered(key string) error {
	return &Error{Kind: KindRouteAlreadyRegistered, Subject: key}
}

func BackendMismatch(key, reason string) error {
	return &Error{Kind: KindBackendMismatch, Subject: key, Reason: reason}
}
