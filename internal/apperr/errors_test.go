package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorsIs_MatchesByKind(t *testing.T) {
	err := fmt.Errorf("navigate: %w", RouteNotFound("profile"))
	if !errors.Is(err, ErrRouteNotFound) {
		t.Fatal("wrapped route-not-found should match sentinel")
	}
	if errors.Is(err, ErrTabNotFound) {
		t.Error("route-not-found must not match tab-not-found")
	}
}

func TestBackendMismatch_IsStrategyNotSupported(t *testing.T) {
	err := BackendMismatch("profile", "imperative factory on declarative strategy")
	if !errors.Is(err, ErrStrategyNotSupported) {
		t.Error("backend mismatch should match strategy-not-supported")
	}
	if !errors.Is(err, ErrBackendMismatch) {
		t.Error("backend mismatch should match its own sentinel")
	}
}

func TestMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{TabNotFound("main"), `tab "main" not found`},
		{ParameterDecodingFailed("userId", "int", nil), `parameter "userId" could not be decoded as int`},
		{StrategyNotSupported("tab"), "strategy does not support navigation type tab"},
		{PersistenceFailed("write", errors.New("disk full")), "persistence failed: write: disk full"},
		{RouteAlreadyRegistered("home"), `route "home" already registered`},
	}
	for _, c := range cases {
		if got := c.err.Error(); got != c.want {
			t.Errorf("Error() = %q, want %q", got, c.want)
		}
	}
}

func TestRecoverySuggestionAndKindOf(t *testing.T) {
	err := fmt.Errorf("wrap: %w", TabNotFound("x"))
	if KindOf(err) != KindTabNotFound {
		t.Fatalf("KindOf = %v", KindOf(err))
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatal("errors.As failed")
	}
	if !strings.Contains(e.RecoverySuggestion(), "Register the tab") {
		t.Errorf("suggestion = %q", e.RecoverySuggestion())
	}
	if KindOf(errors.New("plain")) != 0 {
		t.Error("plain errors have no kind")
	}
}

func TestUnwrapCause(t *testing.T) {
	cause := errors.New("boom")
	err := StateRestorationFailed("decode", cause)
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through Unwrap")
	}
}

func TestKindString(t *testing.T) {
	if KindTabNotFound.String() != "tab_not_found" {
		t.Errorf("String() = %q", KindTabNotFound.String())
	}
	if Kind(0).String() != "unknown" {
		t.Error("zero kind should be unknown")
	}
}
