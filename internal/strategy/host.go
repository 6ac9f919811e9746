package strategy

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/navkit/internal/route"
)

// OpKind is a backend-native operation.
type OpKind int

const (
	OpPush OpKind = iota + 1
	OpPop
	OpPopToRoot
	OpReplace
	OpPresent
	OpDismiss
	OpSelectTab
)

func (k OpKind) String() string {
	switch k {
	case OpPush:
		return "push"
	case OpPop:
		return "pop"
	case OpPopToRoot:
		return "popToRoot"
	case OpReplace:
		return "replace"
	case OpPresent:
		return "present"
	case OpDismiss:
		return "dismiss"
	case OpSelectTab:
		return "selectTab"
	default:
		return fmt.Sprintf("op(%d)", int(k))
	}
}

// Operation is one call into the rendering backend.
type Operation struct {
	Kind         OpKind
	Tab          string
	Route        string
	Presentation route.NavigationType
	Component    route.Component
	Animation    *route.Animation
}

// Host performs backend-native operations. A returned error aborts the
// navigation before the strategy changes its bookkeeping.
type Host interface {
	Apply(op Operation) error
}

// HostFunc adapts a function to Host.
type HostFunc func(op Operation) error

func (f HostFunc) Apply(op Operation) error { return f(op) }

// NopHost accepts every operation.
var NopHost Host = HostFunc(func(Operation) error { return nil })

// Recorder is a Host that keeps a history of applied operations. FailOn,
// when set, can reject an operation before it is recorded.
type Recorder struct {
	FailOn func(op Operation) error
	Logger *slog.Logger

	mu  sync.Mutex
	ops []Operation
}

func (r *Recorder) Apply(op Operation) error {
	if r.FailOn != nil {
		if err := r.FailOn(op); err != nil {
			return err
		}
	}
	r.mu.Lock()
	r.ops = append(r.ops, op)
	r.mu.Unlock()
	if r.Logger != nil {
		r.Logger.Debug("host: apply",
			slog.String("op", op.Kind.String()),
			slog.String("tab", op.Tab),
			slog.String("route", op.Route))
	}
	return nil
}

// Operations returns a copy of the recorded history.
func (r *Recorder) Operations() []Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Operation(nil), r.ops...)
}

// Count returns how many recorded operations have kind k.
func (r *Recorder) Count(k OpKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, op := range r.ops {
		if op.Kind == k {
			n++
		}
	}
	return n
}

// Last returns the most recent operation.
func (r *Recorder) Last() (Operation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ops) == 0 {
		return Operation{}, false
	}
	return r.ops[len(r.ops)-1], true
}

// Reset clears the history.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.ops = nil
	r.mu.Unlock()
}
