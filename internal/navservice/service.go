// Package navservice runs a navigation manager on its own goroutine and
// exposes request/response methods safe for concurrent callers.
package navservice

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"go.uber.org/atomic"

	"github.com/starford/navkit/internal/apperr"
	"github.com/starford/navkit/internal/chain"
	"github.com/starford/navkit/internal/navigation"
	"github.com/starford/navkit/internal/route"
	"github.com/starford/navkit/internal/state"
	"github.com/starford/navkit/internal/strategy"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("navservice: closed")

type request struct {
	fn   func(m *navigation.Manager)
	done chan struct{}
}

// Service owns a Manager.
//
// Concurrency model: a single loop goroutine owns the manager and is the
// only caller of its methods. Public methods submit closures to the loop and
// wait for them, so the manager needs no locks.
type Service struct {
	chain   *chain.Chain
	logger  *slog.Logger
	onError func(error)

	reqCh   chan request
	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// Option configures a Service.
type Option func(*Service)

// WithErrorHook sets a function called on the caller's goroutine with every
// error a manager operation returns.
func WithErrorHook(fn func(error)) Option {
	return func(s *Service) { s.onError = fn }
}

// New starts the loop for m. Routes registered through the service are
// dispatched by c.
func New(m *navigation.Manager, c *chain.Chain, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		chain:   c,
		logger:  logger,
		reqCh:   make(chan request),
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.run(m)
	return s
}

func (s *Service) run(m *navigation.Manager) {
	defer close(s.stopped)
	for {
		select {
		case <-s.stopCh:
			return
		case req := <-s.reqCh:
			req.fn(m)
			close(req.done)
		}
	}
}

// Close stops the loop. Pending callers receive ErrClosed.
func (s *Service) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.stopCh)
	}
	<-s.stopped
}

// Do runs fn on the loop goroutine and returns its error.
func (s *Service) Do(ctx context.Context, fn func(m *navigation.Manager) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	var err error
	req := request{
		fn:   func(m *navigation.Manager) { err = fn(m) },
		done: make(chan struct{}),
	}
	select {
	case s.reqCh <- req:
	case <-s.stopped:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	// Once accepted the closure always runs to completion.
	<-req.done
	if err != nil && s.onError != nil {
		s.onError(err)
	}
	return err
}

// Snapshot is a read-only view of the manager.
type Snapshot struct {
	Backend        string                 `json:"backend"`
	SupportedTypes []route.NavigationType `json:"supportedTypes"`
	Tabs           []strategy.TabConfig   `json:"tabs"`
	State          *state.NavigationState `json:"state"`
}

// Snapshot returns the current state and configuration.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	var out *Snapshot
	err := s.Do(ctx, func(m *navigation.Manager) error {
		out = &Snapshot{
			Backend:        m.Backend().String(),
			SupportedTypes: m.Strategy().SupportedTypes(),
			Tabs:           m.Tabs(),
			State:          m.State(),
		}
		return nil
	})
	return out, err
}

// State returns a copy of the navigation state.
func (s *Service) State(ctx context.Context) (*state.NavigationState, error) {
	var out *state.NavigationState
	err := s.Do(ctx, func(m *navigation.Manager) error {
		out = m.State()
		return nil
	})
	return out, err
}

// RouteInfo describes a registered route.
type RouteInfo struct {
	Key     string `json:"key"`
	Type    string `json:"presentation"`
	Handler string `json:"handler,omitempty"`
}

// Routes lists registered routes with the handler that claims each.
func (s *Service) Routes(ctx context.Context) ([]RouteInfo, error) {
	var out []RouteInfo
	err := s.Do(ctx, func(m *navigation.Manager) error {
		for _, k := range m.Routes() {
			info := RouteInfo{Key: k.Name, Type: k.Presentation.String()}
			if s.chain != nil {
				info.Handler, _ = s.chain.Claim(k.Name)
			}
			out = append(out, info)
		}
		return nil
	})
	return out, err
}

// NavigateRequest is a navigation described with plain values.
type NavigateRequest struct {
	Route      string            `json:"route"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Tab        string            `json:"tab,omitempty"`
	Type       string            `json:"type,omitempty"`
}

func (r NavigateRequest) options() ([]navigation.NavigateOption, error) {
	opts := []navigation.NavigateOption{navigation.WithParams(r.Parameters)}
	if r.Tab != "" {
		opts = append(opts, navigation.InTab(r.Tab))
	}
	if r.Type != "" {
		t, err := route.ParseNavigationType(r.Type)
		if err != nil {
			return nil, err
		}
		opts = append(opts, navigation.As(t))
	}
	return opts, nil
}

// Navigate performs req.
func (s *Service) Navigate(ctx context.Context, req NavigateRequest) error {
	if req.Route == "" {
		return apperr.InvalidRouteKey(req.Route)
	}
	opts, err := req.options()
	if err != nil {
		return err
	}
	return s.Do(ctx, func(m *navigation.Manager) error {
		return m.Navigate(req.Route, opts...)
	})
}

// NavigateURL parses a deep link and navigates to it.
func (s *Service) NavigateURL(ctx context.Context, raw string) (NavigateRequest, error) {
	link, err := route.ParseURL(raw)
	if err != nil {
		return NavigateRequest{}, err
	}
	req := NavigateRequest{
		Route:      link.Route,
		Parameters: link.Parameters.Data(),
		Tab:        link.TabID,
	}
	if link.NavigationType.Valid() {
		req.Type = link.NavigationType.String()
	}
	return req, s.Navigate(ctx, req)
}

// Back performs NavigateBack.
func (s *Service) Back(ctx context.Context) (strategy.BackResult, error) {
	var res strategy.BackResult
	err := s.Do(ctx, func(m *navigation.Manager) (err error) {
		res, err = m.NavigateBack()
		return err
	})
	return res, err
}

// ForceBack performs ForceStackPop.
func (s *Service) ForceBack(ctx context.Context) (strategy.BackResult, error) {
	var res strategy.BackResult
	err := s.Do(ctx, func(m *navigation.Manager) (err error) {
		res, err = m.ForceStackPop()
		return err
	})
	return res, err
}

// Root returns tab (all tabs when empty) to its root.
func (s *Service) Root(ctx context.Context, tab string) error {
	return s.Do(ctx, func(m *navigation.Manager) error {
		return m.NavigateToRoot(tab)
	})
}

// SetTab switches the current tab.
func (s *Service) SetTab(ctx context.Context, tab string) error {
	return s.Do(ctx, func(m *navigation.Manager) error {
		return m.SetTab(tab)
	})
}

// Dismiss dismisses presentations: all of them when all is set, the most
// recent one for key when key is set, otherwise the top one. It returns how
// many were dismissed.
func (s *Service) Dismiss(ctx context.Context, key string, all bool) (int, error) {
	var n int
	err := s.Do(ctx, func(m *navigation.Manager) error {
		if all {
			var err error
			n, err = m.DismissAllModals()
			return err
		}
		var (
			res strategy.BackResult
			err error
		)
		if key != "" {
			res, err = m.DismissModalKey(key)
		} else {
			res, err = m.DismissModal()
		}
		if res.Action == strategy.BackDismissed {
			n = 1
		}
		return err
	})
	return n, err
}

// Save persists the state. The snapshot is taken on the loop; the write
// happens on the manager's background writer while the caller waits.
func (s *Service) Save(ctx context.Context) error {
	var ch <-chan error
	if err := s.Do(ctx, func(m *navigation.Manager) error {
		ch = m.SaveAsync(ctx)
		return nil
	}); err != nil {
		return err
	}
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Restore loads the saved state and replays it.
func (s *Service) Restore(ctx context.Context) (bool, error) {
	var ok bool
	err := s.Do(ctx, func(m *navigation.Manager) (err error) {
		ok, err = m.Restore(ctx)
		return err
	})
	return ok, err
}

// ClearPersisted removes the saved state.
func (s *Service) ClearPersisted(ctx context.Context) error {
	return s.Do(ctx, func(m *navigation.Manager) error {
		return m.ClearPersisted(ctx)
	})
}

// RegisterRoutes offers keys to the chain.
func (s *Service) RegisterRoutes(ctx context.Context, keys []route.Key) (chain.Summary, error) {
	var sum chain.Summary
	err := s.Do(ctx, func(m *navigation.Manager) error {
		sum = s.register(m, keys)
		return nil
	})
	return sum, err
}

// SyncRoutes makes the registered routes match keys: routes missing from
// keys are removed, routes whose presentation changed are re-registered and
// new routes are offered to the chain.
func (s *Service) SyncRoutes(ctx context.Context, keys []route.Key) (chain.Summary, error) {
	var sum chain.Summary
	err := s.Do(ctx, func(m *navigation.Manager) error {
		want := make(map[string]route.Key, len(keys))
		for _, k := range keys {
			want[k.Name] = k
		}
		var pending []route.Key
		for _, k := range m.Routes() {
			nk, ok := want[k.Name]
			if !ok || nk.Presentation != k.Presentation {
				m.Unregister(k.Name)
				s.logger.Info("route removed", slog.String("route", k.Name))
			}
		}
		for _, k := range keys {
			if !m.IsRegistered(k.Name) {
				pending = append(pending, k)
			}
		}
		sort.Slice(pending, func(i, j int) bool { return pending[i].Name < pending[j].Name })
		sum = s.register(m, pending)
		return nil
	})
	return sum, err
}

func (s *Service) register(m *navigation.Manager, keys []route.Key) chain.Summary {
	if s.chain == nil || len(keys) == 0 {
		return chain.Summary{}
	}
	sum := s.chain.RegisterRoutes(keys, m)
	m.Publish(navigation.Event{Type: navigation.EventRoutesRegistered})
	return sum
}
