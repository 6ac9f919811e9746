package chain

import (
	"io"
	"log/slog"
	"reflect"
	"sort"
	"testing"

	"github.com/starford/navkit/internal/apperr"
	"github.com/starford/navkit/internal/route"
)

var quiet = slog.New(slog.NewJSONHandler(io.Discard, nil))

// fakeRegistrar is a declarative manager unless backend is changed.
type fakeRegistrar struct {
	backend   route.Backend
	supported map[route.NavigationType]bool
	routes    map[string]route.Factory
}

func newRegistrar(types ...route.NavigationType) *fakeRegistrar {
	r := &fakeRegistrar{
		backend:   route.Declarative,
		supported: map[route.NavigationType]bool{},
		routes:    map[string]route.Factory{},
	}
	for _, t := range types {
		r.supported[t] = true
	}
	return r
}

func (r *fakeRegistrar) Register(f route.Factory, key route.Key) error {
	if f.Backend() != r.backend {
		return apperr.BackendMismatch(key.Name, "factory backend "+f.Backend().String())
	}
	if _, ok := r.routes[key.Name]; ok {
		return apperr.RouteAlreadyRegistered(key.Name)
	}
	r.routes[key.Name] = f
	return nil
}

func (r *fakeRegistrar) Supports(t route.NavigationType) bool { return r.supported[t] }

func (r *fakeRegistrar) Backend() route.Backend { return r.backend }

// countingHandler claims keys with a fixed prefix and counts calls.
type countingHandler struct {
	name   string
	prefix string
	calls  int
}

func (h *countingHandler) Name() string { return h.name }

func (h *countingHandler) CanHandle(key string) bool { return Prefix(h.prefix)(key) }

func (h *countingHandler) RegisterRoute(route.Key, Registrar) bool {
	h.calls++
	return true
}

func TestHandleRegistration_ShortCircuits(t *testing.T) {
	a := &countingHandler{name: "A", prefix: "a_"}
	b := &countingHandler{name: "B", prefix: "b_"}
	c := NewBuilder(quiet).Add(a).Add(b).Build()
	reg := newRegistrar(route.AllTypes...)

	if !c.HandleRegistration(route.MustKey("a_one", route.Push), reg) {
		t.Error("a_one should be handled")
	}
	if !c.HandleRegistration(route.MustKey("b_one", route.Push), reg) {
		t.Error("b_one should be handled")
	}
	if c.HandleRegistration(route.MustKey("c_one", route.Push), reg) {
		t.Error("c_one should not be handled")
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("calls a=%d b=%d, want 1 each", a.calls, b.calls)
	}
	if got := c.Handlers(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("Handlers() = %v", got)
	}
}

func TestRegisterRoutes_Summary(t *testing.T) {
	a := &countingHandler{name: "A", prefix: "a_"}
	b := &countingHandler{name: "B", prefix: "b_"}
	c := NewBuilder(quiet).Add(a).Add(b).Build()
	keys := []route.Key{
		route.MustKey("a_1", route.Push),
		route.MustKey("b_1", route.Push),
		route.MustKey("x_1", route.Push),
		route.MustKey("a_2", route.Sheet),
		route.MustKey("y_1", route.Push),
	}
	s := c.RegisterRoutes(keys, newRegistrar(route.AllTypes...))
	if s.Succeeded != 3 || s.Failed != 2 {
		t.Fatalf("summary = %+v, want 3/2", s)
	}
	sort.Strings(s.FailedKeys)
	if !reflect.DeepEqual(s.FailedKeys, []string{"x_1", "y_1"}) {
		t.Errorf("failed keys = %v", s.FailedKeys)
	}

	res := c.RegisterRoutesWithResults(keys, newRegistrar(route.AllTypes...))
	if len(res) != 5 || res["x_1"] || !res["b_1"] {
		t.Errorf("results = %v", res)
	}
}

func TestDefaultChain_Claims(t *testing.T) {
	c := Default(Factories(nil), quiet)
	cases := map[string]string{
		"admin_users":    AdminHandler,
		"deeplink_promo": DeepLinkHandler,
		"checkoutVC":     ImperativeHandler,
		"uikit_camera":   ImperativeHandler,
		"swiftui_feed":   DeclarativeHandler,
		"profile":        DeclarativeHandler,
		"admin_loginVC":  AdminHandler,
	}
	for key, want := range cases {
		got, ok := c.Claim(key)
		if !ok || got != want {
			t.Errorf("Claim(%q) = %q, %v; want %q", key, got, ok, want)
		}
	}
	if _, ok := c.Claim("unknown"); ok {
		t.Error("unknown should not be claimed")
	}
}

func TestRegisterRoute_FailsClosed(t *testing.T) {
	h := NewDeclarative(Factories(nil), quiet)

	// Handler does not support tab.
	if h.RegisterRoute(route.MustKey("home", route.Tab), newRegistrar(route.AllTypes...)) {
		t.Error("tab presentation must be rejected by the declarative handler")
	}
	// Strategy does not support sheet.
	if h.RegisterRoute(route.MustKey("home", route.Sheet), newRegistrar(route.Push)) {
		t.Error("sheet must be rejected when the strategy lacks it")
	}
	reg := newRegistrar(route.Push, route.Sheet)
	if !h.RegisterRoute(route.MustKey("home", route.Sheet), reg) {
		t.Fatal("supported presentation should register")
	}
	if reg.routes["home"].Backend() != route.Declarative {
		t.Error("factory backend mismatch")
	}
	// Duplicate registration reported as failure.
	if h.RegisterRoute(route.MustKey("home", route.Sheet), reg) {
		t.Error("duplicate registration should fail")
	}
}

func TestRegisterRoute_NilFactory(t *testing.T) {
	h := NewHandler("none", Prefix(""), 0, route.AllTypes, func(route.Backend, route.Key) route.Factory { return nil }, quiet)
	if h.RegisterRoute(route.MustKey("x", route.Push), newRegistrar(route.AllTypes...)) {
		t.Error("nil factory must fail registration")
	}
}

func TestRegisterRoute_BackendAffinity(t *testing.T) {
	c := Default(Factories(map[string]string{"admin_users": "Users"}), quiet)

	decl := newRegistrar(route.AllTypes...)
	if c.HandleRegistration(route.MustKey("checkoutVC", route.Push), decl) {
		t.Error("imperative route must not register on a declarative manager")
	}
	if !c.HandleRegistration(route.MustKey("profile", route.Push), decl) {
		t.Error("declarative route should register on a declarative manager")
	}
	if !c.HandleRegistration(route.MustKey("admin_users", route.Modal), decl) {
		t.Fatal("admin route should follow the manager backend")
	}
	if decl.routes["admin_users"].Backend() != route.Declarative {
		t.Error("admin factory should be declarative")
	}

	imp := newRegistrar(route.AllTypes...)
	imp.backend = route.Imperative
	if c.HandleRegistration(route.MustKey("profile", route.Push), imp) {
		t.Error("declarative route must not register on an imperative manager")
	}
	if !c.HandleRegistration(route.MustKey("admin_users", route.Modal), imp) {
		t.Fatal("admin route should follow the manager backend")
	}
	if imp.routes["admin_users"].Backend() != route.Imperative {
		t.Error("admin factory should be imperative")
	}
}
