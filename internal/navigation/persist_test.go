package navigation

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/starford/navkit/internal/apperr"
	"github.com/starford/navkit/internal/route"
	"github.com/starford/navkit/internal/state"
	"github.com/starford/navkit/internal/storage"
	"github.com/starford/navkit/internal/strategy"
)

func TestSaveRestore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFile(filepath.Join(t.TempDir(), "nav.json"))
	if err != nil {
		t.Fatal(err)
	}
	m, _ := imperativeManager(t, WithStorage(store))
	_ = m.Navigate("listVC")
	_ = m.Navigate("detailVC", WithParams(map[string]string{"id": "7"}))
	_ = m.Navigate("editVC")
	_ = m.Navigate("search")
	_ = m.Navigate("listVC")
	if err := m.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	want := m.State()

	restored, rec := imperativeManager(t, WithStorage(store))
	ok, err := restored.Restore(ctx)
	if err != nil || !ok {
		t.Fatalf("Restore = %v, %v", ok, err)
	}
	if got := restored.State(); !reflect.DeepEqual(got, want) {
		t.Errorf("restored state:\n got %+v\nwant %+v", got, want)
	}
	if restored.CurrentTab() != "search" {
		t.Errorf("current tab = %q", restored.CurrentTab())
	}
	if rec.Count(strategy.OpPush) != 3 || rec.Count(strategy.OpPresent) != 1 {
		t.Errorf("replay ops = %+v", rec.Operations())
	}
	assertLockstep(t, restored)

	// Back after restore dismisses the restored modal of tab main only once
	// main is current again.
	if err := restored.SetTab("main"); err != nil {
		t.Fatal(err)
	}
	res, err := restored.NavigateBack()
	if err != nil || res.Route != "editVC" {
		t.Errorf("back after restore = %+v, %v", res, err)
	}
	assertLockstep(t, restored)
}

func TestRestore_Empty(t *testing.T) {
	m, _ := declarativeManager(t, WithStorage(storage.NewMemory()))
	ok, err := m.Restore(context.Background())
	if err != nil || ok {
		t.Errorf("Restore on empty store = %v, %v", ok, err)
	}
}

func TestRestore_UnregisteredRouteLeavesState(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	m, _ := declarativeManager(t, WithStorage(store))
	_ = m.Navigate("detail")
	if err := m.Save(ctx); err != nil {
		t.Fatal(err)
	}

	other, _ := declarativeManager(t, WithStorage(store))
	other.Unregister("detail")
	_ = other.Navigate("home")
	before := other.State()

	ok, err := other.Restore(ctx)
	if ok || !errors.Is(err, apperr.ErrStateRestorationFailed) {
		t.Fatalf("Restore = %v, %v", ok, err)
	}
	if !reflect.DeepEqual(other.State(), before) {
		t.Error("failed restore changed live state")
	}
	assertLockstep(t, other)
}

func TestSave_WithoutProvider(t *testing.T) {
	m, _ := declarativeManager(t)
	_ = m.Navigate("detail")
	before := m.State()
	if err := m.Save(context.Background()); !errors.Is(err, apperr.ErrPersistenceFailed) {
		t.Errorf("err = %v", err)
	}
	if err := <-m.SaveAsync(context.Background()); !errors.Is(err, apperr.ErrPersistenceFailed) {
		t.Errorf("async err = %v", err)
	}
	if !reflect.DeepEqual(m.State(), before) {
		t.Error("failed save changed live state")
	}
}

func TestSaveAsync_SnapshotsOnCaller(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	m, _ := declarativeManager(t, WithStorage(store))
	_ = m.Navigate("detail")
	ch := m.SaveAsync(ctx)
	_ = m.Navigate("profile")
	if err := <-ch; err != nil {
		t.Fatal(err)
	}
	saved, err := store.Restore(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(saved.Stack(DefaultTab)); got != 1 {
		t.Errorf("saved stack = %d, want the snapshot taken before the second push", got)
	}
}

func TestClearPersisted(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	m, _ := declarativeManager(t, WithStorage(store))
	_ = m.Save(ctx)
	if err := m.ClearPersisted(ctx); err != nil {
		t.Fatal(err)
	}
	if ok, _ := m.Restore(ctx); ok {
		t.Error("nothing should be restored after clear")
	}
}

func TestAutosave(t *testing.T) {
	store := storage.NewMemory()
	done := make(chan struct{}, 8)
	m, _ := declarativeManager(t, WithStorage(store), WithAutosave(true),
		WithObserver(func(Event) { done <- struct{}{} }))
	if err := m.Navigate("detail", WithParameters(route.NewParameters(map[string]string{"id": "1"}))); err != nil {
		t.Fatal(err)
	}
	<-done
	// Save runs in the background; a synchronous save afterwards must agree.
	if err := m.Save(context.Background()); err != nil {
		t.Fatal(err)
	}
	saved, err := store.Restore(context.Background())
	if err != nil || saved == nil || len(saved.Stack(DefaultTab)) != 1 {
		t.Errorf("saved = %+v, %v", saved, err)
	}
}

// hostView folds recorded host operations into per-tab stack depth, the
// number of open presentations and the selected tab.
func hostView(ops []strategy.Operation, firstTab string) (map[string]int, int, string) {
	depth := make(map[string]int)
	open := 0
	selected := firstTab
	for _, op := range ops {
		switch op.Kind {
		case strategy.OpPush:
			depth[op.Tab]++
		case strategy.OpPop:
			depth[op.Tab]--
		case strategy.OpPopToRoot:
			depth[op.Tab] = 0
		case strategy.OpReplace:
			if depth[op.Tab] == 0 {
				depth[op.Tab] = 1
			}
		case strategy.OpPresent:
			open++
		case strategy.OpDismiss:
			open--
		case strategy.OpSelectTab:
			selected = op.Tab
		}
	}
	return depth, open, selected
}

func assertHostMatches(t *testing.T, m *Manager, rec *strategy.Recorder) {
	t.Helper()
	depth, open, selected := hostView(rec.Operations(), "main")
	s := m.State()
	for _, tab := range s.Tabs() {
		if depth[tab] != len(s.Stack(tab)) || depth[tab] != m.Strategy().StackDepth(tab) {
			t.Errorf("tab %s depth: host %d, strategy %d, state %d",
				tab, depth[tab], m.Strategy().StackDepth(tab), len(s.Stack(tab)))
		}
	}
	if open != len(s.ModalStack) {
		t.Errorf("presentations: host %d, state %d", open, len(s.ModalStack))
	}
	if selected != s.CurrentTab {
		t.Errorf("selected tab: host %q, state %q", selected, s.CurrentTab)
	}
}

func TestRestore_UnwindsHostFirst(t *testing.T) {
	ctx := context.Background()
	m, rec := imperativeManager(t, WithStorage(storage.NewMemory()))
	_ = m.Navigate("listVC")
	if err := m.Save(ctx); err != nil {
		t.Fatal(err)
	}
	_ = m.Navigate("detailVC")
	_ = m.Navigate("listVC")
	_ = m.Navigate("editVC")
	_ = m.Navigate("search")
	_ = m.Navigate("detailVC")

	ok, err := m.Restore(ctx)
	if err != nil || !ok {
		t.Fatalf("Restore = %v, %v", ok, err)
	}
	s := m.State()
	if stack := s.Stack("main"); len(stack) != 1 || stack[0].Key != "listVC" {
		t.Errorf("main stack = %+v", stack)
	}
	if len(s.Stack("search")) != 0 || len(s.ModalStack) != 0 || s.CurrentTab != "main" {
		t.Errorf("restored state = %+v", s)
	}
	assertLockstep(t, m)
	assertHostMatches(t, m, rec)
}

func TestRestore_ReplayFailureRollsBackHost(t *testing.T) {
	ctx := context.Background()
	m, rec := imperativeManager(t, WithStorage(storage.NewMemory()))
	_ = m.Navigate("listVC")
	_ = m.Navigate("detailVC")
	if err := m.Save(ctx); err != nil {
		t.Fatal(err)
	}
	_, _ = m.NavigateBack()
	_ = m.Navigate("editVC")
	before := m.State()

	rec.FailOn = func(op strategy.Operation) error {
		if op.Kind == strategy.OpPush && op.Route == "detailVC" {
			return errors.New("host busy")
		}
		return nil
	}
	ok, err := m.Restore(ctx)
	if ok || !errors.Is(err, apperr.ErrStateRestorationFailed) {
		t.Fatalf("Restore = %v, %v", ok, err)
	}
	after := m.State()
	if len(after.Stack("main")) != len(before.Stack("main")) || len(after.ModalStack) != len(before.ModalStack) {
		t.Fatalf("state after rollback = %+v, want %+v", after, before)
	}
	if after.ModalStack[0].Key != "editVC" {
		t.Errorf("modal = %+v", after.ModalStack)
	}
	assertLockstep(t, m)
	assertHostMatches(t, m, rec)
}

func TestRestore_AdoptsSnapshotTabs(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	src, _ := imperativeManager(t, WithStorage(store), WithTabs(strategy.TabConfig{ID: "inbox"}))
	_ = src.Navigate("listVC", InTab("inbox"))
	if err := src.Save(ctx); err != nil {
		t.Fatal(err)
	}

	m, _ := imperativeManager(t, WithStorage(store))
	if ok, err := m.Restore(ctx); err != nil || !ok {
		t.Fatalf("Restore = %v, %v", ok, err)
	}
	var ids []string
	for _, cfg := range m.Tabs() {
		ids = append(ids, cfg.ID)
	}
	if want := []string{"main", "search", "inbox"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("tabs = %v, want %v", ids, want)
	}
	if !reflect.DeepEqual(m.Strategy().Tabs(), ids) {
		t.Errorf("strategy tabs = %v", m.Strategy().Tabs())
	}
	if len(m.State().Stack("inbox")) != 1 {
		t.Error("inbox stack not restored")
	}
	assertLockstep(t, m)
}

// slowStore delays its first write.
type slowStore struct {
	*storage.Memory
	delay time.Duration
	once  sync.Once
}

func (s *slowStore) Save(ctx context.Context, st *state.NavigationState) error {
	s.once.Do(func() { time.Sleep(s.delay) })
	return s.Memory.Save(ctx, st)
}

func TestAutosave_KeepsNewestSnapshot(t *testing.T) {
	ctx := context.Background()
	store := &slowStore{Memory: storage.NewMemory(), delay: 100 * time.Millisecond}
	m, _ := imperativeManager(t, WithStorage(store), WithAutosave(true))
	_ = m.Navigate("listVC")
	_ = m.Navigate("detailVC")

	if err := m.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	saved, err := store.Restore(ctx)
	if err != nil || saved == nil {
		t.Fatalf("saved = %v, %v", saved, err)
	}
	if got := len(saved.Stack("main")); got != 2 {
		t.Errorf("persisted depth = %d, want 2", got)
	}
}

func TestSave_OrderedAfterAutosave(t *testing.T) {
	ctx := context.Background()
	store := &slowStore{Memory: storage.NewMemory(), delay: 50 * time.Millisecond}
	m, _ := imperativeManager(t, WithStorage(store), WithAutosave(true))
	_ = m.Navigate("listVC")
	_ = m.Navigate("detailVC")
	_ = m.Navigate("listVC")
	if err := m.Save(ctx); err != nil {
		t.Fatal(err)
	}
	if err := m.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	saved, _ := store.Restore(ctx)
	if got := len(saved.Stack("main")); got != 3 {
		t.Errorf("persisted depth = %d, want 3", got)
	}
}
