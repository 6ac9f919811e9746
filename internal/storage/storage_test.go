package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/starford/navkit/internal/apperr"
	"github.com/starford/navkit/internal/route"
	"github.com/starford/navkit/internal/state"
)

func sampleState() *state.NavigationState {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	s := state.New()
	s.RegisterTab("main", now)
	s.Activate("main", now)
	s.Push("main", state.RouteToken{
		Key:            "profile",
		Parameters:     route.NewParameters(map[string]string{"userId": "42"}),
		Timestamp:      now,
		NavigationType: route.Push,
	})
	s.PushModal(state.ModalDestination{Key: "settings", NavigationType: route.Sheet, Timestamp: now, TabID: "main"})
	return s
}

func testSQLite(t *testing.T) *SQLite {
	t.Helper()
	f, err := os.CreateTemp("", "navkit-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := OpenSQLite(f.Name())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testFile(t *testing.T) *File {
	t.Helper()
	f, err := NewFile(filepath.Join(t.TempDir(), "state", "navigation.json"))
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	return f
}

func providers(t *testing.T) map[string]Provider {
	return map[string]Provider{
		"memory": NewMemory(),
		"file":   testFile(t),
		"sqlite": testSQLite(t),
	}
}

func TestProviders_SaveRestoreClear(t *testing.T) {
	ctx := context.Background()
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			got, err := p.Restore(ctx)
			if err != nil || got != nil {
				t.Fatalf("empty Restore = %v, %v", got, err)
			}

			want := sampleState()
			if err := p.Save(ctx, want); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err = p.Restore(ctx)
			if err != nil {
				t.Fatalf("Restore: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("restored state differs:\n got %+v\nwant %+v", got, want)
			}

			// Saving again overwrites.
			want.Truncate("")
			if err := p.Save(ctx, want); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, _ = p.Restore(ctx)
			if len(got.Stack("main")) != 0 {
				t.Error("second save did not replace the first")
			}

			if err := p.Clear(ctx); err != nil {
				t.Fatalf("Clear: %v", err)
			}
			if got, _ := p.Restore(ctx); got != nil {
				t.Error("Restore after Clear should be nil")
			}
			if err := p.Clear(ctx); err != nil {
				t.Errorf("Clear on empty store: %v", err)
			}
		})
	}
}

func TestProviders_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for name, p := range providers(t) {
		if err := p.Save(ctx, sampleState()); !errors.Is(err, apperr.ErrPersistenceFailed) {
			t.Errorf("%s: Save err = %v", name, err)
		}
	}
}

func TestSave_NilState(t *testing.T) {
	if err := NewMemory().Save(context.Background(), nil); !errors.Is(err, apperr.ErrPersistenceFailed) {
		t.Errorf("err = %v", err)
	}
}

func TestFile_CorruptDocument(t *testing.T) {
	f := testFile(t)
	ctx := context.Background()
	if err := f.Save(ctx, sampleState()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, _ := os.ReadFile(f.Path())
	tampered := []byte(string(data[:len(data)-3]) + "x}}")
	if err := os.WriteFile(f.Path(), tampered, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Restore(ctx); !errors.Is(err, apperr.ErrStateRestorationFailed) {
		t.Errorf("corrupt restore err = %v", err)
	}
}

func TestFile_NoLeftoverTempFiles(t *testing.T) {
	f := testFile(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := f.Save(ctx, sampleState()); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(f.Path()), ".navkit-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFile_Errors(t *testing.T) {
	if _, err := NewFile(""); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := NewFile(t.TempDir()); err == nil {
		t.Error("expected error when path is a directory")
	}
}

func TestSQLite_ChecksumMismatch(t *testing.T) {
	db := testSQLite(t)
	ctx := context.Background()
	if err := db.Save(ctx, sampleState()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := db.conn.Exec(`UPDATE navigation_kv SET checksum = 'bogus'`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Restore(ctx); !errors.Is(err, apperr.ErrStateRestorationFailed) {
		t.Errorf("err = %v", err)
	}
}

func TestSQLite_KeysAreIndependent(t *testing.T) {
	db := testSQLite(t)
	ctx := context.Background()
	alice := db.WithKey("alice")
	if err := alice.Save(ctx, sampleState()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got, _ := db.Restore(ctx); got != nil {
		t.Error("default key should be empty")
	}
	keys, err := db.Keys(ctx)
	if err != nil || len(keys) != 1 || keys[0] != "alice" {
		t.Errorf("Keys = %v, %v", keys, err)
	}
}
