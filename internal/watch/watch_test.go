package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{OnChange: func(context.Context) {}}); err == nil {
		t.Error("expected error for missing path")
	}
	if _, err := New(Config{Path: "cogfile.yml"}); err == nil {
		t.Error("expected error for missing callback")
	}
	if _, err := New(Config{Path: "cogfile.yml", OnChange: func(context.Context) {}}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWatcher_FiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cogfile.yml")
	if err := os.WriteFile(path, []byte("tasks: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var fired atomic.Int32
	w, err := New(Config{
		Path:     path,
		Debounce: 20 * time.Millisecond,
		OnChange: func(context.Context) { fired.Add(1) },
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("tasks:\n  - id: a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for fired.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("watcher did not fire within deadline")
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Errorf("unexpected error from Run: %v", err)
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cogfile.yml")
	if err := os.WriteFile(path, []byte("a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var fired atomic.Int32
	w, err := New(Config{
		Path:     path,
		Debounce: 150 * time.Millisecond,
		OnChange: func(context.Context) { fired.Add(1) },
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)

	// burst of writes within the debounce window
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("b\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(500 * time.Millisecond)

	if got := fired.Load(); got != 1 {
		t.Errorf("expected 1 debounced callback, got %d", got)
	}
}
