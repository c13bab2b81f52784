package config

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	path := writeConfig(t, "routing:\n  strategy: round_robin\n")

	w, err := NewWatcher(path, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	reloaded := make(chan *Config, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(cfg *Config) error {
			reloaded <- cfg
			return nil
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	// An invalid file is rejected and never reaches the callback.
	if err := os.WriteFile(path, []byte("routing:\n  strategy: sticky\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case cfg := <-reloaded:
		t.Fatalf("invalid config was delivered: %+v", cfg.Routing)
	case <-time.After(300 * time.Millisecond):
	}

	if err := os.WriteFile(path, []byte("routing:\n  strategy: random\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case cfg := <-reloaded:
		if cfg.Routing.Strategy != "random" {
			t.Errorf("Strategy = %q, want random", cfg.Routing.Strategy)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after file change")
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}

func TestWatcher_AlreadyRunning(t *testing.T) {
	path := writeConfig(t, "")
	w, err := NewWatcher(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go w.Watch(ctx, func(*Config) error { return nil })
	time.Sleep(50 * time.Millisecond)

	if err := w.Watch(ctx, func(*Config) error { return nil }); err == nil {
		t.Error("second Watch() should fail")
	}
	cancel()
	w.Stop()
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var calls atomic.Int32

	for i := 0; i < 5; i++ {
		d.Trigger(func() { calls.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("callback ran %d times, want 1", got)
	}

	d.Stop()
	d.Trigger(func() { calls.Add(1) })
	time.Sleep(60 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("callback ran after Stop")
	}
}
