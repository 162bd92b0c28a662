package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestDefaultShutdownConfig(t *testing.T) {
	cfg := DefaultShutdownConfig()
	if cfg.Timeout != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %v", cfg.Timeout)
	}
	if len(cfg.Signals) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(cfg.Signals))
	}
}

func TestNewShutdownHandler_WithConfig(t *testing.T) {
	h := NewShutdownHandler(&ShutdownConfig{Timeout: 10 * time.Second})
	if h.timeout != 10*time.Second {
		t.Fatalf("expected 10s timeout, got %v", h.timeout)
	}
	if len(h.signals) != 2 {
		t.Fatalf("expected default signals, got %v", h.signals)
	}
}

func TestShutdownHandler_HookOrder(t *testing.T) {
	h := NewShutdownHandler(&ShutdownConfig{Timeout: 5 * time.Second})

	var mu sync.Mutex
	var order []string
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	h.RegisterHook("repo", 90, record("repo"))
	h.Add(HTTPServerShutdownHook("http", record("http")))
	h.Add(TracingShutdownHook(record("tracing")))
	h.Add(TemporalWorkerShutdownHook(func() { record("worker")(context.Background()) }))

	h.Start()
	h.Shutdown()

	if !h.WaitWithTimeout(2 * time.Second) {
		t.Fatal("shutdown timed out")
	}

	want := []string{"http", "worker", "tracing", "repo"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestShutdownHandler_HookErrorDoesNotStopOthers(t *testing.T) {
	h := NewShutdownHandler(nil)
	called := false
	h.RegisterHook("fails", 1, func(context.Context) error { return errors.New("boom") })
	h.RegisterHook("after", 2, func(context.Context) error { called = true; return nil })

	h.Start()
	h.Shutdown()
	h.Wait()

	if !called {
		t.Fatal("hook after a failing hook was not run")
	}
}

func TestShutdownHandler_ShutdownBeforeStart(t *testing.T) {
	h := NewShutdownHandler(nil)
	h.Shutdown() // must not panic or block

	select {
	case <-h.Done():
		t.Fatal("done should not close before Start")
	default:
	}
}

func TestShutdownHandler_DoubleShutdown(t *testing.T) {
	h := NewShutdownHandler(nil)
	h.Start()
	h.Start()
	h.Shutdown()
	h.Shutdown()
	if !h.WaitWithTimeout(2 * time.Second) {
		t.Fatal("shutdown timed out")
	}
}

func TestRepositoryShutdownHook(t *testing.T) {
	closed := false
	hook := RepositoryShutdownHook("neo4j", func(context.Context) error { closed = true; return nil })
	if hook.Priority != 90 || hook.Name != "neo4j" {
		t.Fatalf("unexpected hook %+v", hook)
	}
	if err := hook.Fn(context.Background()); err != nil || !closed {
		t.Fatal("hook did not run close function")
	}
}
