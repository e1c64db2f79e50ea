package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"io"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_HooksRunInReverse(t *testing.T) {
	h := NewHandler(time.Second, quietLogger())

	var mu sync.Mutex
	var order []string
	record := func(name string) Hook {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}
	h.OnShutdown("store", record("store"))
	h.OnShutdown("redis", record("redis"))
	h.OnShutdown("http", record("http"))

	h.Trigger()
	if err := h.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	if got := strings.Join(order, ","); got != "http,redis,store" {
		t.Errorf("order = %s, want http,redis,store", got)
	}
	select {
	case <-h.Done():
	default:
		t.Error("Done() not closed after Wait")
	}
}

func TestHandler_HookErrorsJoined(t *testing.T) {
	h := NewHandler(time.Second, quietLogger())
	errA := errors.New("a failed")
	ran := false
	h.OnShutdown("last", func(context.Context) error { ran = true; return nil })
	h.OnShutdown("a", func(context.Context) error { return errA })

	h.Trigger()
	err := h.Wait(context.Background())
	if !errors.Is(err, errA) {
		t.Errorf("Wait() = %v, want %v", err, errA)
	}
	if !ran {
		t.Error("hooks after a failing hook must still run")
	}
}

func TestHandler_HooksShareTimeout(t *testing.T) {
	h := NewHandler(20*time.Millisecond, quietLogger())
	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	h.Trigger()
	if err := h.Wait(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() = %v, want deadline exceeded", err)
	}
}

func TestHandler_ContextCancel(t *testing.T) {
	h := NewHandler(time.Second, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.Wait(ctx); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestHandler_Signal(t *testing.T) {
	h := NewHandler(time.Second, quietLogger())
	called := make(chan struct{})
	h.OnShutdown("hook", func(context.Context) error { close(called); return nil })

	go func() {
		time.Sleep(50 * time.Millisecond)
		syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
	}()

	if err := h.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	select {
	case <-called:
	case <-time.After(time.Second):
		t.Error("hook not called after SIGTERM")
	}
}

func TestHandler_TriggerTwice(t *testing.T) {
	h := NewHandler(time.Second, nil)
	h.Trigger()
	h.Trigger()
}
