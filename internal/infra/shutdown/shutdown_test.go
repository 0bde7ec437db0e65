package shutdown

import (
	"context"
	"errors"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

func TestHandler_ShutdownReverseOrderOnce(t *testing.T) {
	h := NewHandler(time.Second)

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		h.OnShutdown(func(ctx context.Context) error {
			order = append(order, i)
			return nil
		})
	}

	if err := h.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := h.Shutdown(); err != nil {
		t.Fatalf("second Shutdown() error = %v", err)
	}

	want := []int{3, 2, 1}
	if len(order) != len(want) {
		t.Fatalf("hooks ran %d times, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order = %v, want %v", order, want)
			break
		}
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done() should be closed after Shutdown")
	}
}

func TestHandler_ShutdownJoinsErrors(t *testing.T) {
	h := NewHandler(time.Second)
	errA := errors.New("a")
	errB := errors.New("b")
	h.OnClose(func() error { return errA })
	h.OnClose(func() error { return nil })
	h.OnClose(func() error { return errB })

	err := h.Shutdown()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Shutdown() error = %v, want both errors", err)
	}
}

func TestHandler_HookContextHasDeadline(t *testing.T) {
	h := NewHandler(50 * time.Millisecond)
	h.OnShutdown(func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("hook context should have a deadline")
		}
		return nil
	})
	_ = h.Shutdown()
}

func TestHandler_Run(t *testing.T) {
	h := NewHandler(time.Second)
	var closed atomic.Bool
	h.OnClose(func() error {
		closed.Store(true)
		return nil
	})

	fnErr := errors.New("command failed")
	err := h.Run(context.Background(), func(ctx context.Context) error {
		if closed.Load() {
			t.Error("hooks ran before fn finished")
		}
		return fnErr
	})

	if !errors.Is(err, fnErr) {
		t.Errorf("Run() error = %v, want %v", err, fnErr)
	}
	if !closed.Load() {
		t.Error("hooks should run after fn")
	}
}

func TestHandler_RunCancelledBySignal(t *testing.T) {
	h := NewHandler(time.Second)

	err := h.Run(context.Background(), func(ctx context.Context) error {
		if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
			t.Fatalf("Kill() error = %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(5 * time.Second):
			return errors.New("context not cancelled by signal")
		}
	})
	if err != nil {
		t.Error(err)
	}
}

func TestHandler_WaitReturnsAfterShutdown(t *testing.T) {
	h := NewHandler(time.Second)
	done := make(chan error, 1)
	go func() { done <- h.Wait() }()

	if err := h.Shutdown(); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Wait() did not return")
	}
}
