package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitSkipsNonPositiveDelay(t *testing.T) {
	called := false
	err := Wait(context.Background(), 0, func(time.Duration) { called = true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatal("sleep must not be called for a zero delay")
	}
}

func TestWaitUsesSleepFunc(t *testing.T) {
	var got time.Duration
	if err := Wait(context.Background(), 3*time.Second, func(d time.Duration) { got = d }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3*time.Second {
		t.Fatalf("expected sleep of 3s, got %v", got)
	}
}

func TestWaitForStopsOnCancel(t *testing.T) {
	original := sleep
	release := make(chan struct{})
	sleep = func(time.Duration) { <-release }
	defer func() {
		close(release)
		sleep = original
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
