package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// fakeFrontend implements core.Frontend for testing.
type fakeFrontend struct {
	name     string
	startErr error
	started  atomic.Bool
	stopped  atomic.Bool
}

func (f *fakeFrontend) Name() string { return f.name }

func (f *fakeFrontend) Start(ctx context.Context) error {
	f.started.Store(true)
	if f.startErr != nil {
		return f.startErr
	}
	<-ctx.Done()
	return nil
}

func (f *fakeFrontend) Stop(_ context.Context) error {
	f.stopped.Store(true)
	return nil
}

func TestRunFrontends_CanceledContext(t *testing.T) {
	a, b := &fakeFrontend{name: "a"}, &fakeFrontend{name: "b"}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- runFrontends(ctx, testLogger(), a, b) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runFrontends did not return after cancel")
	}
	for _, f := range []*fakeFrontend{a, b} {
		if !f.started.Load() || !f.stopped.Load() {
			t.Errorf("frontend %s: started=%v stopped=%v", f.name, f.started.Load(), f.stopped.Load())
		}
	}
}

func TestRunFrontends_FailureStopsOthers(t *testing.T) {
	boom := errors.New("listen: address in use")
	failing := &fakeFrontend{name: "http", startErr: boom}
	healthy := &fakeFrontend{name: "telegram"}

	done := make(chan error, 1)
	go func() { done <- runFrontends(context.Background(), testLogger(), failing, healthy) }()

	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Errorf("expected start error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("a failing frontend should cancel the others")
	}
	if !healthy.stopped.Load() {
		t.Error("healthy frontend should be stopped")
	}
}
