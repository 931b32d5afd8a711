package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestAddRejectsBadSpec(t *testing.T) {
	r := New(context.Background(), nil)
	if _, err := r.Add("not a spec", func(context.Context) {}); err == nil {
		t.Error("expected error for invalid spec")
	}
	// Five-field specs lack the seconds field.
	if _, err := r.Add("0 6 * * *", func(context.Context) {}); err == nil {
		t.Error("expected error for spec without seconds")
	}
}

func TestRunExecutesJobsWithBaseContext(t *testing.T) {
	type key struct{}
	base := context.WithValue(context.Background(), key{}, "base")

	r := New(base, nil)
	var calls atomic.Int32
	var sawBase atomic.Bool
	id, err := r.Add("* * * * * *", func(ctx context.Context) {
		if ctx.Value(key{}) == "base" {
			sawBase.Store(true)
		}
		calls.Add(1)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	deadline := time.After(3 * time.Second)
	for calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("job did not run within 3s")
		case <-time.After(20 * time.Millisecond):
		}
	}
	if r.Next(id) == "" {
		t.Error("expected a next activation while running")
	}
	cancel()
	<-done

	if !sawBase.Load() {
		t.Error("expected job to receive the base context")
	}
}

func TestRunSkipsOverlappingTicks(t *testing.T) {
	r := New(context.Background(), nil)
	var calls atomic.Int32
	release := make(chan struct{})
	if _, err := r.Add("* * * * * *", func(context.Context) {
		calls.Add(1)
		<-release
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	// Let at least two more ticks pass while the first job is blocked.
	time.Sleep(3200 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 running job while blocked, got %d", got)
	}
	close(release)
	cancel()
	<-done
}
