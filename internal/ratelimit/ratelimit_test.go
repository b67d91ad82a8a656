package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dailybread/internal/ratelimit"
)

type recorder struct {
	pauses []time.Duration
}

func (r *recorder) sleep(_ context.Context, d time.Duration) error {
	r.pauses = append(r.pauses, d)
	return nil
}

func TestAfterPausesOnSuccessAndFailure(t *testing.T) {
	rec := &recorder{}
	gate := ratelimit.NewGate("text_source", 200*time.Millisecond, ratelimit.WithSleeper(rec.sleep))

	if err := gate.After(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	boom := errors.New("boom")
	if err := gate.After(context.Background(), func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if len(rec.pauses) != 2 {
		t.Fatalf("expected two pauses, got %v", rec.pauses)
	}
	for _, d := range rec.pauses {
		if d != 200*time.Millisecond {
			t.Fatalf("unexpected pause %v", d)
		}
	}
	if gate.Name() != "text_source" || gate.Delay() != 200*time.Millisecond {
		t.Fatalf("unexpected gate identity %q %v", gate.Name(), gate.Delay())
	}
}

func TestNilAndZeroGateDoNotPause(t *testing.T) {
	var gate *ratelimit.Gate
	if err := gate.Pause(context.Background()); err != nil {
		t.Fatalf("nil gate: %v", err)
	}
	calls := 0
	if err := gate.After(context.Background(), func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Fatalf("nil gate After: err=%v calls=%d", err, calls)
	}

	rec := &recorder{}
	zero := ratelimit.NewGate("speech", -time.Second, ratelimit.WithSleeper(rec.sleep))
	if err := zero.Pause(context.Background()); err != nil {
		t.Fatalf("zero gate: %v", err)
	}
	if len(rec.pauses) != 0 {
		t.Fatalf("expected no pause, got %v", rec.pauses)
	}
}

func TestPauseHonorsCancellation(t *testing.T) {
	gate := ratelimit.NewGate("speech", time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := gate.Pause(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := gate.After(ctx, func() error { return nil }); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation surfaced after success, got %v", err)
	}
}

func TestSleepWithContextWaits(t *testing.T) {
	start := time.Now()
	if err := ratelimit.SleepWithContext(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("SleepWithContext: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("returned early after %v", elapsed)
	}
}
