package util

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func newTestBreaker(threshold int, reset time.Duration) (*CircuitBreaker, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("test", threshold, reset, slog.New(slog.NewTextHandler(io.Discard, nil)))
	cb.now = func() time.Time { return now }
	return cb, &now
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(2, time.Minute)

	cb.RecordFailure()
	if !cb.Allow() || cb.State() != CircuitStateClosed {
		t.Fatalf("expected closed after one failure, got %s", cb.State())
	}

	cb.RecordFailure()
	if cb.State() != CircuitStateOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}
	if cb.Allow() {
		t.Fatal("open circuit must reject requests")
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker(2, time.Minute)

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	if cb.State() != CircuitStateClosed {
		t.Fatalf("non-consecutive failures must not open the circuit, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	cb, now := newTestBreaker(1, time.Minute)

	cb.RecordFailure()
	*now = now.Add(30 * time.Second)
	if cb.Allow() {
		t.Fatal("must stay open before reset timeout")
	}

	*now = now.Add(31 * time.Second)
	if !cb.Allow() {
		t.Fatal("expected probe request after reset timeout")
	}
	if cb.State() != CircuitStateHalfOpen {
		t.Fatalf("expected half-open, got %s", cb.State())
	}
	if cb.Allow() {
		t.Fatal("only one probe may run while half-open")
	}

	cb.RecordSuccess()
	if cb.State() != CircuitStateClosed || !cb.Allow() {
		t.Fatalf("expected closed after successful probe, got %s", cb.State())
	}
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb, now := newTestBreaker(3, time.Minute)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordFailure()
	*now = now.Add(2 * time.Minute)
	if !cb.Allow() {
		t.Fatal("expected probe request")
	}

	cb.RecordFailure()
	if cb.State() != CircuitStateOpen {
		t.Fatalf("expected reopened circuit, got %s", cb.State())
	}
	if cb.Allow() {
		t.Fatal("reopened circuit must reject until the next reset timeout")
	}
}
