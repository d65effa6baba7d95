package tracker

import (
	"context"
	stdErrors "errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kapu/rinaorc-staff-bot-go/internal/domain"
	"github.com/kapu/rinaorc-staff-bot-go/internal/service/rinaorc"
	"github.com/kapu/rinaorc-staff-bot-go/pkg/errors"
)

type scriptedFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	calls   int
}

type fetchResult struct {
	snapshot domain.Snapshot
	err      error
}

func (f *scriptedFetcher) FetchSnapshot(context.Context) (domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	return f.results[idx].snapshot, f.results[idx].err
}

type blockingFetcher struct {
	started chan struct{}
	release chan struct{}
}

func (f *blockingFetcher) FetchSnapshot(ctx context.Context) (domain.Snapshot, error) {
	close(f.started)
	select {
	case <-f.release:
	case <-ctx.Done():
		return domain.Snapshot{}, ctx.Err()
	}
	return domain.MustSnapshot(domain.Role{Name: "Admin", Players: []string{"a"}}), nil
}

type recordingReporter struct {
	mu      sync.Mutex
	results []CycleResult
	err     error
}

func (r *recordingReporter) Report(_ context.Context, result CycleResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return r.err
}

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWatcher(t *testing.T, fetcher Fetcher, reporters ...Reporter) (*Watcher, *State) {
	t.Helper()
	state := NewState()
	w, err := NewWatcher(fetcher, state, reporters, time.Minute, time.Second, discardLogger(), nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	return w, state
}

func TestNewWatcherValidation(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{snapshot: domain.EmptySnapshot()}}}

	tests := []struct {
		name     string
		interval time.Duration
		timeout  time.Duration
		wantErr  bool
	}{
		{name: "valid", interval: time.Minute, timeout: 10 * time.Second},
		{name: "default timeout", interval: time.Hour, timeout: 0},
		{name: "too short", interval: time.Second, timeout: 0, wantErr: true},
		{name: "timeout not shorter", interval: 30 * time.Second, timeout: 30 * time.Second, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWatcher(fetcher, NewState(), nil, tt.interval, tt.timeout, discardLogger(), nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			var vErr *errors.ValidationError
			if tt.wantErr && !stdErrors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
		})
	}

	if _, err := NewWatcher(nil, NewState(), nil, time.Minute, 0, discardLogger(), nil); err == nil {
		t.Fatalf("expected error for nil fetcher")
	}
}

func TestRunCycleReplacesStateAndReports(t *testing.T) {
	first := domain.MustSnapshot(domain.Role{Name: "Admin", Players: []string{"alice"}})
	second := domain.MustSnapshot(domain.Role{Name: "Admin", Players: []string{"alice", "bob"}})
	fetcher := &scriptedFetcher{results: []fetchResult{{snapshot: first}, {snapshot: second}}}
	reporter := &recordingReporter{}
	w, state := newTestWatcher(t, fetcher, reporter)
	ctx := context.Background()

	res, err := w.RunCycle(ctx)
	if err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	if !res.Baseline || res.Seq != 1 {
		t.Fatalf("first cycle must be baseline seq=1: %+v", res)
	}
	if got := res.Report.Counts()[domain.ChangeRoleAppeared]; got != 1 {
		t.Fatalf("expected RoleAppeared on baseline, counts=%v", res.Report.Counts())
	}

	res, err = w.RunCycle(ctx)
	if err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if res.Baseline {
		t.Fatalf("second cycle must not be baseline")
	}
	changed := res.Report.Changed()
	if len(changed) != 1 || changed[0].Kind != domain.ChangeRoleChanged || changed[0].Added[0] != "bob" {
		t.Fatalf("unexpected report: %+v", res.Report)
	}
	if !res.Previous.Equal(first) {
		t.Fatalf("previous snapshot mismatch")
	}
	if !state.Snapshot().Equal(second) {
		t.Fatalf("retained state must equal the latest fetch")
	}
	if reporter.count() != 2 {
		t.Fatalf("expected 2 reports, got %d", reporter.count())
	}

	last, ok := w.LastResult()
	if !ok || last.Seq != 2 {
		t.Fatalf("LastResult() = %+v ok=%v", last, ok)
	}
}

func TestRunCycleFetchFailureKeepsState(t *testing.T) {
	kept := domain.MustSnapshot(domain.Role{Name: "Admin", Players: []string{"alice"}})
	fetchErr := errors.NewFetchError(errors.FetchStageStatus, http.StatusBadGateway, nil)
	fetcher := &scriptedFetcher{results: []fetchResult{{snapshot: kept}, {err: fetchErr}}}
	reporter := &recordingReporter{}
	w, state := newTestWatcher(t, fetcher, reporter)
	ctx := context.Background()

	if _, err := w.RunCycle(ctx); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	_, err := w.RunCycle(ctx)
	if !stdErrors.Is(err, fetchErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if !state.Snapshot().Equal(kept) {
		t.Fatalf("state must be unchanged after a failed fetch")
	}
	if reporter.count() != 1 {
		t.Fatalf("reporters must not run on failure, got %d", reporter.count())
	}
	if last, _ := w.LastResult(); last.Seq != 1 {
		t.Fatalf("last result must remain the successful cycle, got seq=%d", last.Seq)
	}
}

func TestRunCycleWithHTTPServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := rinaorc.NewAPIClient(rinaorc.Config{URL: server.URL, APIKey: "k"}, discardLogger())
	reporter := &recordingReporter{}
	w, state := newTestWatcher(t, client, reporter)

	_, err := w.RunCycle(context.Background())
	var fErr *errors.FetchError
	if !stdErrors.As(err, &fErr) || fErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status FetchError, got %v", err)
	}
	if reporter.count() != 0 {
		t.Fatalf("no report expected on HTTP 500")
	}
	if state.Primed() || !state.Snapshot().IsEmpty() {
		t.Fatalf("state must stay empty")
	}
}

func TestRunCycleIdenticalSnapshotsAreUnchanged(t *testing.T) {
	snap := domain.MustSnapshot(
		domain.Role{Name: "Admin", Players: []string{"a"}},
		domain.Role{Name: "Mod", Players: []string{"b", "c"}},
	)
	fetcher := &scriptedFetcher{results: []fetchResult{{snapshot: snap}}}
	w, _ := newTestWatcher(t, fetcher)
	ctx := context.Background()

	if _, err := w.RunCycle(ctx); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	res, err := w.RunCycle(ctx)
	if err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if res.Report.HasChanges() {
		t.Fatalf("expected no changes: %+v", res.Report)
	}
	if got := res.Report.Counts()[domain.ChangeUnchanged]; got != 2 {
		t.Fatalf("expected 2 unchanged entries, got %d", got)
	}
}

func TestRunCycleSkipsWhenBusy(t *testing.T) {
	fetcher := &blockingFetcher{started: make(chan struct{}), release: make(chan struct{})}
	w, _ := newTestWatcher(t, fetcher)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := w.RunCycle(ctx)
		done <- err
	}()

	<-fetcher.started
	if _, err := w.RunCycle(ctx); !stdErrors.Is(err, ErrCycleInProgress) {
		t.Fatalf("expected ErrCycleInProgress, got %v", err)
	}

	close(fetcher.release)
	if err := <-done; err != nil {
		t.Fatalf("first cycle failed: %v", err)
	}
}

func TestReporterFailureDoesNotBlockState(t *testing.T) {
	snap := domain.MustSnapshot(domain.Role{Name: "Admin", Players: []string{"a"}})
	fetcher := &scriptedFetcher{results: []fetchResult{{snapshot: snap}}}
	failing := &recordingReporter{err: stdErrors.New("send failed")}
	after := &recordingReporter{}
	w, state := newTestWatcher(t, fetcher, failing, after)

	if _, err := w.RunCycle(context.Background()); err != nil {
		t.Fatalf("cycle must succeed despite reporter failure: %v", err)
	}
	if !state.Snapshot().Equal(snap) {
		t.Fatalf("state must be updated")
	}
	if after.count() != 1 {
		t.Fatalf("later reporters must still run")
	}
}

func TestStartRunsFirstCycleImmediately(t *testing.T) {
	snap := domain.MustSnapshot(domain.Role{Name: "Admin", Players: []string{"a"}})
	fetcher := &scriptedFetcher{results: []fetchResult{{snapshot: snap}}}
	reported := make(chan CycleResult, 1)
	w, _ := newTestWatcher(t, fetcher, ReporterFunc(func(_ context.Context, r CycleResult) error {
		select {
		case reported <- r:
		default:
		}
		return nil
	}))

	w.Start(context.Background())
	defer w.Stop()

	select {
	case res := <-reported:
		if !res.Baseline {
			t.Fatalf("first cycle must be baseline")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("first cycle did not run immediately")
	}

	w.Stop()
	w.Stop()
}

func TestMetricsRecorded(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	snap := domain.MustSnapshot(
		domain.Role{Name: "Admin", Players: []string{"a"}},
		domain.Role{Name: "Mod", Players: []string{"b", "c"}},
	)
	fetcher := &scriptedFetcher{results: []fetchResult{
		{snapshot: snap},
		{err: errors.NewFetchError(errors.FetchStageDecode, http.StatusOK, nil)},
	}}
	w, err := NewWatcher(fetcher, NewState(), nil, time.Minute, time.Second, discardLogger(), metrics)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	_, _ = w.RunCycle(context.Background())
	_, _ = w.RunCycle(context.Background())

	if got := testutil.ToFloat64(metrics.cycles.WithLabelValues(cycleResultOK)); got != 1 {
		t.Fatalf("ok cycles = %v", got)
	}
	if got := testutil.ToFloat64(metrics.cycles.WithLabelValues(cycleResultFailed)); got != 1 {
		t.Fatalf("failed cycles = %v", got)
	}
	if got := testutil.ToFloat64(metrics.roleChanges.WithLabelValues(string(domain.ChangeRoleAppeared))); got != 2 {
		t.Fatalf("appeared changes = %v", got)
	}
	if got := testutil.ToFloat64(metrics.players); got != 3 {
		t.Fatalf("players gauge = %v", got)
	}

	if _, err := NewMetrics(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestLogReporter(t *testing.T) {
	prev := domain.MustSnapshot(domain.Role{Name: "Admin", Players: []string{"a"}})
	cur := domain.MustSnapshot(domain.Role{Name: "Admin", Players: []string{"b"}})
	r := NewLogReporter(discardLogger())

	err := r.Report(context.Background(), CycleResult{Seq: 1, Report: domain.Diff(prev, cur), Snapshot: cur})
	if err != nil {
		t.Fatalf("LogReporter.Report() error = %v", err)
	}
}
