package tracker

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/kapu/rinaorc-staff-bot-go/internal/constants"
	"github.com/kapu/rinaorc-staff-bot-go/internal/domain"
	"github.com/kapu/rinaorc-staff-bot-go/pkg/errors"
)

// ErrCycleInProgress: 이전 사이클이 아직 끝나지 않아 이번 사이클을 건너뛰었음을 나타낸다.
var ErrCycleInProgress = stdErrors.New("staff watch cycle already in progress")

// Fetcher: 스태프 스냅샷 조회 인터페이스 (rinaorc.APIClient가 구현)
type Fetcher interface {
	FetchSnapshot(ctx context.Context) (domain.Snapshot, error)
}

// CycleResult: 성공한 사이클 하나의 결과
type CycleResult struct {
	Seq       uint64
	StartedAt time.Time
	Duration  time.Duration
	// Baseline: 프로세스 시작 후 첫 성공 사이클 (빈 상태와 비교됨)
	Baseline bool
	Report   domain.DiffReport
	Previous domain.Snapshot
	Snapshot domain.Snapshot
}

// Watcher: 주기적으로 스태프 목록을 조회하고 이전 결과와 비교하여 Reporter들에게 전달한다.
// 동시에 하나의 사이클만 실행되며, 실행 중에 도착한 tick은 버린다.
type Watcher struct {
	fetcher      Fetcher
	state        *State
	reporters    []Reporter
	interval     time.Duration
	fetchTimeout time.Duration
	logger       *slog.Logger
	metrics      *Metrics

	busy *semaphore.Weighted

	seqMu sync.Mutex
	seq   uint64

	lastMu sync.RWMutex
	last   *CycleResult

	runMu    sync.Mutex
	cancel   context.CancelFunc
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher: 새로운 Watcher를 생성한다.
// interval은 최소 폴링 주기 이상이어야 하고, fetchTimeout은 interval보다 짧아야 한다.
// fetchTimeout이 0 이하이면 기본값을 사용한다. metrics는 nil이어도 된다.
func NewWatcher(
	fetcher Fetcher,
	state *State,
	reporters []Reporter,
	interval time.Duration,
	fetchTimeout time.Duration,
	logger *slog.Logger,
	metrics *Metrics,
) (*Watcher, error) {
	if fetcher == nil {
		return nil, errors.NewValidationError("fetcher", "must not be nil")
	}
	if state == nil {
		return nil, errors.NewValidationError("state", "must not be nil")
	}
	if interval < constants.PollConfig.MinInterval {
		return nil, errors.NewValidationError("interval", "must be at least "+constants.PollConfig.MinInterval.String())
	}
	if fetchTimeout <= 0 {
		fetchTimeout = constants.PollConfig.DefaultTimeout
	}
	if fetchTimeout >= interval {
		return nil, errors.NewValidationError("fetch_timeout", "must be shorter than interval")
	}

	return &Watcher{
		fetcher:      fetcher,
		state:        state,
		reporters:    reporters,
		interval:     interval,
		fetchTimeout: fetchTimeout,
		logger:       logger,
		metrics:      metrics,
		busy:         semaphore.NewWeighted(1),
		stopCh:       make(chan struct{}),
	}, nil
}

// State: 보관 중인 상태 (읽기 전용 관찰자용)
func (w *Watcher) State() *State {
	return w.state
}

// LastResult: 마지막으로 성공한 사이클 결과. 아직 없으면 false.
func (w *Watcher) LastResult() (CycleResult, bool) {
	w.lastMu.RLock()
	defer w.lastMu.RUnlock()
	if w.last == nil {
		return CycleResult{}, false
	}
	return *w.last, true
}

// RunCycle: 조회-비교-보고 사이클을 한 번 실행한다.
// 조회 실패 시 보관 상태는 바뀌지 않고 Reporter도 호출되지 않는다.
// 다른 사이클이 실행 중이면 ErrCycleInProgress를 반환한다.
func (w *Watcher) RunCycle(ctx context.Context) (CycleResult, error) {
	if !w.busy.TryAcquire(1) {
		w.metrics.cycle(cycleResultSkipped)
		return CycleResult{}, ErrCycleInProgress
	}
	defer w.busy.Release(1)

	seq := w.nextSeq()
	startedAt := time.Now()

	fetchCtx, cancel := context.WithTimeout(ctx, w.fetchTimeout)
	current, err := w.fetcher.FetchSnapshot(fetchCtx)
	cancel()
	w.metrics.observeFetch(time.Since(startedAt))

	if err != nil {
		w.metrics.cycle(cycleResultFailed)
		w.logger.Warn("Staff fetch failed, keeping previous snapshot",
			slog.Uint64("seq", seq),
			slog.Any("error", err),
		)
		return CycleResult{}, err
	}

	baseline := !w.state.Primed()
	previous := w.state.Snapshot()
	report := domain.Diff(previous, current)
	w.state.Replace(current)

	result := CycleResult{
		Seq:       seq,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Baseline:  baseline,
		Report:    report,
		Previous:  previous,
		Snapshot:  current,
	}

	w.lastMu.Lock()
	w.last = &result
	w.lastMu.Unlock()

	w.metrics.cycle(cycleResultOK)
	w.metrics.observeReport(report, current)

	w.dispatch(ctx, result)
	return result, nil
}

func (w *Watcher) dispatch(ctx context.Context, result CycleResult) {
	for _, r := range w.reporters {
		if err := r.Report(ctx, result); err != nil {
			w.logger.Error("Reporter failed",
				slog.String("reporter", reporterName(r)),
				slog.Uint64("seq", result.Seq),
				slog.Any("error", err),
			)
		}
	}
}

func (w *Watcher) nextSeq() uint64 {
	w.seqMu.Lock()
	defer w.seqMu.Unlock()
	w.seq++
	return w.seq
}

// Start: 첫 사이클을 즉시 실행하고 이후 interval마다 사이클을 실행한다.
// 각 사이클은 별도 고루틴에서 돌며, 이전 사이클이 남아있으면 해당 tick은 건너뛴다.
func (w *Watcher) Start(ctx context.Context) {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	if w.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.logger.Info("Staff watcher started",
		slog.Duration("interval", w.interval),
		slog.Duration("fetch_timeout", w.fetchTimeout),
	)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.tick(runCtx)
		for {
			select {
			case <-ticker.C:
				w.tick(runCtx)
			case <-w.stopCh:
				w.logger.Info("Staff watcher stopped")
				return
			case <-runCtx.Done():
				w.logger.Info("Staff watcher context canceled")
				return
			}
		}
	}()
}

func (w *Watcher) tick(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if _, err := w.RunCycle(ctx); stdErrors.Is(err, ErrCycleInProgress) {
			w.logger.Warn("Previous cycle still running, tick skipped")
		}
	}()
}

// Stop: 폴링을 중지하고 실행 중인 사이클이 끝날 때까지 기다린다. 여러 번 호출해도 안전하다.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.runMu.Lock()
		if w.cancel != nil {
			w.cancel()
		}
		w.runMu.Unlock()
	})
	w.wg.Wait()
}
