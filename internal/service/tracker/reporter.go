package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kapu/rinaorc-staff-bot-go/internal/adapter"
	"github.com/kapu/rinaorc-staff-bot-go/internal/domain"
)

// Reporter: 사이클 결과를 받아 외부로 전달하는 인터페이스 (로그, 채팅 알림, 이력 저장)
type Reporter interface {
	Report(ctx context.Context, result CycleResult) error
}

// ReporterFunc: 함수를 Reporter로 사용하기 위한 어댑터
type ReporterFunc func(ctx context.Context, result CycleResult) error

// Report: f(ctx, result)를 호출한다.
func (f ReporterFunc) Report(ctx context.Context, result CycleResult) error {
	return f(ctx, result)
}

func reporterName(r Reporter) string {
	return fmt.Sprintf("%T", r)
}

// LogReporter: 역할별 비교 결과를 로그로 남긴다.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter: 새로운 LogReporter를 생성한다.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report: 변경된 역할마다 한 줄씩, 마지막에 요약 한 줄을 남긴다.
func (r *LogReporter) Report(_ context.Context, result CycleResult) error {
	for _, change := range result.Report.Changed() {
		r.logger.Info(adapter.FormatDiffLine(change),
			slog.Uint64("seq", result.Seq),
			slog.String("kind", change.Kind.String()),
			slog.String("role", change.Role),
		)
	}

	counts := result.Report.Counts()
	r.logger.Info("Staff cycle completed",
		slog.Uint64("seq", result.Seq),
		slog.Bool("baseline", result.Baseline),
		slog.Int("roles", result.Snapshot.Len()),
		slog.Int("players", result.Snapshot.PlayerCount()),
		slog.Int("unchanged", counts[domain.ChangeUnchanged]),
		slog.Int("changed", len(result.Report.Changed())),
		slog.Duration("duration", result.Duration),
	)
	return nil
}
