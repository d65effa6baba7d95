package notification

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"

	"github.com/kapu/rinaorc-staff-bot-go/internal/adapter"
	"github.com/kapu/rinaorc-staff-bot-go/internal/constants"
	"github.com/kapu/rinaorc-staff-bot-go/internal/domain"
	"github.com/kapu/rinaorc-staff-bot-go/internal/iris"
	"github.com/kapu/rinaorc-staff-bot-go/internal/service/tracker"
	"github.com/kapu/rinaorc-staff-bot-go/pkg/errors"
)

// RankResolver: 스태프에서 빠진 플레이어의 현재 등급을 조회한다. (rinaorc.TrackerClient가 구현)
type RankResolver interface {
	ResolveRanks(ctx context.Context, names []string) map[string]string
}

// Config: 채팅 알림 설정
type Config struct {
	Rooms []string
	// Baseline: 첫 사이클(기준 스냅샷)에도 알림을 보낼지 여부. 보낼 경우 전체 목록을 보낸다.
	Baseline bool
}

// Notifier: 사이클 결과를 카카오톡 방으로 알리는 tracker.Reporter 구현
type Notifier struct {
	client     iris.Client
	resolver   RankResolver
	cfg        Config
	logger     *slog.Logger
	newBackOff func() backoff.BackOff
}

// NewNotifier: 새로운 Notifier를 생성한다. resolver가 nil이면 등급 조회 없이 N/A로 표시한다.
func NewNotifier(client iris.Client, resolver RankResolver, cfg Config, logger *slog.Logger) *Notifier {
	return &Notifier{
		client:     client,
		resolver:   resolver,
		cfg:        cfg,
		logger:     logger,
		newBackOff: defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = constants.NotifyRetryConfig.InitialInterval
	b.MaxInterval = constants.NotifyRetryConfig.MaxInterval
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.2
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, constants.NotifyRetryConfig.MaxTries-1)
}

// Report: 변경이 있으면 알림 메시지를 만들어 모든 방에 전송한다.
func (n *Notifier) Report(ctx context.Context, result tracker.CycleResult) error {
	if len(n.cfg.Rooms) == 0 {
		return nil
	}

	message := n.buildMessage(ctx, result)
	if message == "" {
		return nil
	}

	var errs []error
	for _, room := range n.cfg.Rooms {
		if err := n.sendWithRetry(ctx, room, message); err != nil {
			errs = append(errs, fmt.Errorf("room %s: %w", room, err))
		}
	}
	if len(errs) > 0 {
		return errors.NewServiceError("notification", "send", stdErrors.Join(errs...))
	}

	n.logger.Info("Staff alert sent",
		slog.Uint64("seq", result.Seq),
		slog.Int("rooms", len(n.cfg.Rooms)),
	)
	return nil
}

func (n *Notifier) buildMessage(ctx context.Context, result tracker.CycleResult) string {
	if result.Baseline {
		if !n.cfg.Baseline {
			return ""
		}
		return adapter.FormatRoster(result.Snapshot)
	}

	if !result.Report.HasChanges() {
		return ""
	}

	transitions := domain.Transitions(result.Previous, result.Snapshot)
	resolved := n.resolveLeftRanks(ctx, transitions)
	return adapter.FormatStaffAlert(result.Report, transitions, resolved)
}

func (n *Notifier) resolveLeftRanks(ctx context.Context, transitions []domain.PlayerTransition) map[string]string {
	if n.resolver == nil {
		return nil
	}

	var left []string
	for _, t := range transitions {
		if t.Left() {
			left = append(left, t.Name)
		}
	}
	if len(left) == 0 {
		return nil
	}
	return n.resolver.ResolveRanks(ctx, left)
}

func (n *Notifier) sendWithRetry(ctx context.Context, room, message string) error {
	attempt := 0
	op := func() error {
		attempt++
		sendCtx, cancel := context.WithTimeout(ctx, constants.NotifyRetryConfig.SendTimeout)
		defer cancel()

		err := n.client.SendMessage(sendCtx, room, message)
		if err != nil {
			n.logger.Warn("Staff alert send failed",
				slog.String("room", room),
				slog.Int("attempt", attempt),
				slog.Any("error", err),
			)
		}
		return err
	}

	return backoff.Retry(op, backoff.WithContext(n.newBackOff(), ctx))
}
