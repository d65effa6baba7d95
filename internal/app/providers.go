package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kapu/rinaorc-staff-bot-go/internal/config"
	"github.com/kapu/rinaorc-staff-bot-go/internal/constants"
	"github.com/kapu/rinaorc-staff-bot-go/internal/mq"
	"github.com/kapu/rinaorc-staff-bot-go/internal/platform/bootstrap"
	"github.com/kapu/rinaorc-staff-bot-go/internal/service/cache"
	"github.com/kapu/rinaorc-staff-bot-go/internal/service/database"
	"github.com/kapu/rinaorc-staff-bot-go/internal/service/history"
	"github.com/kapu/rinaorc-staff-bot-go/internal/service/notification"
	"github.com/kapu/rinaorc-staff-bot-go/internal/service/rinaorc"
	"github.com/kapu/rinaorc-staff-bot-go/internal/service/tracker"
)

// ProvideCacheResources - 캐시 리소스 생성 (정리 함수 포함)
func ProvideCacheResources(cfg config.ValkeyConfig, logger *slog.Logger) (*bootstrap.CacheResources, func(), error) {
	resources, err := bootstrap.NewCacheResources(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cache resources: %w", err)
	}
	return resources, resources.Close, nil
}

// ProvideDatabaseResources - 데이터베이스 리소스 생성 (정리 함수 포함)
func ProvideDatabaseResources(ctx context.Context, cfg config.PostgresConfig, logger *slog.Logger) (*bootstrap.DatabaseResources, func(), error) {
	resources, err := bootstrap.NewDatabaseResources(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database resources: %w", err)
	}
	return resources, resources.Close, nil
}

// ProvideMetricsRegistry - 전용 Prometheus 레지스트리 생성 (Go 런타임/프로세스 수집기 포함)
func ProvideMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideAPIClient - 스태프 API 클라이언트 생성
func ProvideAPIClient(cfg *config.Config, logger *slog.Logger) *rinaorc.APIClient {
	return rinaorc.NewAPIClient(rinaorc.Config{
		URL:       cfg.StaffAPI.URL,
		APIKey:    cfg.StaffAPI.APIKey,
		KeyHeader: cfg.StaffAPI.KeyHeader,
		Timeout:   cfg.Poll.FetchTimeout,
	}, logger)
}

// ProvideTrackerClient - 트래커 등급 조회 클라이언트 생성. cacheSvc가 nil이면 캐시 없이 동작한다.
func ProvideTrackerClient(cfg *config.Config, cacheSvc *cache.Service, logger *slog.Logger) *rinaorc.TrackerClient {
	var rankCache rinaorc.RankCache
	if cacheSvc != nil {
		rankCache = cacheSvc
	}
	return rinaorc.NewTrackerClient(rinaorc.TrackerConfig{
		BaseURL: cfg.Tracker.BaseURL,
	}, rankCache, logger)
}

// ProvideMQClient - 캐시와 같은 Valkey 연결을 공유하는 응답 스트림 발행 클라이언트 생성
func ProvideMQClient(cfg *config.Config, cacheSvc *cache.Service, logger *slog.Logger) *mq.ValkeyMQClient {
	return mq.NewValkeyMQClientWithClient(cacheSvc.Client(), mq.ValkeyMQConfig{
		ReplyStreamKey:    cfg.Valkey.ReplyStreamKey,
		ReplyStreamMaxLen: constants.MQConfig.ReplyStreamMaxLen,
	}, logger)
}

// ProvideNotifier - 카카오톡 알림 Reporter 생성. resolver가 nil이면 등급 조회를 생략한다.
func ProvideNotifier(cfg *config.Config, client *mq.ValkeyMQClient, resolver notification.RankResolver, logger *slog.Logger) *notification.Notifier {
	return notification.NewNotifier(client, resolver, notification.Config{
		Rooms:    cfg.Notification.Rooms,
		Baseline: cfg.Notification.Baseline,
	}, logger)
}

// ProvideHistoryRepository - 변경 이력 저장소 생성 (스키마 마이그레이션 포함)
func ProvideHistoryRepository(ctx context.Context, postgres *database.PostgresService) (*history.Repository, error) {
	repo := history.NewRepository(postgres.GetGormDB())
	if err := repo.AutoMigrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}
	return repo, nil
}

// ProvideWatcher - 폴링 Watcher 생성
func ProvideWatcher(
	cfg *config.Config,
	fetcher tracker.Fetcher,
	reporters []tracker.Reporter,
	metrics *tracker.Metrics,
	logger *slog.Logger,
) (*tracker.Watcher, error) {
	watcher, err := tracker.NewWatcher(
		fetcher,
		tracker.NewState(),
		reporters,
		cfg.Poll.Interval,
		cfg.Poll.FetchTimeout,
		logger,
		metrics,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return watcher, nil
}
