package app

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kapu/rinaorc-staff-bot-go/internal/config"
	"github.com/kapu/rinaorc-staff-bot-go/internal/health"
	"github.com/kapu/rinaorc-staff-bot-go/internal/server"
	"github.com/kapu/rinaorc-staff-bot-go/internal/service/cache"
	"github.com/kapu/rinaorc-staff-bot-go/internal/service/database"
	"github.com/kapu/rinaorc-staff-bot-go/internal/service/history"
	"github.com/kapu/rinaorc-staff-bot-go/internal/service/notification"
	"github.com/kapu/rinaorc-staff-bot-go/internal/service/tracker"
)

// coreInfrastructure 는 선택적 외부 연결(Valkey, PostgreSQL)과 정리 함수를 담는다.
type coreInfrastructure struct {
	cache    *cache.Service
	postgres *database.PostgresService
	cleanups []func()
}

// close 는 생성 역순으로 리소스를 정리한다.
func (i *coreInfrastructure) close() {
	for idx := len(i.cleanups) - 1; idx >= 0; idx-- {
		i.cleanups[idx]()
	}
	i.cleanups = nil
}

// healthChecks 는 활성화된 외부 연결에 대한 상태 점검 함수를 반환한다.
func (i *coreInfrastructure) healthChecks() map[string]health.Check {
	checks := make(map[string]health.Check)
	if i.cache != nil {
		checks["valkey"] = i.cache.Ping
	}
	if i.postgres != nil {
		checks["postgres"] = i.postgres.Ping
	}
	return checks
}

// initCoreInfrastructure 는 설정에서 활성화된 외부 연결만 초기화한다.
func initCoreInfrastructure(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*coreInfrastructure, error) {
	infra := &coreInfrastructure{}

	if cfg.Valkey.Enabled {
		cacheResources, cleanupCache, err := ProvideCacheResources(cfg.Valkey, logger)
		if err != nil {
			return nil, err
		}
		infra.cache = cacheResources.Service
		infra.cleanups = append(infra.cleanups, cleanupCache)
	}

	if cfg.History.Enabled {
		databaseResources, cleanupDB, err := ProvideDatabaseResources(ctx, cfg.Postgres, logger)
		if err != nil {
			infra.close()
			return nil, err
		}
		infra.postgres = databaseResources.Service
		infra.cleanups = append(infra.cleanups, cleanupDB)
	}

	return infra, nil
}

// trackerStack 은 Watcher와 조회 API가 공유하는 추적 구성요소다.
type trackerStack struct {
	watcher  *tracker.Watcher
	history  *history.Repository
	registry *prometheus.Registry
}

// buildTrackerStack 은 스태프 API 클라이언트, Reporter 목록, 메트릭을 조립하여 Watcher를 만든다.
// Reporter 순서: 로그 → 이력 저장 → 채팅 알림
func buildTrackerStack(ctx context.Context, cfg *config.Config, logger *slog.Logger, infra *coreInfrastructure) (*trackerStack, error) {
	registry := ProvideMetricsRegistry()
	metrics, err := tracker.NewMetrics(registry)
	if err != nil {
		return nil, err
	}

	reporters := []tracker.Reporter{tracker.NewLogReporter(logger)}

	var historyRepo *history.Repository
	if infra.postgres != nil {
		historyRepo, err = ProvideHistoryRepository(ctx, infra.postgres)
		if err != nil {
			return nil, err
		}
		reporters = append(reporters, history.NewRecorder(historyRepo, logger))
	}

	if cfg.Notification.Enabled && infra.cache != nil {
		var resolver notification.RankResolver
		if cfg.Notification.ResolveRanks {
			resolver = ProvideTrackerClient(cfg, infra.cache, logger)
		}
		mqClient := ProvideMQClient(cfg, infra.cache, logger)
		reporters = append(reporters, ProvideNotifier(cfg, mqClient, resolver, logger))
		logger.Info("Staff notifications enabled", slog.Int("rooms", len(cfg.Notification.Rooms)))
	}

	watcher, err := ProvideWatcher(cfg, ProvideAPIClient(cfg, logger), reporters, metrics, logger)
	if err != nil {
		return nil, err
	}

	return &trackerStack{
		watcher:  watcher,
		history:  historyRepo,
		registry: registry,
	}, nil
}

// InitializeBotRuntime - cmd/bot 런타임 (Watcher + 조회 API 구성요소)
func InitializeBotRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*BotRuntime, func(), error) {
	infra, err := initCoreInfrastructure(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	stack, err := buildTrackerStack(ctx, cfg, logger, infra)
	if err != nil {
		infra.close()
		return nil, nil, err
	}

	runtime := &BotRuntime{
		Config:  cfg,
		Logger:  logger,
		Watcher: stack.watcher,
	}

	if cfg.Server.Enabled {
		var historySrc server.HistorySource
		if stack.history != nil {
			historySrc = stack.history
		}
		router, err := ProvideAPIRouter(ctx, cfg, logger, routerDeps{
			watcher:  stack.watcher,
			history:  historySrc,
			registry: stack.registry,
			checks:   infra.healthChecks(),
		})
		if err != nil {
			infra.close()
			return nil, nil, err
		}
		runtime.APIAddr = ProvideAPIAddr(cfg)
		runtime.APIServer = ProvideAPIServer(runtime.APIAddr, router)
	}

	return runtime, infra.close, nil
}
