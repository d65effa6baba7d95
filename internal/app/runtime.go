package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kapu/rinaorc-staff-bot-go/internal/config"
	"github.com/kapu/rinaorc-staff-bot-go/internal/constants"
	"github.com/kapu/rinaorc-staff-bot-go/internal/service/tracker"
)

// BotRuntime 은 폴링 Watcher와 조회 API 서버를 묶은 실행 단위다.
type BotRuntime struct {
	Config *config.Config
	Logger *slog.Logger

	Watcher *tracker.Watcher

	APIAddr   string
	APIServer *http.Server

	cleanup func()
}

// Close - 런타임 리소스 정리 (DB, 캐시 연결 해제)
func (r *BotRuntime) Close() {
	if r != nil && r.cleanup != nil {
		r.cleanup()
		r.cleanup = nil
	}
}

// BuildRuntime 은 설정을 검증된 구성요소로 조립한다.
func BuildRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*BotRuntime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	runtime, cleanup, err := InitializeBotRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("런타임 초기화 실패: %w", err)
	}
	runtime.cleanup = cleanup

	return runtime, nil
}

// StartAPIServer 는 조회 API 서버를 백그라운드에서 시작한다.
func (r *BotRuntime) StartAPIServer(errCh chan<- error) {
	if r == nil || r.APIServer == nil {
		return
	}

	go func() {
		if err := r.APIServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if errCh != nil {
				errCh <- fmt.Errorf("HTTP server error: %w", err)
				return
			}
			r.Logger.Error("HTTP server error", slog.Any("error", err))
		}
	}()
}

// ShutdownAPIServer 는 조회 API 서버를 정상 종료한다.
func (r *BotRuntime) ShutdownAPIServer(ctx context.Context) error {
	if r == nil || r.APIServer == nil {
		return nil
	}
	if err := r.APIServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	return nil
}

// Start 는 Watcher와 API 서버를 시작한다.
func (r *BotRuntime) Start(ctx context.Context, errCh chan<- error) {
	if r == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if r.Watcher != nil {
		r.Watcher.Start(ctx)
	}

	r.StartAPIServer(errCh)
	if r.APIAddr != "" {
		r.Logger.Info("API HTTP server started", slog.String("addr", r.APIAddr))
	}
}

// Shutdown 은 API 서버를 먼저 닫고 진행 중인 사이클이 끝날 때까지 Watcher를 기다린다.
func (r *BotRuntime) Shutdown(ctx context.Context) {
	if r == nil {
		return
	}

	if err := r.ShutdownAPIServer(ctx); err != nil {
		r.Logger.Error("HTTP server shutdown error", slog.Any("error", err))
	}

	if r.Watcher != nil {
		done := make(chan struct{})
		go func() {
			r.Watcher.Stop()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			r.Logger.Warn("Staff watcher stop timed out", slog.Any("error", ctx.Err()))
		}
	}
}

// Run 은 시그널 또는 서버 오류가 발생할 때까지 실행한 뒤 정상 종료한다.
func (r *BotRuntime) Run() {
	if r == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	r.Start(ctx, errCh)
	r.Logger.Info("Bot started, waiting for signals...")

	select {
	case sig := <-sigCh:
		r.Logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-errCh:
		r.Logger.Error("Server error", slog.Any("error", err))
	}

	r.Logger.Info("Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.AppTimeout.Shutdown)
	defer shutdownCancel()

	r.Shutdown(shutdownCtx)
	r.Logger.Info("Shutdown complete")
}
