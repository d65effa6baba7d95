package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kapu/rinaorc-staff-bot-go/internal/config"
	"github.com/kapu/rinaorc-staff-bot-go/internal/constants"
	"github.com/kapu/rinaorc-staff-bot-go/internal/health"
	"github.com/kapu/rinaorc-staff-bot-go/internal/server"
	"github.com/kapu/rinaorc-staff-bot-go/internal/service/tracker"
)

// routerDeps 는 조회 API 라우터가 필요로 하는 구성요소다. history가 nil이면 이력 API는 404를 반환한다.
type routerDeps struct {
	watcher  *tracker.Watcher
	history  server.HistorySource
	registry *prometheus.Registry
	checks   map[string]health.Check
}

// ProvideAPIAddr: 조회 API 서버가 리슨할 주소를 반환합니다.
func ProvideAPIAddr(cfg *config.Config) string {
	return fmt.Sprintf(":%d", cfg.Server.Port)
}

// ProvideAPIServer: 조회 API용 HTTP 서버 인스턴스를 생성합니다.
func ProvideAPIServer(addr string, router *gin.Engine) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: constants.ServerTimeout.ReadHeader,
		IdleTimeout:       constants.ServerTimeout.Idle,
	}
}

// ProvideAPIRouter: 스태프 추적 상태를 조회하는 Gin 라우터를 설정합니다.
func ProvideAPIRouter(ctx context.Context, cfg *config.Config, logger *slog.Logger, deps routerDeps) (*gin.Engine, error) {
	if deps.watcher == nil {
		return nil, fmt.Errorf("watcher must not be nil")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	if err := router.SetTrustedProxies(constants.ServerConfig.TrustedProxies); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	router.Use(gin.Recovery())
	router.Use(server.LoggerMiddleware(ctx, logger,
		"/health",
		"/metrics", // Prometheus 메트릭 폴링
	))
	if len(cfg.Server.AllowedOrigins) > 0 {
		router.Use(cors.New(newAPICORSConfig(cfg.Server.AllowedOrigins)))
	}
	router.Use(newAPIGzipMiddleware())
	router.Use(server.SecurityHeadersMiddleware())

	registerAPIHealthRoutes(router, deps)

	handler := server.NewAPIHandler(deps.watcher.State(), deps.watcher, deps.history, logger)
	staffAPI := router.Group("/api/staff")
	staffAPI.GET("", handler.GetStaff)
	staffAPI.GET("/last-cycle", handler.GetLastCycle)
	staffAPI.GET("/history", handler.GetHistory)

	return router, nil
}

func newAPICORSConfig(origins []string) cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = origins
	corsConfig.AllowMethods = constants.CORSConfig.AllowMethods
	corsConfig.AllowHeaders = constants.CORSConfig.AllowHeaders
	return corsConfig
}

func newAPIGzipMiddleware() gin.HandlerFunc {
	return gzip.Gzip(gzip.DefaultCompression, gzip.WithCustomShouldCompressFn(func(c *gin.Context) bool {
		// 사용자 정의 판정은 기본 Accept-Encoding 검사를 대체하므로 직접 확인
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
			return false
		}
		// Health check는 작은 응답이라 압축 제외
		return c.Request.URL.Path != "/health"
	}))
}

func registerAPIHealthRoutes(router *gin.Engine, deps routerDeps) {
	// Health check 엔드포인트 (버전/uptime/외부 연결 상태 포함)
	router.GET("/health", func(c *gin.Context) {
		resp := health.Get(c.Request.Context(), deps.checks)
		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	})

	if deps.registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{})))
	}
}
