package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kapu/rinaorc-staff-bot-go/internal/util"
)

const (
	maxUALength          = 80
	slowRequestThreshold = 100 * time.Millisecond
)

// pathSkipper: 접속 로그에서 제외할 경로 규칙
type pathSkipper struct {
	exact    map[string]struct{}
	prefixes []string
	suffixes []string
}

// newPathSkipper: 패턴 목록으로 pathSkipper를 만든다.
//   - "/exact/path": 정확히 일치
//   - "*/suffix": suffix로 끝나는 경로
//   - "/prefix*": prefix로 시작하는 경로
func newPathSkipper(patterns []string) pathSkipper {
	s := pathSkipper{exact: make(map[string]struct{}, len(patterns))}
	for _, p := range patterns {
		switch {
		case len(p) > 1 && strings.HasPrefix(p, "*"):
			s.suffixes = append(s.suffixes, p[1:])
		case len(p) > 1 && strings.HasSuffix(p, "*"):
			s.prefixes = append(s.prefixes, p[:len(p)-1])
		default:
			s.exact[p] = struct{}{}
		}
	}
	return s
}

func (s pathSkipper) skip(path string) bool {
	if _, ok := s.exact[path]; ok {
		return true
	}
	for _, prefix := range s.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, suffix := range s.suffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// LoggerMiddleware: slog 기반 HTTP 접속 로깅 미들웨어
// 정상 응답은 DEBUG, 4xx는 WARN, 5xx는 ERROR로 남기며 느린 요청에만 latency를 붙인다.
func LoggerMiddleware(ctx context.Context, logger *slog.Logger, skipPaths ...string) gin.HandlerFunc {
	skipper := newPathSkipper(skipPaths)

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if skipper.skip(path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		level := slog.LevelDebug
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		if !logger.Enabled(ctx, level) {
			return
		}

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.String("ip", c.ClientIP()),
			slog.String("ua", util.TruncateString(c.Request.UserAgent(), maxUALength)),
		}
		if latency >= slowRequestThreshold {
			attrs = append(attrs, slog.Duration("latency", latency))
		}

		logger.LogAttrs(ctx, level, "HTTP", attrs...)
	}
}
