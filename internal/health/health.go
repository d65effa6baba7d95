// Package health: 서비스 상태 정보
package health

import (
	"context"
	"runtime"
	"sync"
	"time"
)

var (
	startTime = time.Now()
	version   = "dev"
	initOnce  sync.Once
)

// Init: 서비스 시작 시 호출 (버전 정보 설정)
func Init(v string) {
	initOnce.Do(func() {
		startTime = time.Now()
		if v != "" {
			version = v
		}
	})
}

// Check: 의존 서비스 하나의 상태 확인 함수 (nil 에러면 정상)
type Check func(ctx context.Context) error

// Response: /health 엔드포인트 표준 응답
type Response struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Uptime     string            `json:"uptime"`
	Goroutines int               `json:"goroutines"`
	Checks     map[string]string `json:"checks,omitempty"`
}

// Get: 현재 상태 반환. 하나라도 실패한 check가 있으면 status는 "degraded".
func Get(ctx context.Context, checks map[string]Check) Response {
	resp := Response{
		Status:     "ok",
		Version:    version,
		Uptime:     GetUptime(),
		Goroutines: runtime.NumGoroutine(),
	}
	if len(checks) == 0 {
		return resp
	}

	resp.Checks = make(map[string]string, len(checks))
	for name, check := range checks {
		if err := check(ctx); err != nil {
			resp.Checks[name] = "error: " + err.Error()
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}
	return resp
}

// GetVersion: 현재 버전 반환
func GetVersion() string {
	return version
}

// GetUptime: 현재 uptime 반환 (포맷팅된 문자열)
func GetUptime() string {
	return time.Since(startTime).Round(time.Second).String()
}
