package util

import (
	"log/slog"
	"sync"
	"time"
)

// CircuitState: 서킷 브레이커의 상태 (닫힘, 열림, 반열림)
type CircuitState string

// CircuitState 상수 목록.
const (
	// CircuitStateClosed: 정상 작동 상태 (요청 허용)
	CircuitStateClosed CircuitState = "CLOSED"
	// CircuitStateOpen: 연속 실패로 인한 차단 상태 (요청 거부)
	CircuitStateOpen CircuitState = "OPEN"
	// CircuitStateHalfOpen: 차단 시간이 지나 시험 요청 하나를 허용하는 상태
	CircuitStateHalfOpen CircuitState = "HALF_OPEN"
)

func (s CircuitState) String() string {
	return string(s)
}

// CircuitBreaker: 연속 실패 횟수가 임계치에 도달하면 resetTimeout 동안 요청을 차단한다.
// 차단 시간이 지나면 Half-Open으로 전환되어 시험 요청 하나만 통과시킨다.
type CircuitBreaker struct {
	name             string
	state            CircuitState
	failureCount     int
	failureThreshold int
	resetTimeout     time.Duration
	openedAt         time.Time
	probing          bool
	now              func() time.Time
	logger           *slog.Logger
	mu               sync.Mutex
}

// NewCircuitBreaker: 새로운 서킷 브레이커 인스턴스를 생성한다.
// failureThreshold가 1 미만이면 1로 취급한다.
func NewCircuitBreaker(name string, failureThreshold int, resetTimeout time.Duration, logger *slog.Logger) *CircuitBreaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	return &CircuitBreaker{
		name:             name,
		state:            CircuitStateClosed,
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		now:              time.Now,
		logger:           logger,
	}
}

// Allow: 지금 요청을 보내도 되는지 확인한다.
// Open 상태에서 resetTimeout이 지났으면 Half-Open으로 전환하고 시험 요청 하나를 허용한다.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitStateOpen:
		if cb.now().Sub(cb.openedAt) < cb.resetTimeout {
			return false
		}
		cb.transitionTo(CircuitStateHalfOpen)
		cb.probing = true
		return true
	case CircuitStateHalfOpen:
		if cb.probing {
			return false
		}
		cb.probing = true
		return true
	default:
		return true
	}
}

// RecordSuccess: 요청 성공을 기록한다. Half-Open이었다면 Closed로 복구한다.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.probing = false
	if cb.state == CircuitStateHalfOpen {
		cb.logger.Info("Circuit Breaker: Service recovered", slog.String("name", cb.name))
		cb.transitionTo(CircuitStateClosed)
	}
	cb.failureCount = 0
}

// RecordFailure: 요청 실패를 기록한다.
// Half-Open 시험 요청이 실패했거나 연속 실패가 임계치에 도달하면 Open으로 전환한다.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.probing = false
	cb.failureCount++

	if cb.state == CircuitStateHalfOpen || cb.failureCount >= cb.failureThreshold {
		if cb.state != CircuitStateOpen {
			cb.logger.Warn("Circuit Breaker: Opening circuit",
				slog.String("name", cb.name),
				slog.Int("failures", cb.failureCount),
				slog.Duration("reset_timeout", cb.resetTimeout),
			)
		}
		cb.transitionTo(CircuitStateOpen)
		cb.openedAt = cb.now()
	}
}

// State: 현재 상태 (상태 전이는 일으키지 않는다)
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) transitionTo(newState CircuitState) {
	if cb.state == newState {
		return
	}
	cb.logger.Debug("Circuit Breaker: State transition",
		slog.String("name", cb.name),
		slog.String("from", cb.state.String()),
		slog.String("to", newState.String()),
	)
	cb.state = newState
}
