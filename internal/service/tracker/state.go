package tracker

import (
	"sync"

	"github.com/kapu/rinaorc-staff-bot-go/internal/domain"
)

// State: 마지막으로 성공한 조회 결과(Retained State)를 보관한다.
// 쓰기는 Watcher의 사이클에서만 일어나고, 상태 API 같은 읽기 전용 관찰자는 동시에 읽을 수 있다.
type State struct {
	mu       sync.RWMutex
	snapshot domain.Snapshot
	primed   bool
}

// NewState: 빈 스냅샷으로 초기화된 상태를 생성한다.
func NewState() *State {
	return &State{snapshot: domain.EmptySnapshot()}
}

// Snapshot: 현재 보관 중인 스냅샷을 반환한다.
func (s *State) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Primed: 한 번이라도 성공한 조회 결과로 교체되었는지 여부
func (s *State) Primed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.primed
}

// Replace: 보관 중인 스냅샷을 통째로 교체하고 이전 스냅샷을 반환한다.
func (s *State) Replace(next domain.Snapshot) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.snapshot
	s.snapshot = next
	s.primed = true
	return prev
}
