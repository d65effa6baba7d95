package domain

import (
	"errors"
	"fmt"
	"slices"
)

// 스냅샷 생성 시 검증 에러
var (
	ErrEmptyRoleName = errors.New("role name must not be empty")
	ErrDuplicateRole = errors.New("duplicate role name")
)

// Role: 스태프 등급(역할) 하나와 소속 플레이어 목록 (API 응답 순서 유지)
type Role struct {
	Name    string   `json:"name"`
	Players []string `json:"players"`
}

// Snapshot: 특정 시점의 전체 역할 -> 플레이어 목록 매핑
// 생성 이후 변경되지 않으며, 모든 접근자는 복사본을 반환한다.
type Snapshot struct {
	roles []Role
	index map[string]int
}

// EmptySnapshot: 역할이 하나도 없는 스냅샷을 반환한다. (프로세스 시작 시 초기 상태)
func EmptySnapshot() Snapshot {
	return Snapshot{index: map[string]int{}}
}

// NewSnapshot: 역할 목록으로 스냅샷을 생성한다.
// 역할 이름이 비어있거나 중복되면 에러를 반환한다.
func NewSnapshot(roles []Role) (Snapshot, error) {
	s := Snapshot{
		roles: make([]Role, 0, len(roles)),
		index: make(map[string]int, len(roles)),
	}
	for _, r := range roles {
		if r.Name == "" {
			return Snapshot{}, ErrEmptyRoleName
		}
		if _, exists := s.index[r.Name]; exists {
			return Snapshot{}, fmt.Errorf("%w: %q", ErrDuplicateRole, r.Name)
		}
		s.index[r.Name] = len(s.roles)
		s.roles = append(s.roles, Role{Name: r.Name, Players: clonePlayers(r.Players)})
	}
	return s, nil
}

// MustSnapshot: NewSnapshot과 같지만 에러 시 panic한다. (테스트 및 상수 데이터용)
func MustSnapshot(roles ...Role) Snapshot {
	s, err := NewSnapshot(roles)
	if err != nil {
		panic(err)
	}
	return s
}

// Len: 역할 개수
func (s Snapshot) Len() int {
	return len(s.roles)
}

// IsEmpty: 역할이 하나도 없는지 여부
func (s Snapshot) IsEmpty() bool {
	return len(s.roles) == 0
}

// RoleNames: 역할 이름 목록을 API 순서대로 반환한다.
func (s Snapshot) RoleNames() []string {
	names := make([]string, len(s.roles))
	for i, r := range s.roles {
		names[i] = r.Name
	}
	return names
}

// Roles: 역할 목록의 깊은 복사본을 반환한다.
func (s Snapshot) Roles() []Role {
	out := make([]Role, len(s.roles))
	for i, r := range s.roles {
		out[i] = Role{Name: r.Name, Players: clonePlayers(r.Players)}
	}
	return out
}

// Players: 역할의 플레이어 목록 복사본을 반환한다.
func (s Snapshot) Players(role string) ([]string, bool) {
	i, ok := s.index[role]
	if !ok {
		return nil, false
	}
	return clonePlayers(s.roles[i].Players), true
}

// Has: 역할 존재 여부
func (s Snapshot) Has(role string) bool {
	_, ok := s.index[role]
	return ok
}

// PlayerCount: 전체 역할에 걸친 플레이어 항목 수
func (s Snapshot) PlayerCount() int {
	total := 0
	for _, r := range s.roles {
		total += len(r.Players)
	}
	return total
}

// Equal: 같은 역할 집합을 가지고, 각 역할의 플레이어 목록이 순서까지 같은지 비교한다.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s.roles) != len(other.roles) {
		return false
	}
	for _, r := range s.roles {
		players, ok := other.Players(r.Name)
		if !ok || !slices.Equal(r.Players, players) {
			return false
		}
	}
	return true
}

// Grades: 플레이어 -> 역할 매핑을 반환한다.
// 여러 역할에 동시에 속한 플레이어는 API 순서상 먼저 나온 역할을 유지한다.
func (s Snapshot) Grades() map[string]string {
	grades := make(map[string]string, s.PlayerCount())
	for _, r := range s.roles {
		for _, p := range r.Players {
			if _, seen := grades[p]; !seen {
				grades[p] = r.Name
			}
		}
	}
	return grades
}

func clonePlayers(players []string) []string {
	out := make([]string, len(players))
	copy(out, players)
	return out
}
