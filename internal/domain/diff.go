package domain

import (
	"slices"
	"sort"
)

// ChangeKind: 역할 단위 비교 결과의 종류
type ChangeKind string

// ChangeKind 상수 목록.
const (
	ChangeUnchanged       ChangeKind = "unchanged"
	ChangeRoleChanged     ChangeKind = "changed"
	ChangeRoleAppeared    ChangeKind = "appeared"
	ChangeRoleDisappeared ChangeKind = "disappeared"
)

func (k ChangeKind) String() string {
	return string(k)
}

// RoleChange: 역할 하나에 대한 비교 결과
// Players는 appeared(현재 목록)/disappeared(이전 목록)에서만 채워진다.
// Added/Removed는 changed에서만 채워진다.
type RoleChange struct {
	Kind    ChangeKind `json:"kind"`
	Role    string     `json:"role"`
	Players []string   `json:"players,omitempty"`
	Added   []string   `json:"added,omitempty"`
	Removed []string   `json:"removed,omitempty"`
}

// DiffReport: 두 스냅샷 비교 결과 전체
type DiffReport struct {
	Changes []RoleChange `json:"changes"`
}

// HasChanges: unchanged 이외의 항목이 하나라도 있는지 여부
func (r DiffReport) HasChanges() bool {
	for _, c := range r.Changes {
		if c.Kind != ChangeUnchanged {
			return true
		}
	}
	return false
}

// Changed: unchanged 항목을 제외한 목록을 반환한다.
func (r DiffReport) Changed() []RoleChange {
	out := make([]RoleChange, 0, len(r.Changes))
	for _, c := range r.Changes {
		if c.Kind != ChangeUnchanged {
			out = append(out, c)
		}
	}
	return out
}

// Counts: 종류별 항목 수
func (r DiffReport) Counts() map[ChangeKind]int {
	counts := make(map[ChangeKind]int, 4)
	for _, c := range r.Changes {
		counts[c.Kind]++
	}
	return counts
}

// Diff: 이전 스냅샷과 현재 스냅샷을 역할 단위로 비교한다.
// 현재 스냅샷의 역할을 API 순서대로 먼저 보고하고, 이전에만 있던 역할을
// 이전 스냅샷 순서대로 disappeared로 덧붙인다. 부수효과가 없다.
func Diff(previous, current Snapshot) DiffReport {
	report := DiffReport{Changes: make([]RoleChange, 0, current.Len())}

	for _, role := range current.roles {
		prevPlayers, ok := previous.Players(role.Name)
		switch {
		case !ok:
			report.Changes = append(report.Changes, RoleChange{
				Kind:    ChangeRoleAppeared,
				Role:    role.Name,
				Players: clonePlayers(role.Players),
			})
		case slices.Equal(prevPlayers, role.Players):
			report.Changes = append(report.Changes, RoleChange{
				Kind: ChangeUnchanged,
				Role: role.Name,
			})
		default:
			report.Changes = append(report.Changes, RoleChange{
				Kind:    ChangeRoleChanged,
				Role:    role.Name,
				Added:   difference(role.Players, prevPlayers),
				Removed: difference(prevPlayers, role.Players),
			})
		}
	}

	for _, role := range previous.roles {
		if current.Has(role.Name) {
			continue
		}
		report.Changes = append(report.Changes, RoleChange{
			Kind:    ChangeRoleDisappeared,
			Role:    role.Name,
			Players: clonePlayers(role.Players),
		})
	}

	return report
}

// difference: a에는 있고 b에는 없는 이름을 a의 순서대로 반환한다. (위치가 아닌 이름 기준)
func difference(a, b []string) []string {
	exclude := make(map[string]struct{}, len(b))
	for _, name := range b {
		exclude[name] = struct{}{}
	}

	out := make([]string, 0)
	seen := make(map[string]struct{}, len(a))
	for _, name := range a {
		if _, skip := exclude[name]; skip {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// PlayerTransition: 플레이어 한 명의 등급 이동
// From이 비어 있으면 새로 스태프가 된 경우, To가 비어 있으면 스태프에서 빠진 경우다.
type PlayerTransition struct {
	Name string `json:"name"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// Joined: 새로 스태프가 된 플레이어인지 여부
func (t PlayerTransition) Joined() bool { return t.From == "" }

// Left: 스태프 목록에서 빠진 플레이어인지 여부
func (t PlayerTransition) Left() bool { return t.To == "" }

// Transitions: 두 스냅샷 사이에서 등급이 바뀐 플레이어 목록을 이름순으로 반환한다.
func Transitions(previous, current Snapshot) []PlayerTransition {
	before := previous.Grades()
	after := current.Grades()

	out := make([]PlayerTransition, 0)
	for name, to := range after {
		from, ok := before[name]
		if ok && from == to {
			continue
		}
		out = append(out, PlayerTransition{Name: name, From: from, To: to})
	}
	for name, from := range before {
		if _, ok := after[name]; ok {
			continue
		}
		out = append(out, PlayerTransition{Name: name, From: from})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
