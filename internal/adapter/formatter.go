package adapter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kapu/rinaorc-staff-bot-go/internal/domain"
	"github.com/kapu/rinaorc-staff-bot-go/internal/util"
)

type staffMoveView struct {
	Name   string
	From   string
	To     string
	Joined bool
	Left   bool
}

type roleCountView struct {
	Role  string
	Count int
}

type staffAlertTemplateData struct {
	Emoji       UIEmoji
	Moves       []staffMoveView
	Appeared    []roleCountView
	Disappeared []roleCountView
}

type rosterRoleView struct {
	Name    string
	Count   int
	Players []string
}

type staffRosterTemplateData struct {
	Emoji UIEmoji
	Total int
	Roles []rosterRoleView
}

// FormatStaffAlert: 스태프 변동 알림 메시지를 생성한다.
// resolved는 스태프에서 빠진 플레이어의 현재 등급 (조회 실패 시 N/A로 표시).
// 알릴 내용이 없으면 빈 문자열을 반환한다.
func FormatStaffAlert(report domain.DiffReport, transitions []domain.PlayerTransition, resolved map[string]string) string {
	data := staffAlertTemplateData{Emoji: DefaultEmoji}

	for _, t := range transitions {
		view := staffMoveView{Name: t.Name, From: t.From, To: t.To, Joined: t.Joined(), Left: t.Left()}
		if view.Joined {
			view.From = NotAvailable
		}
		if view.Left {
			view.To = NotAvailable
			if rank := util.TrimSpace(resolved[t.Name]); rank != "" {
				view.To = rank
			}
		}
		data.Moves = append(data.Moves, view)
	}

	for _, change := range report.Changes {
		switch change.Kind {
		case domain.ChangeRoleAppeared:
			data.Appeared = append(data.Appeared, roleCountView{Role: change.Role, Count: len(change.Players)})
		case domain.ChangeRoleDisappeared:
			data.Disappeared = append(data.Disappeared, roleCountView{Role: change.Role, Count: len(change.Players)})
		}
	}

	if len(data.Moves) == 0 && len(data.Appeared) == 0 && len(data.Disappeared) == 0 {
		return ""
	}

	rendered, err := executeFormatterTemplate("staff_alert.tmpl", data)
	if err != nil {
		return ErrorMessage(ErrDisplayStaffAlertFailed)
	}
	return rendered
}

// FormatRoster: 현재 스태프 목록을 역할별로 묶어 보여주는 게시판 메시지를 생성한다.
// 역할은 API 순서, 플레이어는 이름순이다.
func FormatRoster(snapshot domain.Snapshot) string {
	data := staffRosterTemplateData{Emoji: DefaultEmoji, Total: snapshot.PlayerCount()}
	for _, role := range snapshot.Roles() {
		players := slices.Clone(role.Players)
		slices.SortFunc(players, func(a, b string) int {
			return strings.Compare(strings.ToLower(a), strings.ToLower(b))
		})
		data.Roles = append(data.Roles, rosterRoleView{Name: role.Name, Count: len(players), Players: players})
	}

	rendered, err := executeFormatterTemplate("staff_roster.tmpl", data)
	if err != nil {
		return ErrorMessage(ErrDisplayStaffRosterFailed)
	}

	if len(data.Roles) == 0 {
		return rendered
	}
	header, body := splitTemplateInstruction(rendered)
	return util.KakaoSeeMore(header, body)
}

// FormatDiffLine: 역할 하나의 비교 결과를 로그용 한 줄로 만든다.
func FormatDiffLine(change domain.RoleChange) string {
	switch change.Kind {
	case domain.ChangeRoleChanged:
		if len(change.Added) == 0 && len(change.Removed) == 0 {
			return fmt.Sprintf("[%s] 목록 변경", change.Role)
		}
		return fmt.Sprintf("[%s] 변경: 추가=%s 제거=%s", change.Role, joinOrDash(change.Added), joinOrDash(change.Removed))
	case domain.ChangeRoleAppeared:
		return fmt.Sprintf("[%s] 신규 역할: %s", change.Role, joinOrDash(change.Players))
	case domain.ChangeRoleDisappeared:
		return fmt.Sprintf("[%s] 사라진 역할: %s", change.Role, joinOrDash(change.Players))
	default:
		return fmt.Sprintf("[%s] 변동 없음", change.Role)
	}
}

func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
