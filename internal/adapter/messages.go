package adapter

import "fmt"

// UIEmoji: 사용자 메시지에 사용하는 이모지 모음입니다.
type UIEmoji struct {
	Brand   string
	Alert   string
	Joined  string
	Left    string
	Moved   string
	Role    string
	Error   string
	Success string
}

// DefaultEmoji: 모든 사용자 메시지에 사용되는 이모지 단일 정의다.
var DefaultEmoji = UIEmoji{
	Brand:   "🛡️",
	Alert:   "📢",
	Joined:  "🟢",
	Left:    "🔴",
	Moved:   "🔁",
	Role:    "📋",
	Error:   "❌",
	Success: "✅",
}

// ErrorMessage: 에러 메시지를 생성합니다.
func ErrorMessage(message string) string {
	return fmt.Sprintf("%s %s", DefaultEmoji.Error, message)
}

// 표시용 문구
const (
	NotAvailable = "N/A"

	ErrDisplayStaffAlertFailed  = "스태프 변동 알림을 구성하지 못했습니다."
	ErrDisplayStaffRosterFailed = "스태프 목록을 표시할 수 없습니다."
)
