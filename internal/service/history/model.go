package history

import (
	"time"

	"gorm.io/datatypes"
)

// ChangeEvent: staff_change_events 테이블과 매핑되는 GORM 모델 (역할 변경 한 건)
type ChangeEvent struct {
	ID        uint64                      `gorm:"primaryKey;column:id" json:"id"`
	CycleSeq  uint64                      `gorm:"column:cycle_seq;index" json:"cycleSeq"`
	Kind      string                      `gorm:"column:kind;size:16;not null" json:"kind"`
	Role      string                      `gorm:"column:role;size:128;not null;index" json:"role"`
	Players   datatypes.JSONSlice[string] `gorm:"column:players" json:"players,omitempty"`
	Added     datatypes.JSONSlice[string] `gorm:"column:added" json:"added,omitempty"`
	Removed   datatypes.JSONSlice[string] `gorm:"column:removed" json:"removed,omitempty"`
	CreatedAt time.Time                   `gorm:"column:created_at;index" json:"createdAt"`
}

// TableName: GORM 모델이 매핑될 테이블 이름 ("staff_change_events")
func (ChangeEvent) TableName() string {
	return "staff_change_events"
}
