package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kapu/rinaorc-staff-bot-go/internal/constants"
	"github.com/kapu/rinaorc-staff-bot-go/internal/domain"
	"github.com/kapu/rinaorc-staff-bot-go/internal/service/tracker"
)

// Repository: 역할 변경 이력에 대한 GORM 기반 저장소
type Repository struct {
	db *gorm.DB
}

// NewRepository: 새로운 Repository 인스턴스를 생성한다.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AutoMigrate: 변경 이력 테이블 스키마를 마이그레이션한다.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("db is nil")
	}
	if err := r.db.WithContext(ctx).AutoMigrate(&ChangeEvent{}); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

// Record: 비교 결과 중 변경 항목만 한 번의 배치 INSERT로 저장한다. 저장한 건수를 반환한다.
func (r *Repository) Record(ctx context.Context, seq uint64, at time.Time, report domain.DiffReport) (int, error) {
	changed := report.Changed()
	if len(changed) == 0 {
		return 0, nil
	}

	events := make([]ChangeEvent, 0, len(changed))
	for _, c := range changed {
		events = append(events, ChangeEvent{
			CycleSeq:  seq,
			Kind:      c.Kind.String(),
			Role:      c.Role,
			Players:   datatypes.JSONSlice[string](c.Players),
			Added:     datatypes.JSONSlice[string](c.Added),
			Removed:   datatypes.JSONSlice[string](c.Removed),
			CreatedAt: at,
		})
	}

	if err := r.db.WithContext(ctx).Create(&events).Error; err != nil {
		return 0, fmt.Errorf("insert change events failed: %w", err)
	}
	return len(events), nil
}

// Recent: 최근 변경 이력을 최신순으로 조회한다. limit은 1..MaxLimit 범위로 보정된다.
func (r *Repository) Recent(ctx context.Context, limit int) ([]ChangeEvent, error) {
	if limit <= 0 {
		limit = constants.HistoryConfig.DefaultLimit
	}
	if limit > constants.HistoryConfig.MaxLimit {
		limit = constants.HistoryConfig.MaxLimit
	}

	var events []ChangeEvent
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("query change events failed: %w", err)
	}
	return events, nil
}

// Recorder: Repository를 tracker.Reporter로 연결한다.
type Recorder struct {
	repo   *Repository
	logger *slog.Logger
}

// NewRecorder: 새로운 Recorder를 생성한다.
func NewRecorder(repo *Repository, logger *slog.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// Report: 사이클 결과의 변경 항목을 저장한다.
func (r *Recorder) Report(ctx context.Context, result tracker.CycleResult) error {
	n, err := r.repo.Record(ctx, result.Seq, result.StartedAt, result.Report)
	if err != nil {
		return err
	}
	if n > 0 {
		r.logger.Debug("Staff change events recorded",
			slog.Uint64("seq", result.Seq),
			slog.Int("events", n),
		)
	}
	return nil
}
