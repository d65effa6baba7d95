package server

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kapu/rinaorc-staff-bot-go/internal/adapter"
	"github.com/kapu/rinaorc-staff-bot-go/internal/constants"
	"github.com/kapu/rinaorc-staff-bot-go/internal/domain"
	"github.com/kapu/rinaorc-staff-bot-go/internal/health"
	"github.com/kapu/rinaorc-staff-bot-go/internal/service/history"
	"github.com/kapu/rinaorc-staff-bot-go/internal/service/tracker"
	"github.com/kapu/rinaorc-staff-bot-go/internal/util"
)

const historyQueryTimeout = 5 * time.Second

// SnapshotSource: 보관 중인 스냅샷 조회 (tracker.State가 구현)
type SnapshotSource interface {
	Snapshot() domain.Snapshot
	Primed() bool
}

// CycleSource: 마지막 사이클 결과 조회 (tracker.Watcher가 구현)
type CycleSource interface {
	LastResult() (tracker.CycleResult, bool)
}

// HistorySource: 변경 이력 조회 (history.Repository가 구현)
type HistorySource interface {
	Recent(ctx context.Context, limit int) ([]history.ChangeEvent, error)
}

// APIHandler: 스태프 추적 상태 조회 API 핸들러
type APIHandler struct {
	snapshots SnapshotSource
	cycles    CycleSource
	history   HistorySource
	logger    *slog.Logger
}

// NewAPIHandler: 새로운 API 핸들러를 생성합니다. historySrc가 nil이면 이력 API는 404를 반환한다.
func NewAPIHandler(snapshots SnapshotSource, cycles CycleSource, historySrc HistorySource, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		snapshots: snapshots,
		cycles:    cycles,
		history:   historySrc,
		logger:    logger,
	}
}

type roleView struct {
	Name    string   `json:"name"`
	Count   int      `json:"count"`
	Players []string `json:"players"`
}

// GetStaff: 현재 보관 중인 스태프 목록을 반환합니다.
func (h *APIHandler) GetStaff(c *gin.Context) {
	snap := h.snapshots.Snapshot()

	roles := make([]roleView, 0, snap.Len())
	for _, r := range snap.Roles() {
		roles = append(roles, roleView{Name: r.Name, Count: len(r.Players), Players: r.Players})
	}

	c.JSON(200, gin.H{
		"primed":      h.snapshots.Primed(),
		"roleCount":   snap.Len(),
		"playerCount": snap.PlayerCount(),
		"roles":       roles,
		"board":       adapter.FormatRoster(snap),
	})
}

// GetLastCycle: 마지막으로 성공한 사이클 요약을 반환합니다.
func (h *APIHandler) GetLastCycle(c *gin.Context) {
	result, ok := h.cycles.LastResult()
	if !ok {
		c.JSON(404, gin.H{"error": "No completed cycle yet"})
		return
	}

	counts := make(map[string]int)
	for kind, n := range result.Report.Counts() {
		counts[kind.String()] = n
	}

	c.JSON(200, gin.H{
		"seq":        result.Seq,
		"startedAt":  result.StartedAt,
		"startedKst": util.FormatKST(result.StartedAt, util.KSTLayout),
		"durationMs": result.Duration.Milliseconds(),
		"baseline":   result.Baseline,
		"counts":     counts,
		"changes":    result.Report.Changed(),
		"uptime":     health.GetUptime(),
	})
}

// GetHistory: 최근 역할 변경 이력을 반환합니다. (?limit=1..200, 기본 50)
func (h *APIHandler) GetHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(404, gin.H{"error": "History is disabled"})
		return
	}

	limit := constants.HistoryConfig.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > constants.HistoryConfig.MaxLimit {
			c.JSON(400, gin.H{"error": "limit must be between 1 and " + strconv.Itoa(constants.HistoryConfig.MaxLimit)})
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), historyQueryTimeout)
	defer cancel()

	events, err := h.history.Recent(ctx, limit)
	if err != nil {
		h.logger.Error("Failed to load change history", slog.Any("error", err))
		c.JSON(500, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(200, gin.H{
		"events": events,
		"count":  len(events),
	})
}
