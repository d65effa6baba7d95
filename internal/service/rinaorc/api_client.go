package rinaorc

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/kapu/rinaorc-staff-bot-go/internal/constants"
	"github.com/kapu/rinaorc-staff-bot-go/internal/domain"
	"github.com/kapu/rinaorc-staff-bot-go/pkg/errors"
)

var errBodyTooLarge = stdErrors.New("response body too large")

// Config: 스태프 API 클라이언트 설정
type Config struct {
	URL       string
	APIKey    string
	KeyHeader string
	Timeout   time.Duration
	UserAgent string
}

// APIClient: 스태프 목록 API를 호출하여 스냅샷을 만드는 클라이언트
// 응답은 정해진 스키마로만 해석하며, 조금이라도 어긋나면 FetchError를 반환한다.
type APIClient struct {
	httpClient  *http.Client
	cfg         Config
	logger      *slog.Logger
	validate    *validator.Validate
	rateLimiter *rate.Limiter
}

type staffResponse struct {
	Ranks []rankPayload `json:"ranks" validate:"required,dive"`
}

type rankPayload struct {
	Name    string          `json:"name" validate:"required"`
	Players []playerPayload `json:"players" validate:"required,dive"`
}

type playerPayload struct {
	Name string `json:"name" validate:"required"`
}

// NewAPIClient: 새로운 스태프 API 클라이언트를 생성한다.
// 비어있는 설정 값은 constants.StaffAPIConfig 기본값으로 채운다.
func NewAPIClient(cfg Config, logger *slog.Logger) *APIClient {
	if cfg.KeyHeader == "" {
		cfg.KeyHeader = constants.StaffAPIConfig.KeyHeader
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.StaffAPIConfig.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = constants.StaffAPIConfig.UserAgent
	}

	return &APIClient{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		cfg:         cfg,
		logger:      logger,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		rateLimiter: rate.NewLimiter(rate.Every(constants.StaffAPIConfig.RateEvery), 1),
	}
}

// FetchSnapshot: 스태프 API를 한 번 호출하여 스냅샷을 반환한다.
// 모든 실패는 *errors.FetchError로 반환되며 부분적으로 채워진 스냅샷은 만들지 않는다.
func (c *APIClient) FetchSnapshot(ctx context.Context) (domain.Snapshot, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return domain.Snapshot{}, errors.NewFetchError(errors.FetchStageRequest, 0, fmt.Errorf("rate limiter wait failed: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return domain.Snapshot{}, errors.NewFetchError(errors.FetchStageRequest, 0, err)
	}
	req.Header.Set(c.cfg.KeyHeader, c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Snapshot{}, errors.NewFetchError(errors.FetchStageRequest, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return domain.Snapshot{}, errors.NewFetchError(errors.FetchStageStatus, resp.StatusCode,
			fmt.Errorf("unexpected status: %s", resp.Status))
	}

	body, err := readLimited(resp.Body, constants.StaffAPIConfig.MaxBodyBytes)
	if err != nil {
		stage := errors.FetchStageRequest
		if stdErrors.Is(err, errBodyTooLarge) {
			stage = errors.FetchStageDecode
		}
		return domain.Snapshot{}, errors.NewFetchError(stage, resp.StatusCode, err)
	}

	snapshot, err := c.decodeSnapshot(body)
	if err != nil {
		return domain.Snapshot{}, err
	}

	c.logger.Debug("Staff snapshot fetched",
		slog.Int("roles", snapshot.Len()),
		slog.Int("players", snapshot.PlayerCount()),
	)
	return snapshot, nil
}

func (c *APIClient) decodeSnapshot(body []byte) (domain.Snapshot, error) {
	var payload staffResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.Snapshot{}, errors.NewFetchError(errors.FetchStageDecode, http.StatusOK, err)
	}
	if err := c.validate.Struct(payload); err != nil {
		return domain.Snapshot{}, errors.NewFetchError(errors.FetchStageValidate, http.StatusOK, err)
	}

	roles := make([]domain.Role, 0, len(payload.Ranks))
	for _, rank := range payload.Ranks {
		players := make([]string, 0, len(rank.Players))
		for _, p := range rank.Players {
			players = append(players, p.Name)
		}
		roles = append(roles, domain.Role{Name: rank.Name, Players: players})
	}

	snapshot, err := domain.NewSnapshot(roles)
	if err != nil {
		return domain.Snapshot{}, errors.NewFetchError(errors.FetchStageValidate, http.StatusOK, err)
	}
	return snapshot, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: limit=%d", errBodyTooLarge, limit)
	}
	return body, nil
}
