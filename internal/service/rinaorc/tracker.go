package rinaorc

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"github.com/kapu/rinaorc-staff-bot-go/internal/constants"
	"github.com/kapu/rinaorc-staff-bot-go/internal/util"
	"github.com/kapu/rinaorc-staff-bot-go/pkg/errors"
)

const rankCacheKeyPrefix = "rinaorc:rank:"

// ErrTrackerUnavailable: 연속 실패로 트래커 조회가 일시 차단된 상태
var ErrTrackerUnavailable = stdErrors.New("tracker temporarily unavailable")

// RankCache: 등급 조회 결과 캐시 (cache.Service가 구현)
type RankCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// TrackerConfig: 트래커 프로필 페이지 클라이언트 설정
type TrackerConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateEvery time.Duration
	CacheTTL  time.Duration
}

type cachedRank struct {
	Rank  string `json:"rank"`
	Found bool   `json:"found"`
}

// TrackerClient: 트래커 프로필 페이지를 크롤링하여 플레이어의 현재 등급을 조회한다.
// 스태프에서 빠진 플레이어가 어떤 일반 등급으로 돌아갔는지 알림에 표시할 때 사용한다.
type TrackerClient struct {
	httpClient  *http.Client
	baseURL     string
	cache       RankCache
	cacheTTL    time.Duration
	logger      *slog.Logger
	rateLimiter *rate.Limiter
	breaker     *util.CircuitBreaker
}

// NewTrackerClient: 새로운 TrackerClient를 생성한다. cache가 nil이면 캐시 없이 동작한다.
func NewTrackerClient(cfg TrackerConfig, cache RankCache, logger *slog.Logger) *TrackerClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.TrackerConfig.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.TrackerConfig.RequestTimeout
	}
	if cfg.RateEvery <= 0 {
		cfg.RateEvery = constants.TrackerConfig.RateEvery
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = constants.TrackerConfig.RankCacheTTL
	}

	return &TrackerClient{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		cache:       cache,
		cacheTTL:    cfg.CacheTTL,
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Every(cfg.RateEvery), 1),
		breaker: util.NewCircuitBreaker("tracker",
			constants.TrackerConfig.BreakerThreshold,
			constants.TrackerConfig.BreakerReset,
			logger,
		),
	}
}

// FetchPlayerRank: 플레이어 프로필 페이지에서 등급 텍스트를 읽는다.
// 플레이어가 없거나(404) 등급 요소가 없으면 ("", false, nil)을 반환한다.
func (c *TrackerClient) FetchPlayerRank(ctx context.Context, name string) (string, bool, error) {
	cacheKey := rankCacheKeyPrefix + util.NormalizeKey(name)
	if c.cache != nil {
		var cached cachedRank
		found, err := c.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			c.logger.Warn("Rank cache lookup failed", slog.String("player", name), slog.Any("error", err))
		} else if found {
			return cached.Rank, cached.Found, nil
		}
	}

	if !c.breaker.Allow() {
		return "", false, ErrTrackerUnavailable
	}
	rank, found, err := c.scrapeRank(ctx, name)
	if err != nil {
		if ctx.Err() == nil {
			c.breaker.RecordFailure()
		}
		return "", false, err
	}
	c.breaker.RecordSuccess()

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, cachedRank{Rank: rank, Found: found}, c.cacheTTL); err != nil {
			c.logger.Warn("Rank cache store failed", slog.String("player", name), slog.Any("error", err))
		}
	}
	return rank, found, nil
}

func (c *TrackerClient) scrapeRank(ctx context.Context, name string) (string, bool, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", false, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	reqURL := c.baseURL + "/player/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", false, errors.NewAPIError("player_rank", 0, err)
	}
	req.Header.Set("User-Agent", constants.StaffAPIConfig.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, errors.NewAPIError("player_rank", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, errors.NewAPIError("player_rank", resp.StatusCode, fmt.Errorf("unexpected status: %s", resp.Status))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", false, errors.NewAPIError("player_rank", resp.StatusCode, fmt.Errorf("failed to parse HTML: %w", err))
	}

	rank := strings.TrimSpace(doc.Find(constants.TrackerConfig.RankSelector).First().Text())
	if rank == "" {
		return "", false, nil
	}
	return rank, true, nil
}

// ResolveRanks: 여러 플레이어의 등급을 동시에 조회한다.
// 조회에 실패하거나 찾지 못한 플레이어는 결과 맵에 포함되지 않는다.
func (c *TrackerClient) ResolveRanks(ctx context.Context, names []string) map[string]string {
	resolved := make(map[string]string, len(names))
	if len(names) == 0 {
		return resolved
	}

	p := pool.New().WithMaxGoroutines(constants.TrackerConfig.MaxConcurrency)
	var mu sync.Mutex

	for _, name := range names {
		p.Go(func() {
			rank, found, err := c.FetchPlayerRank(ctx, name)
			if err != nil {
				c.logger.Warn("Player rank lookup failed", slog.String("player", name), slog.Any("error", err))
				return
			}
			if !found {
				return
			}
			mu.Lock()
			resolved[name] = rank
			mu.Unlock()
		})
	}

	p.Wait()
	return resolved
}
