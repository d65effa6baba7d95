package cache

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/valkey-io/valkey-go"

	"github.com/kapu/rinaorc-staff-bot-go/internal/constants"
	"github.com/kapu/rinaorc-staff-bot-go/pkg/errors"
)

// Service: Valkey(Redis) 클라이언트를 래핑하여 JSON 값 캐싱 기능을 제공하는 서비스
type Service struct {
	client    valkey.Client
	logger    *slog.Logger
	closeOnce sync.Once
}

// Config: Valkey 연결 설정을 담는 구조체
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewCacheService: 새로운 Valkey 캐시 서비스 인스턴스를 생성하고 연결을 수립한다.
func NewCacheService(cfg Config, logger *slog.Logger) (*Service, error) {
	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:       []string{addr},
		Password:          cfg.Password,
		SelectDB:          cfg.DB,
		ConnWriteTimeout:  constants.ValkeyConfig.ConnWriteTimeout,
		BlockingPoolSize:  constants.ValkeyConfig.BlockingPoolSize,
		PipelineMultiplex: constants.ValkeyConfig.PipelineMultiplex,
		Dialer:            net.Dialer{Timeout: constants.ValkeyConfig.DialTimeout},
	})
	if err != nil {
		return nil, errors.NewCacheError("init", "", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.ValkeyConfig.ReadyTimeout)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, errors.NewCacheError("ping", "", err)
	}

	logger.Info("Cache store connected",
		slog.String("addr", addr),
		slog.Int("db", cfg.DB),
	)

	return NewCacheServiceWithClient(client, logger), nil
}

// NewCacheServiceWithClient: 이미 생성된 Valkey 클라이언트로 서비스를 구성한다. (MQ와 연결 공유 시 사용)
func NewCacheServiceWithClient(client valkey.Client, logger *slog.Logger) *Service {
	return &Service{
		client: client,
		logger: logger,
	}
}

// Client: 내부 Valkey 클라이언트를 반환한다.
func (c *Service) Client() valkey.Client {
	return c.client
}

// Get: 키에 해당하는 값을 조회하여 dest에 언마샬링한다.
// 키가 없으면 (false, nil)을 반환하고 dest는 건드리지 않는다.
func (c *Service) Get(ctx context.Context, key string, dest any) (bool, error) {
	resp := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
	if err := resp.Error(); err != nil {
		if isMissingKey(err) {
			return false, nil
		}
		c.logger.Error("Cache get operation failed", slog.String("key", key), slog.Any("error", err))
		return false, errors.NewCacheError("get", key, err)
	}

	value, err := resp.ToString()
	if err != nil {
		return false, errors.NewCacheError("get", key, err)
	}

	if dest != nil {
		if err := json.Unmarshal([]byte(value), dest); err != nil {
			c.logger.Warn("Cache value unmarshal failed", slog.String("key", key), slog.Any("error", err))
			return false, errors.NewCacheError("get", key, err)
		}
	}
	return true, nil
}

// Set: 값을 JSON으로 마샬링하여 키에 저장한다. (ttl <= 0이면 만료 없음)
func (c *Service) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return errors.NewCacheError("set", key, err)
	}

	builder := c.client.B().Set().Key(key).Value(string(jsonData))
	var cmd valkey.Completed
	if ttl > 0 {
		seconds := int64(ttl.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		cmd = builder.ExSeconds(seconds).Build()
	} else {
		cmd = builder.Build()
	}

	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		c.logger.Error("Cache set failed", slog.String("key", key), slog.Any("error", err))
		return errors.NewCacheError("set", key, err)
	}
	return nil
}

// Ping: 연결 상태를 확인한다.
func (c *Service) Ping(ctx context.Context) error {
	if err := c.client.Do(ctx, c.client.B().Ping().Build()).Error(); err != nil {
		return errors.NewCacheError("ping", "", err)
	}
	return nil
}

// Close: 클라이언트 연결을 종료한다. 여러 번 호출해도 안전하다.
func (c *Service) Close() error {
	c.closeOnce.Do(func() {
		if c.client != nil {
			c.client.Close()
		}
	})
	return nil
}

// isMissingKey: 래핑된 에러까지 따라가며 Valkey nil 응답(키 없음)인지 확인한다.
func isMissingKey(err error) bool {
	for ; err != nil; err = stdErrors.Unwrap(err) {
		if valkey.IsValkeyNil(err) {
			return true
		}
	}
	return false
}
