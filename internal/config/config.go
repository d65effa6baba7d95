package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kapu/rinaorc-staff-bot-go/internal/constants"
	"github.com/kapu/rinaorc-staff-bot-go/internal/util"
	"github.com/kapu/rinaorc-staff-bot-go/pkg/errors"
)

// Config: 스태프 추적 봇의 전체 동작에 필요한 설정을 담는 구조체
type Config struct {
	StaffAPI     StaffAPIConfig
	Tracker      TrackerConfig
	Poll         PollConfig
	Notification NotificationConfig
	Valkey       ValkeyConfig
	History      HistoryConfig
	Postgres     PostgresConfig
	Server       ServerConfig
	Logging      LoggingConfig
	Version      string
}

// StaffAPIConfig: 스태프 목록 API 엔드포인트 및 인증 키 설정
type StaffAPIConfig struct {
	URL       string
	APIKey    string
	KeyHeader string
}

// TrackerConfig: 트래커 웹사이트(플레이어 프로필) 설정
type TrackerConfig struct {
	BaseURL string
}

// PollConfig: 폴링 주기 및 사이클당 조회 타임아웃
type PollConfig struct {
	Interval     time.Duration
	FetchTimeout time.Duration
}

// NotificationConfig: 카카오톡 알림 전송 설정 (기본 비활성화, 로그만 남김)
type NotificationConfig struct {
	Enabled      bool
	Baseline     bool // 첫 사이클(빈 상태 대비) 결과도 알림으로 보낼지 여부
	ResolveRanks bool // 스태프에서 빠진 플레이어의 현재 등급을 트래커에서 조회할지 여부
	Rooms        []string
}

// ValkeyConfig: 알림 큐(Iris 응답 스트림) 및 등급 캐시 용도의 Valkey 연결 설정
type ValkeyConfig struct {
	Enabled        bool
	Host           string
	Port           int
	Password       string
	DB             int
	ReplyStreamKey string
}

// HistoryConfig: 변경 이력 저장 설정
type HistoryConfig struct {
	Enabled bool
}

// PostgresConfig: 변경 이력 데이터베이스(PostgreSQL) 연결 설정
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// ServerConfig: 상태 조회용 HTTP API 서버 설정
type ServerConfig struct {
	Enabled        bool
	Port           int
	AllowedOrigins []string
}

// LoggingConfig: 애플리케이션 로그 설정 (레벨, 디렉토리, 로테이션 정책)
type LoggingConfig struct {
	Level      string
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Load: .env 파일 및 환경 변수로부터 설정을 로드하고, 기본값을 적용하여 Config 객체를 생성한다.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		StaffAPI: StaffAPIConfig{
			URL:       getEnv("RINAORC_API_URL", constants.StaffAPIConfig.BaseURL),
			APIKey:    util.TrimSpace(getEnv("RINAORC_API_KEY", "")),
			KeyHeader: getEnv("RINAORC_API_KEY_HEADER", constants.StaffAPIConfig.KeyHeader),
		},
		Tracker: TrackerConfig{
			BaseURL: strings.TrimSuffix(getEnv("RINAORC_TRACKER_URL", constants.TrackerConfig.BaseURL), "/"),
		},
		Poll: PollConfig{
			Interval:     getEnvDuration("POLL_INTERVAL", constants.PollConfig.DefaultInterval),
			FetchTimeout: getEnvDuration("FETCH_TIMEOUT", constants.PollConfig.DefaultTimeout),
		},
		Notification: NotificationConfig{
			Enabled:      getEnvBool("NOTIFY_ENABLED", false),
			Baseline:     getEnvBool("NOTIFY_BASELINE", false),
			ResolveRanks: getEnvBool("NOTIFY_RESOLVE_RANKS", true),
			Rooms:        parseCommaSeparated(getEnv("KAKAO_ROOMS", "")),
		},
		Valkey: ValkeyConfig{
			Enabled:        getEnvBool("VALKEY_ENABLED", false),
			Host:           getEnv("CACHE_HOST", "localhost"),
			Port:           getEnvInt("CACHE_PORT", 6379),
			Password:       getEnv("CACHE_PASSWORD", ""),
			DB:             getEnvInt("CACHE_DB", 0),
			ReplyStreamKey: getEnv("MQ_REPLY_STREAM_KEY", constants.MQConfig.ReplyStreamKey),
		},
		History: HistoryConfig{
			Enabled: getEnvBool("HISTORY_ENABLED", false),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", constants.DatabaseDefaults.Host),
			Port:     getEnvInt("POSTGRES_PORT", constants.DatabaseDefaults.Port),
			User:     getEnv("POSTGRES_USER", constants.DatabaseDefaults.User),
			Password: getEnv("POSTGRES_PASSWORD", constants.DatabaseDefaults.Password),
			Database: getEnv("POSTGRES_DB", constants.DatabaseDefaults.Database),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Enabled:        getEnvBool("SERVER_ENABLED", true),
			Port:           getEnvInt("SERVER_PORT", 30011),
			AllowedOrigins: parseCommaSeparated(getEnv("SERVER_ALLOWED_ORIGINS", "")),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Dir:        getEnv("LOG_DIR", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Version: util.TrimSpace(getEnv("APP_VERSION", "1.0.0-go")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate: 필수 설정값 누락 및 값 범위를 검증한다.
func (c *Config) Validate() error {
	if c.StaffAPI.APIKey == "" {
		return errors.NewValidationError("RINAORC_API_KEY", "is required")
	}
	if util.TrimSpace(c.StaffAPI.KeyHeader) == "" {
		return errors.NewValidationError("RINAORC_API_KEY_HEADER", "must not be empty")
	}
	if err := validateHTTPURL("RINAORC_API_URL", c.StaffAPI.URL); err != nil {
		return err
	}
	if err := validateHTTPURL("RINAORC_TRACKER_URL", c.Tracker.BaseURL); err != nil {
		return err
	}

	if c.Poll.Interval < constants.PollConfig.MinInterval {
		return errors.NewValidationError("POLL_INTERVAL",
			fmt.Sprintf("must be at least %s (got %s)", constants.PollConfig.MinInterval, c.Poll.Interval))
	}
	if c.Poll.FetchTimeout <= 0 || c.Poll.FetchTimeout >= c.Poll.Interval {
		return errors.NewValidationError("FETCH_TIMEOUT",
			fmt.Sprintf("must be positive and shorter than POLL_INTERVAL (got %s)", c.Poll.FetchTimeout))
	}

	if c.Notification.Enabled {
		if len(c.Notification.Rooms) == 0 {
			return errors.NewValidationError("KAKAO_ROOMS", "is required when NOTIFY_ENABLED=true")
		}
		if !c.Valkey.Enabled {
			return errors.NewValidationError("VALKEY_ENABLED", "must be true when NOTIFY_ENABLED=true")
		}
	}
	if c.Valkey.Enabled && util.TrimSpace(c.Valkey.ReplyStreamKey) == "" {
		return errors.NewValidationError("MQ_REPLY_STREAM_KEY", "must not be empty")
	}

	if c.History.Enabled && util.TrimSpace(c.Postgres.Host) == "" {
		return errors.NewValidationError("POSTGRES_HOST", "is required when HISTORY_ENABLED=true")
	}

	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return errors.NewValidationError("SERVER_PORT", fmt.Sprintf("out of range: %d", c.Server.Port))
	}
	return nil
}

func validateHTTPURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.NewValidationError(field, fmt.Sprintf("invalid url: %v", err))
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.NewValidationError(field, fmt.Sprintf("must be an absolute http(s) url: %q", raw))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDuration: "90s", "1h" 형식을 우선 파싱하고, 숫자만 있으면 초 단위로 해석한다.
// 파싱 불가능한 값은 0을 반환하여 Validate에서 걸러지도록 한다.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := util.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := util.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
