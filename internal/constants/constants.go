package constants

import "time"

// StaffAPIConfig 는 스태프 목록 API 기본값이다.
var StaffAPIConfig = struct {
	BaseURL      string
	KeyHeader    string
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64
	RateEvery    time.Duration
}{
	BaseURL:      "https://api.rinaorc.com/staff",
	KeyHeader:    "API-Key",
	UserAgent:    "RinaorcStaffBot/1.0 (+https://github.com/kapu/rinaorc-staff-bot-go)",
	Timeout:      15 * time.Second,
	MaxBodyBytes: 4 << 20, // 4 MiB
	RateEvery:    1 * time.Second,
}

// TrackerConfig 는 트래커 프로필 페이지(등급 조회) 설정이다.
var TrackerConfig = struct {
	BaseURL          string
	RankSelector     string
	RequestTimeout   time.Duration
	RateEvery        time.Duration
	MaxConcurrency   int
	RankCacheTTL     time.Duration
	BreakerThreshold int
	BreakerReset     time.Duration
}{
	BaseURL:          "https://tracker.rinaorc.com",
	RankSelector:     ".custom-rank-color",
	RequestTimeout:   15 * time.Second,
	RateEvery:        250 * time.Millisecond,
	MaxConcurrency:   4,
	RankCacheTTL:     10 * time.Minute,
	BreakerThreshold: 5,
	BreakerReset:     5 * time.Minute,
}

// PollConfig 는 폴링 주기 기본값/하한이다.
var PollConfig = struct {
	DefaultInterval time.Duration
	MinInterval     time.Duration
	DefaultTimeout  time.Duration
}{
	DefaultInterval: 1 * time.Hour,
	MinInterval:     10 * time.Second,
	DefaultTimeout:  15 * time.Second,
}

// NotifyRetryConfig 는 알림 전송 재시도(지수 백오프) 설정이다.
var NotifyRetryConfig = struct {
	MaxTries        uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	SendTimeout     time.Duration
}{
	MaxTries:        3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
	SendTimeout:     10 * time.Second,
}

// ValkeyConfig 는 패키지 변수다.
var ValkeyConfig = struct {
	ReadyTimeout      time.Duration
	BlockingPoolSize  int
	PipelineMultiplex int
	ConnWriteTimeout  time.Duration
	DialTimeout       time.Duration
}{
	ReadyTimeout:      5 * time.Second,
	BlockingPoolSize:  10,
	PipelineMultiplex: 2,
	ConnWriteTimeout:  3 * time.Second,
	DialTimeout:       5 * time.Second,
}

// MQConfig 는 Iris 응답 스트림 발행 설정이다.
var MQConfig = struct {
	ReplyStreamKey    string
	ReplyStreamMaxLen int64
}{
	ReplyStreamKey:    "kakao:bot:reply",
	ReplyStreamMaxLen: 1000,
}

// AppTimeout 는 앱 빌드/종료 타임아웃 설정이다.
var AppTimeout = struct {
	Build    time.Duration
	Shutdown time.Duration
}{
	Build:    30 * time.Second,
	Shutdown: 10 * time.Second,
}

// ServerTimeout 는 HTTP 서버 타임아웃이다.
var ServerTimeout = struct {
	ReadHeader time.Duration
	Idle       time.Duration
}{
	ReadHeader: 5 * time.Second,
	Idle:       60 * time.Second,
}

// ServerConfig 는 서버 기본 설정이다.
var ServerConfig = struct {
	TrustedProxies []string
}{
	TrustedProxies: []string{"127.0.0.1", "::1"},
}

// CORSConfig 는 CORS 기본 설정이다.
var CORSConfig = struct {
	AllowMethods []string
	AllowHeaders []string
}{
	AllowMethods: []string{"GET", "OPTIONS"},
	AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
}

// HistoryConfig 는 변경 이력 조회 제한이다.
var HistoryConfig = struct {
	DefaultLimit int
	MaxLimit     int
}{
	DefaultLimit: 50,
	MaxLimit:     200,
}

// DatabaseConfig 는 데이터베이스 연결 설정이다.
var DatabaseConfig = struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}{
	MaxOpenConns:    5,
	MaxIdleConns:    2,
	ConnMaxLifetime: 5 * time.Minute,
	PingTimeout:     5 * time.Second,
}

// DatabaseDefaults 는 PostgreSQL 기본값이다. (env 미설정 시)
var DatabaseDefaults = struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}{
	Host:     "localhost",
	Port:     5432,
	User:     "staff_user",
	Password: "staff_password",
	Database: "staff_watch_db",
}
