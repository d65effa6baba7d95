package mq

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/valkey-io/valkey-go"

	"github.com/kapu/rinaorc-staff-bot-go/internal/constants"
)

// ValkeyMQConfig: Iris 응답 스트림 발행 설정
type ValkeyMQConfig struct {
	// ReplyStreamKey: 비어 있으면 constants.MQConfig.ReplyStreamKey
	ReplyStreamKey string
	// ReplyStreamMaxLen: reply stream의 최대 길이 (0 이하면 trim 비활성)
	ReplyStreamMaxLen int64
}

// ValkeyMQClient: Iris 서버가 읽어가는 응답 스트림에 메시지를 발행하는 클라이언트 (iris.Client 구현)
// 연결은 캐시와 공유하므로 닫지 않는다.
type ValkeyMQClient struct {
	cfg    ValkeyMQConfig
	client valkey.Client
	logger *slog.Logger
}

// NewValkeyMQClientWithClient: 기존 Valkey 클라이언트를 공유하는 ValkeyMQClient를 생성한다.
func NewValkeyMQClientWithClient(client valkey.Client, cfg ValkeyMQConfig, logger *slog.Logger) *ValkeyMQClient {
	if cfg.ReplyStreamKey == "" {
		cfg.ReplyStreamKey = constants.MQConfig.ReplyStreamKey
	}
	return &ValkeyMQClient{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
}

// SendMessage: 지정된 채팅방으로 보낼 텍스트 메시지를 Redis Stream에 추가(발행)합니다.
func (c *ValkeyMQClient) SendMessage(ctx context.Context, room, message string) error {
	streamKey := c.cfg.ReplyStreamKey

	fieldValues := []string{
		"chatId", room,
		"text", message,
		"threadId", "",
		"type", "final",
	}

	var args []string
	if c.cfg.ReplyStreamMaxLen > 0 {
		args = append(args, "MAXLEN", "~", strconv.FormatInt(c.cfg.ReplyStreamMaxLen, 10))
	}
	args = append(args, "*")
	args = append(args, fieldValues...)

	cmd := c.client.B().Arbitrary("XADD").Keys(streamKey).Args(args...).Build()

	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		c.logger.Error("MQ_REPLY_ERROR",
			slog.String("stream", streamKey),
			slog.String("room", room),
			slog.Any("error", err),
		)
		return fmt.Errorf("failed to publish reply to message queue: %w", err)
	}

	c.logger.Info("MQ_REPLY_PUBLISHED",
		slog.String("stream", streamKey),
		slog.String("room", room),
	)

	return nil
}

// Ping: Redis 서버와의 연결 상태를 점검합니다.
func (c *ValkeyMQClient) Ping(ctx context.Context) bool {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error() == nil
}
