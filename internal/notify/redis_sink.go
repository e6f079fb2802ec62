package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSink 通过 Redis Pub/Sub 向前端推送通知。
// 人格消息发布到 session:<id>:character:<persona>，
// 观察事件发布到 session:<id>:character:god。
type RedisSink struct {
	client *redis.Client
}

var _ Sink = (*RedisSink)(nil)

// NewRedisSink 创建 Redis 通知驱动。
func NewRedisSink(client *redis.Client) *RedisSink {
	return &RedisSink{client: client}
}

// ChannelFor 返回会话内指定人格的通道名。
func ChannelFor(sessionID, personaName string) string {
	return fmt.Sprintf("session:%s:character:%s", sessionID, personaName)
}

type redisMessage struct {
	Persona string `json:"persona"`
	Text    string `json:"text"`
}

// CharacterMessage 发布人格消息。
func (s *RedisSink) CharacterMessage(ctx context.Context, sessionID, personaName, text string) error {
	payload, err := json.Marshal(redisMessage{Persona: personaName, Text: text})
	if err != nil {
		return fmt.Errorf("序列化角色消息失败: %w", err)
	}
	return s.client.Publish(ctx, ChannelFor(sessionID, personaName), payload).Err()
}

// GodEvent 发布观察事件。
func (s *RedisSink) GodEvent(ctx context.Context, sessionID string, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}
	return s.client.Publish(ctx, ChannelFor(sessionID, GodChannel), payload).Err()
}
