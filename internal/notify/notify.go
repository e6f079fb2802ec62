package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"PersonaChain/pkg/logger"
)

// GodChannel 是运营观察通道的固定人格名，所有事件型通知都发往该通道。
const GodChannel = "god"

// Event 描述一条发往观察通道的结构化事件。
type Event struct {
	ID        string            `json:"id"`
	CreatedBy string            `json:"created_by"`
	PersonaID string            `json:"persona_id"`
	EventName string            `json:"event_name"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt int64             `json:"created_at"`
}

// NewEvent 构造带 ID 与时间戳的事件。
func NewEvent(createdBy, personaID, eventName string, metadata map[string]string) Event {
	return Event{
		ID:        uuid.NewString(),
		CreatedBy: createdBy,
		PersonaID: personaID,
		EventName: eventName,
		Metadata:  metadata,
		CreatedAt: time.Now().Unix(),
	}
}

// Sink 是通知分发接口。实现可能失败，调用方通过 BestEffort
// 包装获得"尽力而为"语义：投递失败只记录日志，绝不向上传播。
type Sink interface {
	// CharacterMessage 将人格的回复文本推送到会话的人格通道。
	CharacterMessage(ctx context.Context, sessionID, personaName, text string) error
	// GodEvent 将结构化事件推送到会话的观察通道。
	GodEvent(ctx context.Context, sessionID string, evt Event) error
}

type bestEffort struct {
	inner Sink
}

// BestEffort 包装任意 Sink，使其永远不返回错误。
func BestEffort(inner Sink) Sink {
	if inner == nil {
		return NopSink{}
	}
	return &bestEffort{inner: inner}
}

func (s *bestEffort) CharacterMessage(ctx context.Context, sessionID, personaName, text string) error {
	if err := s.inner.CharacterMessage(ctx, sessionID, personaName, text); err != nil {
		logger.Named("notify").Warn("角色消息投递失败",
			"session_id", sessionID,
			"persona", personaName,
			"error", err,
		)
	}
	return nil
}

func (s *bestEffort) GodEvent(ctx context.Context, sessionID string, evt Event) error {
	if err := s.inner.GodEvent(ctx, sessionID, evt); err != nil {
		logger.Named("notify").Warn("事件投递失败",
			"session_id", sessionID,
			"event", evt.EventName,
			"error", err,
		)
	}
	return nil
}

// NopSink 丢弃所有通知，用于关闭通知功能的场景。
type NopSink struct{}

func (NopSink) CharacterMessage(context.Context, string, string, string) error { return nil }
func (NopSink) GodEvent(context.Context, string, Event) error                  { return nil }

// Multi 将通知广播给多个 Sink，逐个调用并聚合首个错误。
type Multi []Sink

func (m Multi) CharacterMessage(ctx context.Context, sessionID, personaName, text string) error {
	var first error
	for _, sink := range m {
		if err := sink.CharacterMessage(ctx, sessionID, personaName, text); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m Multi) GodEvent(ctx context.Context, sessionID string, evt Event) error {
	var first error
	for _, sink := range m {
		if err := sink.GodEvent(ctx, sessionID, evt); err != nil && first == nil {
			first = err
		}
	}
	return first
}
