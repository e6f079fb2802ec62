package notify

import (
	"context"
	"sync"
)

// MemorySink 将通知保存在内存中，主要用于测试断言。
type MemorySink struct {
	mu       sync.Mutex
	messages []RecordedMessage
	events   []RecordedEvent
	fail     error
}

// RecordedMessage 是 MemorySink 捕获的一条人格消息。
type RecordedMessage struct {
	SessionID string
	Persona   string
	Text      string
}

// RecordedEvent 是 MemorySink 捕获的一条观察事件。
type RecordedEvent struct {
	SessionID string
	Event     Event
}

var _ Sink = (*MemorySink)(nil)

// NewMemorySink 创建内存通知收集器。
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// FailWith 让后续所有投递返回指定错误，用于模拟通道故障。
func (s *MemorySink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// CharacterMessage 记录人格消息。
func (s *MemorySink) CharacterMessage(ctx context.Context, sessionID, personaName, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.messages = append(s.messages, RecordedMessage{SessionID: sessionID, Persona: personaName, Text: text})
	return nil
}

// GodEvent 记录观察事件。
func (s *MemorySink) GodEvent(ctx context.Context, sessionID string, evt Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.events = append(s.events, RecordedEvent{SessionID: sessionID, Event: evt})
	return nil
}

// Messages 返回已捕获的人格消息副本。
func (s *MemorySink) Messages() []RecordedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Events 返回已捕获的事件副本。
func (s *MemorySink) Events() []RecordedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedEvent, len(s.events))
	copy(out, s.events)
	return out
}
