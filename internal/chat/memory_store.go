package chat

import (
	"context"
	"sync"
	"time"
)

// MemoryStore 提供基于内存的消息日志实现，主要用于测试与本地运行。
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Message
	lastSeq  map[string]int64
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore 创建内存消息日志。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]Message),
		lastSeq:  make(map[string]int64),
		now:      time.Now,
	}
}

// Append 追加消息。Seq 为空时取当前毫秒时间戳；若与已有记录冲突
// 则在其基础上递增，保证同一会话内严格单调。
func (s *MemoryStore) Append(ctx context.Context, msg Message) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := msg.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq := msg.Seq
	if seq == 0 {
		seq = s.now().UnixMilli()
	}
	if last := s.lastSeq[msg.SessionID]; seq <= last {
		seq = last + 1
	}
	msg.Seq = seq
	s.lastSeq[msg.SessionID] = seq
	s.sessions[msg.SessionID] = append(s.sessions[msg.SessionID], msg.Clone())
	return seq, nil
}

// List 返回会话内未过期的消息，按 Seq 升序。
func (s *MemoryStore) List(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	stored := s.sessions[sessionID]
	out := make([]Message, 0, len(stored))
	for i := range stored {
		if stored[i].Expired(now) {
			continue
		}
		out = append(out, stored[i].Clone())
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// Close 实现 Store 接口，无资源需要释放。
func (s *MemoryStore) Close() error {
	return nil
}
