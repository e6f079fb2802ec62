package chat

import "context"

// Store 定义会话消息日志的持久化接口。实现必须保证同一会话内
// Seq 严格递增，即使调用方传入了重复的时间戳。
type Store interface {
	// Append 追加一条消息并返回最终落库的 Seq。
	Append(ctx context.Context, msg Message) (int64, error)
	// List 按 Seq 升序返回会话内未过期的消息，limit<=0 表示不限制。
	List(ctx context.Context, sessionID string, limit int) ([]Message, error)
	// Close 释放底层资源。
	Close() error
}
