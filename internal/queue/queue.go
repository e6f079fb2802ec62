// Package queue 定义入站消息队列的生产与消费接口。队列里的每一项
// 是一条完整的入站消息，消费端交给编排器处理。
package queue

import (
	"context"

	"PersonaChain/internal/chat"
)

// Handler 处理一条出队的入站消息。返回错误表示处理失败，
// 具体的重投策略由队列实现决定。
type Handler func(ctx context.Context, inbound chat.Inbound) error

// Producer 负责向队列投递入站消息。
type Producer interface {
	Publish(ctx context.Context, inbound chat.Inbound) error
	Close() error
}

// Consumer 负责从队列中消费入站消息。
type Consumer interface {
	Consume(ctx context.Context, workerCount int, handler Handler) error
	Close() error
}

// Queue 同时具备生产者与消费者能力。
type Queue interface {
	Producer
	Consumer
}
