package notify

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Stage 是进度播报的一个节点：操作开始 After 时间后发送 Text。
type Stage struct {
	After time.Duration
	Text  string
}

// ProgressReporter 在长耗时操作（IPFS 固定、合约部署等）期间向会话
// 推送分阶段的进度消息。操作一旦结束调用 Stop，未到期的阶段立即作废。
type ProgressReporter struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// StartProgress 启动进度播报。阶段按 After 升序依次触发，
// ctx 取消或 Stop 被调用时立刻停止。
func StartProgress(ctx context.Context, sink Sink, sessionID, personaName string, stages []Stage) *ProgressReporter {
	r := &ProgressReporter{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	ordered := make([]Stage, len(stages))
	copy(ordered, stages)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].After < ordered[j].After })

	go func() {
		defer close(r.done)
		start := time.Now()
		for _, stage := range ordered {
			wait := stage.After - time.Since(start)
			if wait < 0 {
				wait = 0
			}
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-r.stop:
				timer.Stop()
				return
			case <-timer.C:
				_ = sink.CharacterMessage(ctx, sessionID, personaName, stage.Text)
			}
		}
	}()

	return r
}

// Stop 终止播报并等待后台协程退出。可安全重复调用。
func (r *ProgressReporter) Stop() {
	r.once.Do(func() { close(r.stop) })
	<-r.done
}
