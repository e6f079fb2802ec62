package tool

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	xerrors "PersonaChain/internal/errors"
	"PersonaChain/internal/llm"
	"PersonaChain/internal/notify"
	"PersonaChain/internal/persona"
	"PersonaChain/pkg/logger"
)

// Engine 负责执行模型在一轮回复中请求的全部工具调用。
// 所有调用并发执行；每个被执行的调用恰好产生一个 Result，
// panic 与错误都会被转换成结构化负载，绝不向上抛出。
type Engine struct {
	registry *Registry
	sink     notify.Sink
}

// NewEngine 创建工具调度引擎。sink 用于在执行前推送模型的叙述文本。
func NewEngine(registry *Registry, sink notify.Sink) *Engine {
	return &Engine{registry: registry, sink: notify.BestEffort(sink)}
}

// Dispatch 执行一轮回复中的全部工具调用并返回结果，顺序与调用顺序一致。
// 未注册或越权的工具只记录告警，不产生结果。
func (e *Engine) Dispatch(ctx context.Context, p persona.Persona, sessionID, owner string, resp *llm.ChatResponse) []Result {
	if resp == nil || len(resp.ToolCalls) == 0 {
		return nil
	}

	// 叙述文本先于任何工具执行推送，保持前端时间线的自然顺序。
	if resp.Text != "" {
		_ = e.sink.CharacterMessage(ctx, sessionID, p.Name, resp.Text)
	}

	type job struct {
		slot int
		call llm.ToolCall
	}
	jobs := make([]job, 0, len(resp.ToolCalls))
	for _, call := range resp.ToolCalls {
		if !p.HasTool(call.Name) {
			logger.Named("tool").Warn("人格请求了越权工具",
				"persona", p.Name,
				"tool", call.Name,
				"session_id", sessionID,
			)
			continue
		}
		if _, ok := e.registry.Get(call.Name); !ok {
			logger.Named("tool").Warn("未注册的工具",
				"tool", call.Name,
				"session_id", sessionID,
			)
			continue
		}
		jobs = append(jobs, job{slot: len(jobs), call: call})
	}
	if len(jobs) == 0 {
		return nil
	}

	results := make([]Result, len(jobs))
	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		go func(slot int, call llm.ToolCall) {
			defer wg.Done()
			results[slot] = e.invoke(ctx, p, sessionID, owner, call)
		}(j.slot, j.call)
	}
	wg.Wait()
	return results
}

func (e *Engine) invoke(ctx context.Context, p persona.Persona, sessionID, owner string, call llm.ToolCall) (result Result) {
	correlationID := call.ID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	result = Result{CorrelationID: correlationID, Name: call.Name}

	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Named("tool").Error("工具执行 panic",
				"tool", call.Name,
				"session_id", sessionID,
				"panic", fmt.Sprint(recovered),
				"stack", string(debug.Stack()),
			)
			result.Payload = nil
			result.Err = &ToolError{
				Name:    call.Name,
				Code:    string(xerrors.CodeToolFailure),
				Message: fmt.Sprintf("tool panicked: %v", recovered),
			}
		}
	}()

	handler, _ := e.registry.Get(call.Name)
	payload, err := handler.Invoke(ctx, Input{
		CorrelationID: correlationID,
		SessionID:     sessionID,
		Owner:         owner,
		Persona:       p.Name,
		Args:          call.Input,
	})
	if err != nil {
		result.Err = asToolError(call.Name, err)
		logger.Named("tool").Warn("工具执行失败",
			"tool", call.Name,
			"session_id", sessionID,
			"code", result.Err.Code,
			"error", err,
		)
		return result
	}
	result.Payload = payload

	logger.Audit().Info("tool_invoked",
		"tool", call.Name,
		"session_id", sessionID,
		"persona", p.Name,
		"correlation_id", correlationID,
	)
	return result
}

func asToolError(name string, err error) *ToolError {
	if typed, ok := xerrors.From(err); ok {
		return &ToolError{
			Name:    name,
			Code:    string(typed.Code()),
			Message: typed.Message(),
			Details: typed.Metadata(),
		}
	}
	return &ToolError{
		Name:    name,
		Code:    string(xerrors.CodeToolFailure),
		Message: err.Error(),
	}
}
