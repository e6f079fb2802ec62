package tool

import (
	"context"
	"encoding/json"

	"PersonaChain/internal/llm"
)

// Input 是一次工具调用的完整输入。Args 保留模型给出的原始 JSON，
// 由各工具自行解码。
type Input struct {
	CorrelationID string
	SessionID     string
	Owner         string
	Persona       string
	Args          json.RawMessage
}

// Handler 定义单个工具的实现。Invoke 返回可序列化的结果或错误，
// 引擎负责把两者都转换成结构化的 Result。
type Handler interface {
	Name() string
	Spec() llm.ToolSpec
	Invoke(ctx context.Context, input Input) (any, error)
}

// ToolError 是反馈给模型的结构化错误负载。
type ToolError struct {
	Name    string            `json:"tool"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Result 是一次工具调用的最终结果。Payload 与 Err 恰好一个非空。
type Result struct {
	CorrelationID string     `json:"correlation_id"`
	Name          string     `json:"tool"`
	Payload       any        `json:"payload,omitempty"`
	Err           *ToolError `json:"error,omitempty"`
}

// Body 返回应当回传给模型的 JSON 文本。
func (r Result) Body() string {
	if r.Err != nil {
		encoded, err := json.Marshal(map[string]any{"error": r.Err})
		if err != nil {
			return `{"error":{"message":"unserializable tool error"}}`
		}
		return string(encoded)
	}
	encoded, err := json.Marshal(r.Payload)
	if err != nil {
		return `{"error":{"message":"unserializable tool result"}}`
	}
	return string(encoded)
}
