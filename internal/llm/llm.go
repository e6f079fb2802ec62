package llm

import (
	"context"
	"encoding/json"
)

// 消息角色，与 Chat Completions 协议保持一致。
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message 描述一条对话消息。Name 在 user 消息中标记发言者，
// ToolCallID 在 tool 消息中关联对应的工具调用。
type Message struct {
	Role       string
	Content    string
	Name       string
	ToolCallID string
	ToolCalls  []ToolCall
}

// ToolCall 是模型请求执行的一次工具调用。Input 保留原始 JSON，
// 由各工具自行解码。
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolSpec 描述暴露给模型的工具，Parameters 为 JSON Schema。
type ToolSpec struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ChatRequest 描述一次对话推理请求。
type ChatRequest struct {
	Model       string
	Messages    []Message
	Tools       []ToolSpec
	Temperature float64
	MaxTokens   int
}

// ChatResponse 是模型的结构化输出：回复文本加零个或多个工具调用。
type ChatResponse struct {
	Text      string
	ToolCalls []ToolCall
}

// Client 定义了调用大模型的统一接口。
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ImageRequest 描述一次图片生成请求。
type ImageRequest struct {
	Model  string
	Prompt string
	Size   string
}

// ImageResult 包含生成的图片字节（PNG）。
type ImageResult struct {
	Data []byte
}

// ImageGenerator 定义图片生成能力，与 Client 分开以便按需实现。
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error)
}
