// Package llm 定义了 PersonaChain 访问大模型的统一抽象：对话推理
// （含工具调用）与图片生成。具体实现位于子包，例如 internal/llm/openai
// 通过 HTTP 调用 OpenAI 兼容服务。
package llm
