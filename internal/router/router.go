package router

import (
	"context"
	"fmt"
	"strings"

	"PersonaChain/internal/llm"
	"PersonaChain/internal/persona"
	"PersonaChain/pkg/logger"
)

// Turn 是提供给分类器的一条历史消息摘要。
type Turn struct {
	Author string
	Body   string
}

// Router 负责为入站消息挑选应答人格。选择永远成功：
// 分类器出错、给出未知名称或空输出时一律回落到默认人格。
type Router struct {
	client   llm.Client
	registry *persona.Registry
	model    string
	custom   string
}

// Option 配置 Router。
type Option func(*Router)

// WithModel 指定分类所用的模型。
func WithModel(model string) Option {
	return func(r *Router) {
		r.model = model
	}
}

// WithCustomRule 追加领域定制的路由说明，拼接在分类提示词末尾。
func WithCustomRule(rule string) Option {
	return func(r *Router) {
		r.custom = rule
	}
}

// New 创建路由器。
func New(client llm.Client, registry *persona.Registry, opts ...Option) *Router {
	r := &Router{client: client, registry: registry}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Select 返回应答人格。直呼其名的覆写规则优先于模型分类，
// 命中时完全不发起模型调用。
func (r *Router) Select(ctx context.Context, inbound string, history []Turn, wallets map[string]string) persona.Persona {
	if p, ok := r.addressOverride(inbound); ok {
		return p
	}

	name, err := r.classify(ctx, inbound, history, wallets)
	if err != nil {
		logger.Named("router").Warn("分类器调用失败，回落默认人格", "error", err)
		return r.registry.Default()
	}
	if p, ok := r.registry.Get(name); ok {
		return p
	}
	logger.Named("router").Warn("分类器给出未知人格，回落默认人格", "name", name)
	return r.registry.Default()
}

// addressOverride 识别 "Hey <Name>," 形式的直接点名。
func (r *Router) addressOverride(inbound string) (persona.Persona, bool) {
	trimmed := strings.TrimSpace(inbound)
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "hey ") {
		return persona.Persona{}, false
	}
	rest := trimmed[len("hey "):]
	comma := strings.IndexAny(rest, ",!.:;?")
	if comma <= 0 {
		return persona.Persona{}, false
	}
	return r.registry.Get(rest[:comma])
}

func (r *Router) classify(ctx context.Context, inbound string, history []Turn, wallets map[string]string) (string, error) {
	resp, err := r.client.Chat(ctx, llm.ChatRequest{
		Model: r.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: r.buildPrompt(history, wallets)},
			{Role: llm.RoleUser, Content: inbound},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return "", err
	}
	name := strings.Trim(strings.TrimSpace(resp.Text), `"'`)
	if name == "" {
		return "", fmt.Errorf("分类器输出为空")
	}
	return name, nil
}

func (r *Router) buildPrompt(history []Turn, wallets map[string]string) string {
	var builder strings.Builder
	builder.WriteString("You dispatch incoming messages to exactly one agent. Agents:\n")
	for _, p := range r.registry.All() {
		builder.WriteString(fmt.Sprintf("- %s: %s", p.Name, p.Description))
		if addr := wallets[p.Name]; addr != "" {
			builder.WriteString(fmt.Sprintf(" (wallet %s)", addr))
		}
		builder.WriteString("\n")
	}

	if len(history) > 0 {
		builder.WriteString("\nRecent conversation:\n")
		start := 0
		if len(history) > 8 {
			start = len(history) - 8
		}
		for _, turn := range history[start:] {
			builder.WriteString(fmt.Sprintf("%s: %s\n", turn.Author, truncate(turn.Body)))
		}
	}

	builder.WriteString("\nReply with the single agent name and nothing else.")
	builder.WriteString(" If a message begins with an agent's name, pick that agent.")
	if r.custom != "" {
		builder.WriteString("\n" + r.custom)
	}
	return builder.String()
}

func truncate(text string) string {
	text = strings.TrimSpace(text)
	if len([]rune(text)) > 120 {
		return string([]rune(text)[:120]) + "..."
	}
	return text
}
