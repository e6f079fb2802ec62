package tools

import (
	"context"
	"strings"

	xerrors "PersonaChain/internal/errors"
	"PersonaChain/internal/llm"
	"PersonaChain/internal/notify"
	"PersonaChain/internal/tool"
)

const grokSystemPrompt = "You are a real-time information analyst with live access to X. " +
	"Answer the query with what is being discussed right now, citing notable accounts " +
	"or posts where relevant, and keep the analysis concise."

// GetGrokInformationTool 通过 Grok 检索 X 上的实时讨论并返回分析。
// 查询开始前先向会话推一句播报，让观众知道人格正在查资料。
type GetGrokInformationTool struct {
	client llm.Client
	sink   notify.Sink
	model  string
}

func NewGetGrokInformationTool(client llm.Client, sink notify.Sink, model string) *GetGrokInformationTool {
	return &GetGrokInformationTool{client: client, sink: notify.BestEffort(sink), model: model}
}

func (t *GetGrokInformationTool) Name() string { return "get_grok_information" }

func (t *GetGrokInformationTool) Spec() llm.ToolSpec {
	return spec("get_grok_information",
		"Look up real-time information and sentiment from X about a topic.",
		`{"type":"object","properties":{"query":{"type":"string","description":"topic or question to research"}},"required":["query"]}`)
}

func (t *GetGrokInformationTool) Invoke(ctx context.Context, input tool.Input) (any, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := decodeArgs(input.Args, &args); err != nil {
		return nil, err
	}
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "查询内容不能为空")
	}

	_ = t.sink.CharacterMessage(ctx, input.SessionID, input.Persona,
		"Okay, I'll check whats happening on X.")

	resp, err := t.client.Chat(ctx, llm.ChatRequest{
		Model: t.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: grokSystemPrompt},
			{Role: llm.RoleUser, Content: query},
		},
	})
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeModelFailure, err, "实时信息检索失败")
	}

	return map[string]any{
		"query":    query,
		"analysis": strings.TrimSpace(resp.Text),
	}, nil
}
