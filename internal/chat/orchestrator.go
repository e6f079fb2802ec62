package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	xerrors "PersonaChain/internal/errors"
	"PersonaChain/internal/llm"
	"PersonaChain/internal/notify"
	"PersonaChain/internal/persona"
	"PersonaChain/internal/router"
	"PersonaChain/internal/tool"
	"PersonaChain/pkg/logger"
)

// failureNotice 是回合中止时推给观众通道的通用提示。
const failureNotice = "Something went wrong, please try again in a few moments."

// Inbound 是传输层投递进来的一条逻辑消息。
type Inbound struct {
	SessionID string `json:"session_id"`
	Sender    string `json:"sender"`
	Owner     string `json:"owner"`
	Body      string `json:"body"`
}

// PersonaSelector 为入站消息挑选应答人格，选择永远成功。
type PersonaSelector interface {
	Select(ctx context.Context, inbound string, history []router.Turn, wallets map[string]string) persona.Persona
}

// Dispatcher 执行一轮回复中的全部工具调用。
type Dispatcher interface {
	Dispatch(ctx context.Context, p persona.Persona, sessionID, owner string, resp *llm.ChatResponse) []tool.Result
}

// SpecSource 提供某个人格可见的工具描述。
type SpecSource interface {
	SpecsFor(p persona.Persona) []llm.ToolSpec
}

// AddressBook 提供人格钱包地址，用于丰富路由上下文。
type AddressBook interface {
	Addresses(ctx context.Context, owner string, personaIDs []string) (map[string]string, error)
}

// Orchestrator 驱动一条入站消息的完整处理：入库、路由、人格推理、
// 工具调度、回复入库、通知推送，以及链式模式下的有界递归。
type Orchestrator struct {
	store     Store
	personas  *persona.Registry
	selector  PersonaSelector
	client    llm.Client
	engine    Dispatcher
	specs     SpecSource
	addresses AddressBook
	sink      notify.Sink

	model        string
	maxDepth     int
	toolRounds   int
	chained      bool
	historyLimit int
	ttl          time.Duration
}

// OrchestratorOption 配置 Orchestrator。
type OrchestratorOption func(*Orchestrator)

// WithChatModel 指定人格推理所用的模型。
func WithChatModel(model string) OrchestratorOption {
	return func(o *Orchestrator) { o.model = model }
}

// WithMaxDepth 设置链式递归的深度上限。
func WithMaxDepth(depth int) OrchestratorOption {
	return func(o *Orchestrator) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// WithToolRounds 设置单次人格回合内的最大工具轮数。
func WithToolRounds(rounds int) OrchestratorOption {
	return func(o *Orchestrator) {
		if rounds > 0 {
			o.toolRounds = rounds
		}
	}
}

// WithChained 打开人格接力模式：回复会作为新的入站消息再次路由。
func WithChained(chained bool) OrchestratorOption {
	return func(o *Orchestrator) { o.chained = chained }
}

// WithTTL 给落库消息附带过期提示。
func WithTTL(ttl time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.ttl = ttl }
}

// NewOrchestrator 创建编排器。
func NewOrchestrator(
	store Store,
	personas *persona.Registry,
	selector PersonaSelector,
	client llm.Client,
	engine Dispatcher,
	specs SpecSource,
	addresses AddressBook,
	sink notify.Sink,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		store:        store,
		personas:     personas,
		selector:     selector,
		client:       client,
		engine:       engine,
		specs:        specs,
		addresses:    addresses,
		sink:         notify.BestEffort(sink),
		maxDepth:     10,
		toolRounds:   4,
		historyLimit: 30,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// HandleInbound 处理一条入站消息。链式模式下回复会再次进入路由，
// 深度上限保证即使人格相互点名也会在有限步内停下。任何持久化或
// 推理失败都会中止当前链、向观众通道尽力推送一条通用提示并把错误
// 交还给传输层按其重投策略处理。
func (o *Orchestrator) HandleInbound(ctx context.Context, inbound Inbound) error {
	if strings.TrimSpace(inbound.SessionID) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "会话 ID 不能为空")
	}
	sender := inbound.Sender
	if sender == "" {
		sender = ViewerAuthor
	}
	owner := inbound.Owner
	if owner == "" {
		owner = inbound.SessionID
	}

	body := inbound.Body
	persistInbound := true
	for depth := 0; ; depth++ {
		replyAuthor, replyText, err := o.step(ctx, inbound.SessionID, owner, sender, body, persistInbound)
		if err != nil {
			_ = o.sink.CharacterMessage(ctx, inbound.SessionID, ViewerAuthor, failureNotice)
			return err
		}
		if !o.chained || replyText == EmptySentinel {
			return nil
		}
		if depth+1 >= o.maxDepth {
			logger.Named("chat").Info("接力达到深度上限，正常停止",
				"session_id", inbound.SessionID,
				"depth", depth+1,
			)
			return nil
		}
		// 回复已作为回复入库，再次进入时不重复落库。
		sender = replyAuthor
		body = replyText
		persistInbound = false
	}
}

func (o *Orchestrator) step(ctx context.Context, sessionID, owner, sender, body string, persistInbound bool) (string, string, error) {
	if persistInbound {
		if _, err := o.store.Append(ctx, o.message(sessionID, sender, body)); err != nil {
			return "", "", xerrors.Wrap(xerrors.CodeStorageFailure, err, "入站消息入库失败")
		}
	}

	history, err := o.store.List(ctx, sessionID, o.historyLimit)
	if err != nil {
		return "", "", xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取会话历史失败")
	}
	turns := make([]router.Turn, 0, len(history))
	for _, msg := range history {
		turns = append(turns, router.Turn{Author: msg.Author, Body: msg.Body})
	}

	wallets, err := o.addresses.Addresses(ctx, owner, o.personas.Names())
	if err != nil {
		logger.Named("chat").Warn("读取钱包地址失败，路由不携带地址上下文", "error", err)
		wallets = nil
	}

	responder := o.selector.Select(ctx, body, turns, wallets)
	replyText, err := o.personaTurn(ctx, sessionID, owner, responder, history)
	if err != nil {
		return "", "", err
	}
	if replyText == "" {
		replyText = EmptySentinel
	}

	if _, err := o.store.Append(ctx, o.message(sessionID, responder.Name, replyText)); err != nil {
		return "", "", xerrors.Wrap(xerrors.CodeStorageFailure, err, "回复入库失败")
	}

	if replyText == EmptySentinel {
		logger.Named("chat").Debug("回复为空占位串，跳过推送",
			"session_id", sessionID,
			"persona", responder.Name,
		)
	} else {
		_ = o.sink.CharacterMessage(ctx, sessionID, responder.Name, replyText)
	}
	return responder.Name, replyText, nil
}

// personaTurn 运行一个人格回合：携带工具描述推理，模型请求工具时
// 并发执行并把每个结果作为 tool 消息回传，直到模型给出纯文本回复
// 或工具轮数耗尽。
func (o *Orchestrator) personaTurn(ctx context.Context, sessionID, owner string, p persona.Persona, history []Message) (string, error) {
	messages := o.buildMessages(p, history)
	specs := o.specs.SpecsFor(p)
	model := o.model
	if p.Model != "" {
		model = p.Model
	}

	for round := 0; ; round++ {
		resp, err := o.client.Chat(ctx, llm.ChatRequest{
			Model:    model,
			Messages: messages,
			Tools:    specs,
		})
		if err != nil {
			return "", xerrors.Wrap(xerrors.CodeModelFailure, err, "人格推理失败")
		}
		if len(resp.ToolCalls) == 0 || round >= o.toolRounds {
			return strings.TrimSpace(resp.Text), nil
		}

		results := o.engine.Dispatch(ctx, p, sessionID, owner, resp)

		// 引擎会跳过未注册或未授权的调用。assistant 消息里只能回放
		// 产生了结果的调用，缺少配对 tool 消息的 tool_calls 会被上游
		// 接口整体拒绝。
		answered := make(map[string]bool, len(results))
		for _, result := range results {
			answered[result.CorrelationID] = true
		}
		echoed := make([]llm.ToolCall, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			if answered[call.ID] {
				echoed = append(echoed, call)
			}
		}
		if len(echoed) == 0 {
			logger.Named("chat").Warn("本轮工具调用全部被跳过，结束人格回合",
				"session_id", sessionID,
				"persona", p.Name,
				"requested", len(resp.ToolCalls),
			)
			return strings.TrimSpace(resp.Text), nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Text,
			ToolCalls: echoed,
		})
		for _, result := range results {
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Name:       result.Name,
				ToolCallID: result.CorrelationID,
				Content:    result.Body(),
			})
		}
	}
}

func (o *Orchestrator) buildMessages(p persona.Persona, history []Message) []llm.Message {
	system := fmt.Sprintf("You are %s. %s", p.Name, p.Instructions)
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})

	for _, msg := range history {
		switch msg.Author {
		case p.Name:
			messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: msg.Body})
		case ViewerAuthor:
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: msg.Body})
		default:
			// 其他人格的发言以署名形式给出，保持多人格上下文。
			messages = append(messages, llm.Message{
				Role:    llm.RoleUser,
				Content: fmt.Sprintf("%s: %s", msg.Author, msg.Body),
			})
		}
	}
	return messages
}

func (o *Orchestrator) message(sessionID, author, body string) Message {
	msg := Message{SessionID: sessionID, Author: author, Body: body}
	if o.ttl > 0 {
		msg.ExpiresAt = time.Now().Add(o.ttl).Unix()
	}
	return msg
}
