package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"PersonaChain/internal/llm"
	"PersonaChain/internal/notify"
	"PersonaChain/internal/persona"
	"PersonaChain/internal/router"
	"PersonaChain/internal/tool"
)

func testPersonas(t *testing.T) *persona.Registry {
	t.Helper()
	reg, err := persona.NewRegistry([]persona.Persona{
		{Name: "Harper", Instructions: "You trade tokens.", Default: true},
		{Name: "Eric", Instructions: "You analyse markets."},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

// scriptedSelector 按脚本依次返回人格，脚本耗尽后重复最后一个。
type scriptedSelector struct {
	mu      sync.Mutex
	reg     *persona.Registry
	script  []string
	wallets map[string]string
	calls   int
}

func (s *scriptedSelector) Select(_ context.Context, _ string, _ []router.Turn, wallets map[string]string) persona.Persona {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets = wallets
	idx := s.calls
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	s.calls++
	p, ok := s.reg.Get(s.script[idx])
	if !ok {
		return s.reg.Default()
	}
	return p
}

// scriptedClient 按脚本依次返回应答，脚本耗尽后重复最后一个。
type scriptedClient struct {
	mu       sync.Mutex
	script   []*llm.ChatResponse
	requests []llm.ChatRequest
	err      error
}

func (c *scriptedClient) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	idx := len(c.requests) - 1
	if idx >= len(c.script) {
		idx = len(c.script) - 1
	}
	return c.script[idx], nil
}

type fakeDispatcher struct {
	mu      sync.Mutex
	calls   int
	results []tool.Result
}

func (d *fakeDispatcher) Dispatch(_ context.Context, _ persona.Persona, _, _ string, _ *llm.ChatResponse) []tool.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return d.results
}

type emptySpecs struct{}

func (emptySpecs) SpecsFor(persona.Persona) []llm.ToolSpec { return nil }

type fakeAddresses struct {
	mu    sync.Mutex
	owner string
	book  map[string]string
	err   error
}

func (f *fakeAddresses) Addresses(_ context.Context, owner string, _ []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owner = owner
	return f.book, f.err
}

// failingStore 在第 failAt 次 Append 时开始失败，0 表示永不失败。
type failingStore struct {
	*MemoryStore
	mu      sync.Mutex
	appends int
	failAt  int
}

func (s *failingStore) Append(ctx context.Context, msg Message) (int64, error) {
	s.mu.Lock()
	s.appends++
	fail := s.failAt > 0 && s.appends >= s.failAt
	s.mu.Unlock()
	if fail {
		return 0, errors.New("disk full")
	}
	return s.MemoryStore.Append(ctx, msg)
}

func newTestOrchestrator(store Store, reg *persona.Registry, selector PersonaSelector, client llm.Client, dispatcher Dispatcher, addresses AddressBook, sink notify.Sink, opts ...OrchestratorOption) *Orchestrator {
	return NewOrchestrator(store, reg, selector, client, dispatcher, emptySpecs{}, addresses, sink, opts...)
}

func TestHandleInboundPersistsAndPushes(t *testing.T) {
	reg := testPersonas(t)
	store := NewMemoryStore()
	sink := notify.NewMemorySink()
	selector := &scriptedSelector{reg: reg, script: []string{"Harper"}}
	client := &scriptedClient{script: []*llm.ChatResponse{{Text: "gm, looking at the charts"}}}
	addresses := &fakeAddresses{book: map[string]string{"Harper": "0xabc"}}

	o := newTestOrchestrator(store, reg, selector, client, &fakeDispatcher{}, addresses, sink)
	err := o.HandleInbound(context.Background(), Inbound{SessionID: "s-1", Body: "hello"})
	if err != nil {
		t.Fatalf("HandleInbound: %v", err)
	}

	msgs, err := store.List(context.Background(), "s-1", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected inbound plus reply, got %d messages", len(msgs))
	}
	if msgs[0].Author != ViewerAuthor || msgs[0].Body != "hello" {
		t.Fatalf("unexpected inbound record: %+v", msgs[0])
	}
	if msgs[1].Author != "Harper" || msgs[1].Body != "gm, looking at the charts" {
		t.Fatalf("unexpected reply record: %+v", msgs[1])
	}

	pushed := sink.Messages()
	if len(pushed) != 1 || pushed[0].Persona != "Harper" {
		t.Fatalf("unexpected pushes: %+v", pushed)
	}

	// Owner 未提供时退化为会话 ID，钱包上下文进入路由。
	if addresses.owner != "s-1" {
		t.Fatalf("expected owner fallback to session id, got %q", addresses.owner)
	}
	if selector.wallets["Harper"] != "0xabc" {
		t.Fatalf("wallet context missing from selector: %+v", selector.wallets)
	}
}

func TestChainStopsAtDepthCap(t *testing.T) {
	reg := testPersonas(t)
	store := NewMemoryStore()
	sink := notify.NewMemorySink()
	selector := &scriptedSelector{reg: reg, script: []string{"Harper", "Eric"}}
	client := &scriptedClient{script: []*llm.ChatResponse{{Text: "Hey Eric, thoughts?"}}}

	o := newTestOrchestrator(store, reg, selector, client, &fakeDispatcher{}, &fakeAddresses{}, sink,
		WithChained(true), WithMaxDepth(3))
	if err := o.HandleInbound(context.Background(), Inbound{SessionID: "s-1", Body: "kick off"}); err != nil {
		t.Fatalf("HandleInbound: %v", err)
	}

	msgs, err := store.List(context.Background(), "s-1", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("expected 1 inbound and 3 replies at depth cap 3, got %d", len(msgs))
	}
	if got := len(sink.Messages()); got != 3 {
		t.Fatalf("expected 3 pushes, got %d", got)
	}
}

func TestEmptyReplyPersistedNotPushed(t *testing.T) {
	reg := testPersonas(t)
	store := NewMemoryStore()
	sink := notify.NewMemorySink()
	selector := &scriptedSelector{reg: reg, script: []string{"Harper"}}
	client := &scriptedClient{script: []*llm.ChatResponse{{Text: "  "}}}

	// 链式模式下空回复也会停住接力，不会带着占位串继续路由。
	o := newTestOrchestrator(store, reg, selector, client, &fakeDispatcher{}, &fakeAddresses{}, sink,
		WithChained(true))
	if err := o.HandleInbound(context.Background(), Inbound{SessionID: "s-1", Body: "hello"}); err != nil {
		t.Fatalf("HandleInbound: %v", err)
	}

	msgs, err := store.List(context.Background(), "s-1", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[1].Body != EmptySentinel {
		t.Fatalf("expected sentinel reply, got %q", msgs[1].Body)
	}
	if got := len(sink.Messages()); got != 0 {
		t.Fatalf("sentinel reply must not be pushed, got %d pushes", got)
	}
}

func TestPersistFailureNotifiesViewer(t *testing.T) {
	reg := testPersonas(t)
	store := &failingStore{MemoryStore: NewMemoryStore(), failAt: 1}
	sink := notify.NewMemorySink()
	selector := &scriptedSelector{reg: reg, script: []string{"Harper"}}
	client := &scriptedClient{script: []*llm.ChatResponse{{Text: "never sent"}}}

	o := newTestOrchestrator(store, reg, selector, client, &fakeDispatcher{}, &fakeAddresses{}, sink)
	err := o.HandleInbound(context.Background(), Inbound{SessionID: "s-1", Body: "hello"})
	if err == nil {
		t.Fatal("expected error when persistence fails")
	}

	pushed := sink.Messages()
	if len(pushed) != 1 {
		t.Fatalf("expected a single failure notice, got %+v", pushed)
	}
	if pushed[0].Persona != ViewerAuthor || pushed[0].Text != failureNotice {
		t.Fatalf("unexpected failure notice: %+v", pushed[0])
	}
}

func TestModelFailureNotifiesViewer(t *testing.T) {
	reg := testPersonas(t)
	store := NewMemoryStore()
	sink := notify.NewMemorySink()
	selector := &scriptedSelector{reg: reg, script: []string{"Harper"}}
	client := &scriptedClient{err: errors.New("upstream 500")}

	o := newTestOrchestrator(store, reg, selector, client, &fakeDispatcher{}, &fakeAddresses{}, sink)
	err := o.HandleInbound(context.Background(), Inbound{SessionID: "s-1", Body: "hello"})
	if err == nil {
		t.Fatal("expected error when the model fails")
	}

	pushed := sink.Messages()
	if len(pushed) != 1 || pushed[0].Text != failureNotice {
		t.Fatalf("unexpected pushes: %+v", pushed)
	}
}

func TestToolResultsFeedBack(t *testing.T) {
	reg := testPersonas(t)
	store := NewMemoryStore()
	sink := notify.NewMemorySink()
	selector := &scriptedSelector{reg: reg, script: []string{"Harper"}}
	client := &scriptedClient{script: []*llm.ChatResponse{
		{ToolCalls: []llm.ToolCall{{ID: "call-1", Name: "get_wallet", Input: json.RawMessage(`{}`)}}},
		{Text: "your wallet is ready"},
	}}
	dispatcher := &fakeDispatcher{results: []tool.Result{
		{CorrelationID: "call-1", Name: "get_wallet", Payload: map[string]any{"address": "0xabc"}},
	}}

	o := newTestOrchestrator(store, reg, selector, client, dispatcher, &fakeAddresses{}, sink)
	if err := o.HandleInbound(context.Background(), Inbound{SessionID: "s-1", Body: "what's my wallet?"}); err != nil {
		t.Fatalf("HandleInbound: %v", err)
	}

	if dispatcher.calls != 1 {
		t.Fatalf("expected one dispatch, got %d", dispatcher.calls)
	}
	if len(client.requests) != 2 {
		t.Fatalf("expected two model calls, got %d", len(client.requests))
	}

	second := client.requests[1].Messages
	var sawToolMsg bool
	for _, msg := range second {
		if msg.Role == llm.RoleTool {
			sawToolMsg = true
			if msg.ToolCallID != "call-1" || msg.Name != "get_wallet" {
				t.Fatalf("tool message not correlated: %+v", msg)
			}
		}
	}
	if !sawToolMsg {
		t.Fatal("tool result was not fed back to the model")
	}

	msgs, err := store.List(context.Background(), "s-1", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if msgs[len(msgs)-1].Body != "your wallet is ready" {
		t.Fatalf("unexpected final reply: %q", msgs[len(msgs)-1].Body)
	}
}

func TestSkippedToolCallsNotEchoed(t *testing.T) {
	reg := testPersonas(t)
	store := NewMemoryStore()
	sink := notify.NewMemorySink()
	selector := &scriptedSelector{reg: reg, script: []string{"Harper"}}
	// 模型同时请求一个已注册工具和一个不存在的工具，
	// 后者不会产生结果。
	client := &scriptedClient{script: []*llm.ChatResponse{
		{ToolCalls: []llm.ToolCall{
			{ID: "call-1", Name: "get_wallet", Input: json.RawMessage(`{}`)},
			{ID: "call-2", Name: "imaginary_tool", Input: json.RawMessage(`{}`)},
		}},
		{Text: "done"},
	}}
	dispatcher := &fakeDispatcher{results: []tool.Result{
		{CorrelationID: "call-1", Name: "get_wallet", Payload: "ok"},
	}}

	o := newTestOrchestrator(store, reg, selector, client, dispatcher, &fakeAddresses{}, sink)
	if err := o.HandleInbound(context.Background(), Inbound{SessionID: "s-1", Body: "go"}); err != nil {
		t.Fatalf("HandleInbound: %v", err)
	}

	if len(client.requests) != 2 {
		t.Fatalf("expected two model calls, got %d", len(client.requests))
	}
	var echoed []llm.ToolCall
	var toolReplies []llm.Message
	for _, msg := range client.requests[1].Messages {
		switch msg.Role {
		case llm.RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				echoed = msg.ToolCalls
			}
		case llm.RoleTool:
			toolReplies = append(toolReplies, msg)
		}
	}
	if len(echoed) != 1 || echoed[0].ID != "call-1" {
		t.Fatalf("assistant message must only replay answered calls, got %+v", echoed)
	}
	if len(toolReplies) != 1 || toolReplies[0].ToolCallID != "call-1" {
		t.Fatalf("every replayed call needs a matching tool reply, got %+v", toolReplies)
	}
}

func TestAllToolCallsSkippedEndsTurn(t *testing.T) {
	reg := testPersonas(t)
	store := NewMemoryStore()
	sink := notify.NewMemorySink()
	selector := &scriptedSelector{reg: reg, script: []string{"Harper"}}
	client := &scriptedClient{script: []*llm.ChatResponse{
		{ToolCalls: []llm.ToolCall{{ID: "call-1", Name: "imaginary_tool"}}},
	}}
	// 引擎对未知工具不产生任何结果。
	dispatcher := &fakeDispatcher{}

	o := newTestOrchestrator(store, reg, selector, client, dispatcher, &fakeAddresses{}, sink)
	if err := o.HandleInbound(context.Background(), Inbound{SessionID: "s-1", Body: "go"}); err != nil {
		t.Fatalf("HandleInbound: %v", err)
	}

	if len(client.requests) != 1 {
		t.Fatalf("turn must end instead of replaying unanswered calls, got %d model calls", len(client.requests))
	}
	msgs, err := store.List(context.Background(), "s-1", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if msgs[len(msgs)-1].Body != EmptySentinel {
		t.Fatalf("expected sentinel reply, got %q", msgs[len(msgs)-1].Body)
	}
}

func TestToolRoundsBounded(t *testing.T) {
	reg := testPersonas(t)
	store := NewMemoryStore()
	sink := notify.NewMemorySink()
	selector := &scriptedSelector{reg: reg, script: []string{"Harper"}}
	// 模型每次都要求工具，轮数上限负责收口。
	client := &scriptedClient{script: []*llm.ChatResponse{
		{ToolCalls: []llm.ToolCall{{ID: "c", Name: "get_wallet"}}},
	}}
	dispatcher := &fakeDispatcher{results: []tool.Result{{CorrelationID: "c", Name: "get_wallet", Payload: "ok"}}}

	o := newTestOrchestrator(store, reg, selector, client, dispatcher, &fakeAddresses{}, sink,
		WithToolRounds(2))
	if err := o.HandleInbound(context.Background(), Inbound{SessionID: "s-1", Body: "go"}); err != nil {
		t.Fatalf("HandleInbound: %v", err)
	}

	if dispatcher.calls != 2 {
		t.Fatalf("expected 2 dispatches, got %d", dispatcher.calls)
	}
	if len(client.requests) != 3 {
		t.Fatalf("expected 3 model calls, got %d", len(client.requests))
	}

	msgs, err := store.List(context.Background(), "s-1", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if msgs[len(msgs)-1].Body != EmptySentinel {
		t.Fatalf("exhausted rounds without text should persist the sentinel, got %q", msgs[len(msgs)-1].Body)
	}
}

func TestPerPersonaModelOverride(t *testing.T) {
	custom, err := persona.NewRegistry([]persona.Persona{
		{Name: "Harper", Model: "gpt-4o", Default: true},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	store := NewMemoryStore()
	selector := &scriptedSelector{reg: custom, script: []string{"Harper"}}
	client := &scriptedClient{script: []*llm.ChatResponse{{Text: "done"}}}

	o := newTestOrchestrator(store, custom, selector, client, &fakeDispatcher{}, &fakeAddresses{}, notify.NewMemorySink(),
		WithChatModel("gpt-4o-mini"))
	if err := o.HandleInbound(context.Background(), Inbound{SessionID: "s-1", Body: "hi"}); err != nil {
		t.Fatalf("HandleInbound: %v", err)
	}
	if got := client.requests[0].Model; got != "gpt-4o" {
		t.Fatalf("expected persona model override, got %q", got)
	}
}
