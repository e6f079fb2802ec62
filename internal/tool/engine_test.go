package tool

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"

	xerrors "PersonaChain/internal/errors"
	"PersonaChain/internal/llm"
	"PersonaChain/internal/notify"
	"PersonaChain/internal/persona"
)

type fakeHandler struct {
	name   string
	invoke func(ctx context.Context, input Input) (any, error)
	calls  atomic.Int32
}

func (h *fakeHandler) Name() string { return h.name }

func (h *fakeHandler) Spec() llm.ToolSpec {
	return llm.ToolSpec{Name: h.name, Description: "test handler"}
}

func (h *fakeHandler) Invoke(ctx context.Context, input Input) (any, error) {
	h.calls.Add(1)
	if h.invoke != nil {
		return h.invoke(ctx, input)
	}
	return map[string]string{"ok": h.name}, nil
}

func testPersona(tools ...string) persona.Persona {
	return persona.Persona{Name: "Harper", Tools: tools}
}

func callsFor(names ...string) *llm.ChatResponse {
	resp := &llm.ChatResponse{}
	for i, name := range names {
		resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
			ID:    "call_" + name + string(rune('a'+i)),
			Name:  name,
			Input: json.RawMessage(`{}`),
		})
	}
	return resp
}

func TestDispatchProducesOneResultPerCall(t *testing.T) {
	registry := NewRegistry()
	a := &fakeHandler{name: "tool_a"}
	b := &fakeHandler{name: "tool_b"}
	registry.MustRegister(a, b)
	engine := NewEngine(registry, notify.NewMemorySink())

	resp := callsFor("tool_a", "tool_b", "tool_a")
	results := engine.Dispatch(context.Background(), testPersona("tool_a", "tool_b"), "s1", "user-1", resp)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	seen := make(map[string]bool)
	for _, result := range results {
		if result.CorrelationID == "" {
			t.Fatalf("missing correlation id: %+v", result)
		}
		if seen[result.CorrelationID] {
			t.Fatalf("duplicate correlation id %s", result.CorrelationID)
		}
		seen[result.CorrelationID] = true
		if result.Payload == nil && result.Err == nil {
			t.Fatalf("result carries neither payload nor error: %+v", result)
		}
	}
	if a.calls.Load() != 2 || b.calls.Load() != 1 {
		t.Fatalf("unexpected invocation counts: a=%d b=%d", a.calls.Load(), b.calls.Load())
	}
}

func TestDispatchRecoversPanic(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(&fakeHandler{
		name: "explosive",
		invoke: func(context.Context, Input) (any, error) {
			panic("boom")
		},
	})
	engine := NewEngine(registry, notify.NewMemorySink())

	results := engine.Dispatch(context.Background(), testPersona("explosive"), "s1", "user-1", callsFor("explosive"))
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Err == nil || results[0].Err.Code != string(xerrors.CodeToolFailure) {
		t.Fatalf("panic should become a structured error: %+v", results[0])
	}
}

func TestDispatchConvertsTypedErrors(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(&fakeHandler{
		name: "broke",
		invoke: func(context.Context, Input) (any, error) {
			return nil, xerrors.New(xerrors.CodeInvalidArgument, "bad address",
				xerrors.WithMetadata("address", "0xzz"))
		},
	})
	engine := NewEngine(registry, notify.NewMemorySink())

	results := engine.Dispatch(context.Background(), testPersona("broke"), "s1", "user-1", callsFor("broke"))
	if results[0].Err == nil {
		t.Fatal("expected structured error")
	}
	if results[0].Err.Code != string(xerrors.CodeInvalidArgument) {
		t.Fatalf("unexpected code %s", results[0].Err.Code)
	}
	if results[0].Err.Details["address"] != "0xzz" {
		t.Fatalf("metadata not forwarded: %+v", results[0].Err)
	}
}

func TestDispatchSkipsUnknownAndForbiddenTools(t *testing.T) {
	registry := NewRegistry()
	allowed := &fakeHandler{name: "allowed"}
	hidden := &fakeHandler{name: "hidden"}
	registry.MustRegister(allowed, hidden)
	engine := NewEngine(registry, notify.NewMemorySink())

	resp := callsFor("allowed", "hidden", "missing")
	results := engine.Dispatch(context.Background(), testPersona("allowed"), "s1", "user-1", resp)

	if len(results) != 1 || results[0].Name != "allowed" {
		t.Fatalf("only the permitted, registered tool should run: %+v", results)
	}
	if hidden.calls.Load() != 0 {
		t.Fatal("forbidden tool must not be invoked")
	}
}

func TestDispatchPushesNarrativeBeforeExecution(t *testing.T) {
	sink := notify.NewMemorySink()
	registry := NewRegistry()
	sawNarrative := make(chan bool, 1)
	registry.MustRegister(&fakeHandler{
		name: "observer",
		invoke: func(context.Context, Input) (any, error) {
			sawNarrative <- len(sink.Messages()) > 0
			return "done", nil
		},
	})
	engine := NewEngine(registry, sink)

	resp := callsFor("observer")
	resp.Text = "Let me check that for you."
	engine.Dispatch(context.Background(), testPersona("observer"), "s1", "user-1", resp)

	if !<-sawNarrative {
		t.Fatal("narrative text must reach the sink before tools execute")
	}
}

func TestDispatchToleratesSinkOutage(t *testing.T) {
	sink := notify.NewMemorySink()
	sink.FailWith(context.DeadlineExceeded)
	registry := NewRegistry()
	registry.MustRegister(&fakeHandler{name: "steady"})
	engine := NewEngine(registry, sink)

	resp := callsFor("steady")
	resp.Text = "working on it"
	results := engine.Dispatch(context.Background(), testPersona("steady"), "s1", "user-1", resp)
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("sink outage must not fail the tool call: %+v", results)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(&fakeHandler{name: "dup"}); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if err := registry.Register(&fakeHandler{name: "DUP"}); err == nil {
		t.Fatal("expected conflict for case-insensitive duplicate")
	}
}

func TestSpecsForFiltersByPersona(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(&fakeHandler{name: "tool_a"}, &fakeHandler{name: "tool_b"})

	specs := registry.SpecsFor(testPersona("tool_a", "never_registered"))
	if len(specs) != 1 || specs[0].Name != "tool_a" {
		t.Fatalf("unexpected specs: %+v", specs)
	}
}
