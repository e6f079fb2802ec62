package router

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"PersonaChain/internal/llm"
	"PersonaChain/internal/persona"
)

type fakeClassifier struct {
	reply string
	err   error
	calls atomic.Int32
}

func (f *fakeClassifier) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Text: f.reply}, nil
}

func testRegistry(t *testing.T) *persona.Registry {
	t.Helper()
	reg, err := persona.NewRegistry([]persona.Persona{
		{Name: "Harper", Description: "trader"},
		{Name: "Eric", Description: "analyst"},
		{Name: "Yasmin", Description: "marketing", Default: true},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

func TestAddressOverrideSkipsClassifier(t *testing.T) {
	classifier := &fakeClassifier{reply: "Eric"}
	r := New(classifier, testRegistry(t))

	p := r.Select(context.Background(), "Hey Harper, should I buy?", nil, nil)
	if p.Name != "Harper" {
		t.Fatalf("expected Harper, got %s", p.Name)
	}
	if classifier.calls.Load() != 0 {
		t.Fatal("override must not invoke the classifier")
	}
}

func TestAddressOverrideIsCaseInsensitive(t *testing.T) {
	r := New(&fakeClassifier{reply: "Eric"}, testRegistry(t))
	p := r.Select(context.Background(), "hey harper, what's up", nil, nil)
	if p.Name != "Harper" {
		t.Fatalf("expected Harper, got %s", p.Name)
	}
}

func TestClassifierResultIsUsed(t *testing.T) {
	r := New(&fakeClassifier{reply: " Eric \n"}, testRegistry(t))
	p := r.Select(context.Background(), "what do the charts say?", nil, nil)
	if p.Name != "Eric" {
		t.Fatalf("expected Eric, got %s", p.Name)
	}
}

func TestClassifierErrorFallsBackToDefault(t *testing.T) {
	r := New(&fakeClassifier{err: errors.New("model down")}, testRegistry(t))
	p := r.Select(context.Background(), "anyone there?", nil, nil)
	if p.Name != "Yasmin" {
		t.Fatalf("expected default Yasmin, got %s", p.Name)
	}
}

func TestUnknownNameFallsBackToDefault(t *testing.T) {
	r := New(&fakeClassifier{reply: "Zorp"}, testRegistry(t))
	p := r.Select(context.Background(), "hello", nil, nil)
	if p.Name != "Yasmin" {
		t.Fatalf("expected default Yasmin, got %s", p.Name)
	}
}

func TestEmptyClassifierOutputFallsBackToDefault(t *testing.T) {
	r := New(&fakeClassifier{reply: "  "}, testRegistry(t))
	p := r.Select(context.Background(), "hello", nil, nil)
	if p.Name != "Yasmin" {
		t.Fatalf("expected default Yasmin, got %s", p.Name)
	}
}

func TestUnknownOverrideNameUsesClassifier(t *testing.T) {
	classifier := &fakeClassifier{reply: "Eric"}
	r := New(classifier, testRegistry(t))
	p := r.Select(context.Background(), "Hey Bob, how are you?", nil, nil)
	if p.Name != "Eric" {
		t.Fatalf("expected classifier result Eric, got %s", p.Name)
	}
	if classifier.calls.Load() != 1 {
		t.Fatal("classifier should run when the named agent is unknown")
	}
}
