package persona

import "testing"

func sampleRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry([]Persona{
		{Name: "Harper", Description: "trader", Tools: []string{"execute_trade", "get_candles"}},
		{Name: "Eric", Description: "analyst"},
		{Name: "Yasmin", Description: "marketing", Default: true, Tools: []string{"create_tweet"}},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func TestRegistryLookupIsCaseInsensitive(t *testing.T) {
	reg := sampleRegistry(t)
	p, ok := reg.Get("harper")
	if !ok {
		t.Fatal("expected harper to resolve")
	}
	if p.Name != "Harper" {
		t.Fatalf("expected canonical name Harper, got %s", p.Name)
	}
	if _, ok := reg.Get("  ERIC "); !ok {
		t.Fatal("expected trimmed lookup to resolve")
	}
}

func TestRegistryDefault(t *testing.T) {
	reg := sampleRegistry(t)
	if got := reg.Default().Name; got != "Yasmin" {
		t.Fatalf("expected default Yasmin, got %s", got)
	}
}

func TestRegistryRejectsMissingDefault(t *testing.T) {
	_, err := NewRegistry([]Persona{{Name: "Harper"}})
	if err == nil {
		t.Fatal("expected error when no default persona is declared")
	}
}

func TestRegistryRejectsDuplicateDefault(t *testing.T) {
	_, err := NewRegistry([]Persona{
		{Name: "Harper", Default: true},
		{Name: "Yasmin", Default: true},
	})
	if err == nil {
		t.Fatal("expected error when two personas claim default")
	}
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	_, err := NewRegistry([]Persona{
		{Name: "Harper", Default: true},
		{Name: "harper"},
	})
	if err == nil {
		t.Fatal("expected error for duplicate names")
	}
}

func TestHasTool(t *testing.T) {
	reg := sampleRegistry(t)
	harper, _ := reg.Get("Harper")
	if !harper.HasTool("EXECUTE_TRADE") {
		t.Fatal("expected tool match to ignore case")
	}
	if harper.HasTool("create_tweet") {
		t.Fatal("harper must not see marketing tools")
	}
	eric, _ := reg.Get("Eric")
	if eric.HasTool("execute_trade") {
		t.Fatal("eric carries no tools")
	}
}
