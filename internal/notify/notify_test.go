package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBestEffortSwallowsFailures(t *testing.T) {
	sink := NewMemorySink()
	sink.FailWith(errors.New("channel down"))
	wrapped := BestEffort(sink)

	if err := wrapped.CharacterMessage(context.Background(), "s1", "Yasmin", "hi"); err != nil {
		t.Fatalf("best effort sink must not surface errors, got %v", err)
	}
	if err := wrapped.GodEvent(context.Background(), "s1", NewEvent("viewer", "Yasmin", "test", nil)); err != nil {
		t.Fatalf("best effort sink must not surface errors, got %v", err)
	}
}

func TestMultiDeliversToAllSinks(t *testing.T) {
	a := NewMemorySink()
	b := NewMemorySink()
	multi := Multi{a, b}

	if err := multi.CharacterMessage(context.Background(), "s1", "Harper", "gm"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Messages()) != 1 || len(b.Messages()) != 1 {
		t.Fatal("both sinks should receive the message")
	}
}

func TestChannelNaming(t *testing.T) {
	if got := ChannelFor("abc", "Harper"); got != "session:abc:character:Harper" {
		t.Fatalf("unexpected channel %s", got)
	}
	if got := ChannelFor("abc", GodChannel); got != "session:abc:character:god" {
		t.Fatalf("unexpected god channel %s", got)
	}
}

func TestWebhookSinkPostsJSON(t *testing.T) {
	var received webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink, err := NewWebhookSink(srv.URL)
	if err != nil {
		t.Fatalf("NewWebhookSink: %v", err)
	}
	if err := sink.CharacterMessage(context.Background(), "s1", "Rishi", "deployed"); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if received.Kind != "character_message" || received.Persona != "Rishi" {
		t.Fatalf("unexpected payload: %+v", received)
	}
}

func TestProgressReporterEmitsStagesInOrder(t *testing.T) {
	sink := NewMemorySink()
	reporter := StartProgress(context.Background(), sink, "s1", "Rishi", []Stage{
		{After: 20 * time.Millisecond, Text: "second"},
		{After: 5 * time.Millisecond, Text: "first"},
	})

	deadline := time.Now().Add(2 * time.Second)
	for len(sink.Messages()) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("stages not delivered, got %+v", sink.Messages())
		}
		time.Sleep(5 * time.Millisecond)
	}
	reporter.Stop()

	msgs := sink.Messages()
	if msgs[0].Text != "first" || msgs[1].Text != "second" {
		t.Fatalf("stages out of order: %+v", msgs)
	}
}

func TestProgressReporterStopCancelsPendingStages(t *testing.T) {
	sink := NewMemorySink()
	reporter := StartProgress(context.Background(), sink, "s1", "Rishi", []Stage{
		{After: time.Hour, Text: "never"},
	})

	done := make(chan struct{})
	go func() {
		reporter.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return promptly")
	}
	if len(sink.Messages()) != 0 {
		t.Fatalf("pending stage should not fire after Stop: %+v", sink.Messages())
	}
}
