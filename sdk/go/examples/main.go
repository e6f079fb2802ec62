package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"PersonaChain/sdk/go/personachain"
)

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/messages", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(personachain.Receipt{
			RequestID: "req-demo",
			SessionID: "session-demo",
			Status:    "queued",
		})
	})
	mux.HandleFunc("GET /api/v1/sessions/session-demo/messages", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session_id": "session-demo",
			"messages": []personachain.Message{
				{SessionID: "session-demo", Seq: 1, Author: "viewer", Body: "Hey Harper, how's the market?"},
				{SessionID: "session-demo", Seq: 2, Author: "Harper", Body: "Charts look spicy. ETH pair is moving."},
			},
		})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := personachain.NewClient(srv.URL, srv.Client())
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	receipt, err := client.SendMessage(ctx, personachain.SendMessageRequest{
		SessionID: "session-demo",
		Body:      "Hey Harper, how's the market?",
	})
	if err != nil {
		panic(err)
	}
	fmt.Printf("message accepted: %s (status=%s)\n", receipt.RequestID, receipt.Status)

	messages, err := client.SessionMessages(ctx, receipt.SessionID, 10)
	if err != nil {
		panic(err)
	}
	for _, msg := range messages {
		fmt.Printf("[%d] %s: %s\n", msg.Seq, msg.Author, msg.Body)
	}
}
