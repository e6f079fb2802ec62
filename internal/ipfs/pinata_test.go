package ipfs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPinFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/pinning/pinFileToIPFS") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Fatal("missing bearer token")
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"IpfsHash": "QmTest123"})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, JWT: "jwt"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	uri, err := client.PinFile(context.Background(), "image.png", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("PinFile: %v", err)
	}
	if uri != "ipfs://QmTest123" {
		t.Fatalf("unexpected uri %s", uri)
	}
}

func TestPinJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if _, ok := body["pinataContent"]; !ok {
			t.Fatal("payload must be wrapped in pinataContent")
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"IpfsHash": "QmMeta"})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, JWT: "jwt"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	uri, err := client.PinJSON(context.Background(), map[string]string{"name": "token"})
	if err != nil {
		t.Fatalf("PinJSON: %v", err)
	}
	if uri != "ipfs://QmMeta" {
		t.Fatalf("unexpected uri %s", uri)
	}
}

func TestGatewayURL(t *testing.T) {
	client, err := NewClient(Config{JWT: "jwt", Gateway: "https://gw.example/ipfs"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if got := client.GatewayURL("ipfs://QmX"); got != "https://gw.example/ipfs/QmX" {
		t.Fatalf("unexpected gateway url %s", got)
	}
}

func TestPinFileServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, JWT: "jwt"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.PinFile(context.Background(), "x", []byte{1}); err == nil {
		t.Fatal("expected error for http failure")
	}
}
