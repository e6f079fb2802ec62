package social

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPostTweet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2/tweets" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Fatal("missing bearer token")
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["text"] != "gm" {
			t.Fatalf("unexpected text %q", body["text"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{"id": "1234", "text": "gm"},
		})
	}))
	defer srv.Close()

	client, err := NewTwitterClient(TwitterConfig{BaseURL: srv.URL, Bearer: "token"})
	if err != nil {
		t.Fatalf("NewTwitterClient: %v", err)
	}
	tweet, err := client.PostTweet(context.Background(), "gm")
	if err != nil {
		t.Fatalf("PostTweet: %v", err)
	}
	if tweet.ID != "1234" {
		t.Fatalf("unexpected tweet id %s", tweet.ID)
	}
}

func TestPostTweetRejectsEmpty(t *testing.T) {
	client, err := NewTwitterClient(TwitterConfig{Bearer: "token"})
	if err != nil {
		t.Fatalf("NewTwitterClient: %v", err)
	}
	if _, err := client.PostTweet(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty tweet")
	}
}

func TestUserTweets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/2/users/42/tweets") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("max_results") != "5" {
			t.Fatalf("unexpected max_results %s", r.URL.Query().Get("max_results"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{
				{"id": "1", "text": "first"},
				{"id": "2", "text": "second"},
			},
		})
	}))
	defer srv.Close()

	client, err := NewTwitterClient(TwitterConfig{BaseURL: srv.URL, Bearer: "token"})
	if err != nil {
		t.Fatalf("NewTwitterClient: %v", err)
	}
	tweets, err := client.UserTweets(context.Background(), "42", 5)
	if err != nil {
		t.Fatalf("UserTweets: %v", err)
	}
	if len(tweets) != 2 || tweets[1].Text != "second" {
		t.Fatalf("unexpected tweets %+v", tweets)
	}
}

func TestUserTweetsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewTwitterClient(TwitterConfig{BaseURL: srv.URL, Bearer: "token"})
	if err != nil {
		t.Fatalf("NewTwitterClient: %v", err)
	}
	if _, err := client.UserTweets(context.Background(), "42", 5); err == nil {
		t.Fatal("expected error for http failure")
	}
}
