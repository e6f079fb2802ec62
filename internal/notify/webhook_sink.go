package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WebhookSink 将通知以 JSON POST 的形式发送到外部回调地址。
type WebhookSink struct {
	url        string
	httpClient *http.Client
}

var _ Sink = (*WebhookSink)(nil)

// WebhookOption 配置 WebhookSink。
type WebhookOption func(*WebhookSink)

// WithHTTPClient 覆盖默认的 HTTP 客户端。
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(s *WebhookSink) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// NewWebhookSink 创建 Webhook 通知驱动。
func NewWebhookSink(url string, opts ...WebhookOption) (*WebhookSink, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("webhook 地址不能为空")
	}
	sink := &WebhookSink{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(sink)
		}
	}
	return sink, nil
}

type webhookPayload struct {
	Kind      string `json:"kind"`
	SessionID string `json:"session_id"`
	Persona   string `json:"persona,omitempty"`
	Text      string `json:"text,omitempty"`
	Event     *Event `json:"event,omitempty"`
}

// CharacterMessage 推送人格消息。
func (s *WebhookSink) CharacterMessage(ctx context.Context, sessionID, personaName, text string) error {
	return s.deliver(ctx, webhookPayload{
		Kind:      "character_message",
		SessionID: sessionID,
		Persona:   personaName,
		Text:      text,
	})
}

// GodEvent 推送观察事件。
func (s *WebhookSink) GodEvent(ctx context.Context, sessionID string, evt Event) error {
	return s.deliver(ctx, webhookPayload{
		Kind:      "god_event",
		SessionID: sessionID,
		Event:     &evt,
	})
}

func (s *WebhookSink) deliver(ctx context.Context, payload webhookPayload) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化 webhook 通知失败: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("构建 webhook 请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("发送 webhook 通知失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook 返回错误状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
