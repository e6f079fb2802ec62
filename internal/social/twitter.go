package social

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	xerrors "PersonaChain/internal/errors"
)

// Tweet 是一条已发布或检索到的推文。
type Tweet struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// TwitterClient 封装 Twitter v2 API 的最小子集：发推与读取用户时间线。
type TwitterClient struct {
	baseURL    string
	bearer     string
	httpClient *http.Client
}

// TwitterConfig 描述访问 Twitter API 所需的信息。
type TwitterConfig struct {
	BaseURL string
	Bearer  string
	Timeout time.Duration
}

// NewTwitterClient 创建 Twitter 客户端。
func NewTwitterClient(cfg TwitterConfig) (*TwitterClient, error) {
	if strings.TrimSpace(cfg.Bearer) == "" {
		return nil, errors.New("未提供 Twitter 凭据")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.twitter.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &TwitterClient{
		baseURL:    baseURL,
		bearer:     cfg.Bearer,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// PostTweet 发布一条推文并返回其 ID。
func (c *TwitterClient) PostTweet(ctx context.Context, text string) (*Tweet, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "推文内容不能为空")
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("序列化推文失败: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/2/tweets", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("构建推文请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.send(req)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Data Tweet `json:"data"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("解析推文响应失败: %w", err)
	}
	if decoded.Data.ID == "" {
		return nil, errors.New("推文响应缺少 ID")
	}
	return &decoded.Data, nil
}

// UserTweets 返回指定用户最近的推文。
func (c *TwitterClient) UserTweets(ctx context.Context, userID string, max int) ([]Tweet, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "用户 ID 不能为空")
	}
	if max <= 0 {
		max = 10
	}

	endpoint := fmt.Sprintf("%s/2/users/%s/tweets?max_results=%s",
		c.baseURL, userID, strconv.Itoa(max))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("构建时间线请求失败: %w", err)
	}

	body, err := c.send(req)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Data []Tweet `json:"data"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("解析时间线响应失败: %w", err)
	}
	return decoded.Data, nil
}

func (c *TwitterClient) send(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeToolFailure, err, "请求 Twitter 失败")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, xerrors.New(xerrors.CodeToolFailure,
			fmt.Sprintf("Twitter 返回错误状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	return io.ReadAll(resp.Body)
}
