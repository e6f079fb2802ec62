package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	xerrors "PersonaChain/internal/errors"
)

// Config 描述 Pinata 风格固定服务的访问方式。
type Config struct {
	BaseURL string
	JWT     string
	Gateway string
	Timeout time.Duration
}

// Client 将内容固定到 IPFS 并返回 ipfs:// URI。
type Client struct {
	baseURL    string
	jwt        string
	gateway    string
	httpClient *http.Client
}

// NewClient 创建固定服务客户端。
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.JWT) == "" {
		return nil, errors.New("未提供固定服务凭据")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.pinata.cloud"
	}
	gateway := strings.TrimRight(strings.TrimSpace(cfg.Gateway), "/")
	if gateway == "" {
		gateway = "https://ipfs.io/ipfs"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		jwt:        cfg.JWT,
		gateway:    gateway,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// PinFile 固定一个文件并返回 ipfs:// URI。
func (c *Client) PinFile(ctx context.Context, name string, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("构建上传表单失败: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("写入上传内容失败: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("关闭上传表单失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/pinning/pinFileToIPFS", &body)
	if err != nil {
		return "", fmt.Errorf("构建固定请求失败: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.send(req)
}

// PinJSON 固定一段 JSON 并返回 ipfs:// URI。
func (c *Client) PinJSON(ctx context.Context, content any) (string, error) {
	payload, err := json.Marshal(map[string]any{"pinataContent": content})
	if err != nil {
		return "", fmt.Errorf("序列化固定内容失败: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/pinning/pinJSONToIPFS", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("构建固定请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req)
}

// GatewayURL 将 ipfs:// URI 转换为网关可访问的 HTTP 地址。
func (c *Client) GatewayURL(uri string) string {
	return c.gateway + "/" + strings.TrimPrefix(uri, "ipfs://")
}

func (c *Client) send(req *http.Request) (string, error) {
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeToolFailure, err, "请求固定服务失败")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", xerrors.New(xerrors.CodeToolFailure,
			fmt.Sprintf("固定服务返回错误状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var decoded pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("解析固定响应失败: %w", err)
	}
	if decoded.IpfsHash == "" {
		return "", errors.New("固定服务未返回内容哈希")
	}
	return "ipfs://" + decoded.IpfsHash, nil
}
