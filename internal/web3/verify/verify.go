package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	xerrors "PersonaChain/internal/errors"
	"PersonaChain/pkg/logger"
)

// CodeVerifyTimeout 表示验证轮询在达到尝试上限前未得到终态。
const CodeVerifyTimeout xerrors.Code = "VERIFY_TIMEOUT"

func init() {
	xerrors.Register(CodeVerifyTimeout, xerrors.Attributes{
		Message:   "contract verification did not finish in time",
		Severity:  xerrors.SeverityWarning,
		Retryable: true,
		Alert:     false,
	})
}

// Config 描述 Etherscan 风格的合约验证服务。
type Config struct {
	APIURL         string
	APIKey         string
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Client 负责提交合约源码验证请求并轮询结果。
// 轮询有界：退避从 InitialBackoff 开始逐次翻倍，封顶 MaxBackoff，
// 至多 MaxAttempts 次后以 VERIFY_TIMEOUT 返回。
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient 创建验证客户端。
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIURL) == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "未配置验证服务地址")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 60
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 5 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Request 描述一次源码验证提交。
type Request struct {
	ContractAddress string
	SourceCode      string
	ContractName    string
	CompilerVersion string
	Optimization    bool
	Runs            int
	ConstructorArgs string
}

type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// Submit 提交验证请求，返回服务端的轮询 GUID。
func (c *Client) Submit(ctx context.Context, req Request) (string, error) {
	form := url.Values{}
	form.Set("module", "contract")
	form.Set("action", "verifysourcecode")
	form.Set("apikey", c.cfg.APIKey)
	form.Set("contractaddress", req.ContractAddress)
	form.Set("sourceCode", req.SourceCode)
	form.Set("codeformat", "solidity-single-file")
	form.Set("contractname", req.ContractName)
	form.Set("compilerversion", req.CompilerVersion)
	if req.Optimization {
		form.Set("optimizationUsed", "1")
		form.Set("runs", fmt.Sprintf("%d", req.Runs))
	} else {
		form.Set("optimizationUsed", "0")
	}
	if req.ConstructorArgs != "" {
		form.Set("constructorArguements", req.ConstructorArgs)
	}

	resp, err := c.call(ctx, form)
	if err != nil {
		return "", err
	}
	if resp.Status != "1" {
		return "", xerrors.New(xerrors.CodeChainFailure,
			fmt.Sprintf("验证提交被拒绝: %s", resp.Result))
	}
	return resp.Result, nil
}

// WaitForVerification 轮询验证结果直到终态或尝试耗尽。
func (c *Client) WaitForVerification(ctx context.Context, guid string) error {
	backoff := c.cfg.InitialBackoff
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		form := url.Values{}
		form.Set("module", "contract")
		form.Set("action", "checkverifystatus")
		form.Set("apikey", c.cfg.APIKey)
		form.Set("guid", guid)

		resp, err := c.call(ctx, form)
		if err != nil {
			return err
		}

		result := strings.TrimSpace(resp.Result)
		switch {
		case strings.Contains(result, "Pass - Verified"),
			strings.Contains(result, "Already Verified"):
			return nil
		case strings.Contains(result, "Pending in queue"),
			strings.Contains(result, "In progress"):
			logger.Named("verify").Debug("验证排队中",
				"guid", guid,
				"attempt", attempt,
			)
		default:
			return xerrors.New(xerrors.CodeChainFailure,
				fmt.Sprintf("合约验证失败: %s", result))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > c.cfg.MaxBackoff {
			backoff = c.cfg.MaxBackoff
		}
	}
	return xerrors.New(CodeVerifyTimeout, "",
		xerrors.WithMetadata("guid", guid),
		xerrors.WithMetadata("attempts", fmt.Sprintf("%d", c.cfg.MaxAttempts)),
	)
}

func (c *Client) call(ctx context.Context, form url.Values) (*apiResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("构建验证请求失败: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeChainFailure, err, "请求验证服务失败")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, xerrors.New(xerrors.CodeChainFailure,
			fmt.Sprintf("验证服务返回错误状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("解析验证响应失败: %w", err)
	}
	return &decoded, nil
}
