package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Config 描述了 PersonaChain 在启动阶段需要加载的核心配置。
type Config struct {
	Server   ServerConfig  `json:"server"`
	Storage  StorageConfig `json:"storage"`
	Queue    QueueConfig   `json:"queue"`
	LLM      LLMConfig     `json:"llm"`
	Web3     Web3Config    `json:"web3"`
	Personas PersonaConfig `json:"personas"`
	Notify   NotifyConfig  `json:"notify"`
	IPFS     IPFSConfig    `json:"ipfs"`
	Twitter  TwitterConfig `json:"twitter"`
	Chat     ChatConfig    `json:"chat"`
	Logging  LoggingConfig `json:"logging"`
	Runtime  RuntimeConfig `json:"runtime"`
}

// ServerConfig 控制 API 服务的监听地址等参数。
type ServerConfig struct {
	Address string `json:"address"`
}

// StorageConfig 统一描述消息日志、钱包与素材存储的后端选择。
type StorageConfig struct {
	ChatStore   ChatStoreConfig   `json:"chat_store"`
	WalletStore WalletStoreConfig `json:"wallet_store"`
	AssetStore  AssetStoreConfig  `json:"asset_store"`
}

// ChatStoreConfig 选择会话消息日志的驱动，支持 memory 与 mysql。
type ChatStoreConfig struct {
	Driver     string `json:"driver"`
	DSN        string `json:"dsn"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

// WalletStoreConfig 选择钱包记录的驱动，支持 memory 与 redis。
type WalletStoreConfig struct {
	Driver   string `json:"driver"`
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// AssetStoreConfig 选择生成素材（图片等）的驱动，支持 memory 与 fs。
type AssetStoreConfig struct {
	Driver  string `json:"driver"`
	Dir     string `json:"dir"`
	BaseURL string `json:"base_url"`
}

// QueueConfig 描述入站消息队列，支持 memory 与 rabbitmq。
type QueueConfig struct {
	Driver     string `json:"driver"`
	URL        string `json:"url"`
	Queue      string `json:"queue"`
	Prefetch   int    `json:"prefetch"`
	Workers    int    `json:"workers"`
	BufferSize int    `json:"buffer_size"`
}

// LLMConfig 用于配置大模型推理的调用方式。
type LLMConfig struct {
	BaseURL         string     `json:"base_url"`
	APIKeyEnv       string     `json:"api_key_env"`
	ChatModel       string     `json:"chat_model"`
	ClassifierModel string     `json:"classifier_model"`
	ImageModel      string     `json:"image_model"`
	TimeoutSeconds  int        `json:"timeout_seconds"`
	Grok            GrokConfig `json:"grok"`
}

// GrokConfig 描述实时信息检索所用的 xAI 接口，线上协议与
// Chat Completions 兼容，密钥缺省时相应工具不注册。
type GrokConfig struct {
	BaseURL   string `json:"base_url"`
	APIKeyEnv string `json:"api_key_env"`
	Model     string `json:"model"`
}

// Web3Config 指向链定义文件以及合约验证服务。
type Web3Config struct {
	ChainsPath   string       `json:"chains_path"`
	DefaultChain string       `json:"default_chain"`
	Verify       VerifyConfig `json:"verify"`
}

// VerifyConfig 描述合约源码验证服务（Etherscan 风格 API）。
type VerifyConfig struct {
	APIURL      string `json:"api_url"`
	APIKeyEnv   string `json:"api_key_env"`
	MaxAttempts int    `json:"max_attempts"`
}

// PersonaConfig 指向人格注册表文件。
type PersonaConfig struct {
	Path string `json:"path"`
}

// NotifyConfig 选择通知分发的驱动，支持 log、redis 与 webhook。
type NotifyConfig struct {
	Driver     string `json:"driver"`
	RedisAddr  string `json:"redis_addr"`
	WebhookURL string `json:"webhook_url"`
}

// IPFSConfig 描述 Pinata 风格的固定服务。
type IPFSConfig struct {
	BaseURL string `json:"base_url"`
	JWTEnv  string `json:"jwt_env"`
	Gateway string `json:"gateway"`
}

// TwitterConfig 描述社交发布所需的凭据来源。
type TwitterConfig struct {
	BearerEnv string `json:"bearer_env"`
	UserID    string `json:"user_id"`
}

// ChatConfig 控制编排器的运行参数。
type ChatConfig struct {
	MaxDepth   int  `json:"max_depth"`
	ToolRounds int  `json:"tool_rounds"`
	Chained    bool `json:"chained"`
}

// LoggingConfig 透传给 pkg/logger。
type LoggingConfig struct {
	Level        string   `json:"level"`
	Format       string   `json:"format"`
	Outputs      []string `json:"outputs"`
	AuditEnabled bool     `json:"audit_enabled"`
	AuditPath    string   `json:"audit_path"`
}

// RuntimeConfig 用于放置运行时的通用参数。
type RuntimeConfig struct {
	DataDir string `json:"data_dir"`
}

// Load 负责解析指定路径的 JSON 配置文件。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("配置文件路径为空")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开配置文件失败: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))

	return &cfg, nil
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}

	if c.Storage.ChatStore.Driver == "" {
		c.Storage.ChatStore.Driver = "memory"
	}
	if c.Storage.ChatStore.TTLSeconds <= 0 {
		c.Storage.ChatStore.TTLSeconds = 3600
	}
	if c.Storage.WalletStore.Driver == "" {
		c.Storage.WalletStore.Driver = "memory"
	}
	if c.Storage.AssetStore.Driver == "" {
		c.Storage.AssetStore.Driver = "memory"
	}
	if c.Storage.AssetStore.Dir == "" {
		c.Storage.AssetStore.Dir = filepath.Join(baseDir, "assets")
	} else if !filepath.IsAbs(c.Storage.AssetStore.Dir) {
		c.Storage.AssetStore.Dir = filepath.Join(baseDir, c.Storage.AssetStore.Dir)
	}

	if c.Queue.Driver == "" {
		c.Queue.Driver = "memory"
	}
	if c.Queue.Queue == "" {
		c.Queue.Queue = "personachain.inbound"
	}
	if c.Queue.Workers <= 0 {
		c.Queue.Workers = 4
	}
	if c.Queue.BufferSize <= 0 {
		c.Queue.BufferSize = 128
	}

	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = "PERSONACHAIN_LLM_API_KEY"
	}
	if c.LLM.ChatModel == "" {
		c.LLM.ChatModel = "gpt-4o"
	}
	if c.LLM.ClassifierModel == "" {
		c.LLM.ClassifierModel = c.LLM.ChatModel
	}
	if c.LLM.ImageModel == "" {
		c.LLM.ImageModel = "dall-e-3"
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = 60
	}
	if c.LLM.Grok.BaseURL == "" {
		c.LLM.Grok.BaseURL = "https://api.x.ai/v1"
	}
	if c.LLM.Grok.APIKeyEnv == "" {
		c.LLM.Grok.APIKeyEnv = "PERSONACHAIN_GROK_API_KEY"
	}
	if c.LLM.Grok.Model == "" {
		c.LLM.Grok.Model = "grok-2-latest"
	}

	if c.Web3.ChainsPath == "" {
		c.Web3.ChainsPath = filepath.Join(baseDir, "chains.yaml")
	} else if !filepath.IsAbs(c.Web3.ChainsPath) {
		c.Web3.ChainsPath = filepath.Join(baseDir, c.Web3.ChainsPath)
	}
	if c.Web3.DefaultChain == "" {
		c.Web3.DefaultChain = "base"
	}
	if c.Web3.Verify.APIKeyEnv == "" {
		c.Web3.Verify.APIKeyEnv = "PERSONACHAIN_SCAN_API_KEY"
	}
	if c.Web3.Verify.MaxAttempts <= 0 {
		c.Web3.Verify.MaxAttempts = 60
	}

	if c.Personas.Path == "" {
		c.Personas.Path = filepath.Join(baseDir, "personas.yaml")
	} else if !filepath.IsAbs(c.Personas.Path) {
		c.Personas.Path = filepath.Join(baseDir, c.Personas.Path)
	}

	if c.Notify.Driver == "" {
		c.Notify.Driver = "log"
	}

	if c.IPFS.BaseURL == "" {
		c.IPFS.BaseURL = "https://api.pinata.cloud"
	}
	if c.IPFS.JWTEnv == "" {
		c.IPFS.JWTEnv = "PERSONACHAIN_PINATA_JWT"
	}
	if c.IPFS.Gateway == "" {
		c.IPFS.Gateway = "https://ipfs.io/ipfs"
	}

	if c.Twitter.BearerEnv == "" {
		c.Twitter.BearerEnv = "PERSONACHAIN_TWITTER_BEARER"
	}

	if c.Chat.MaxDepth <= 0 {
		c.Chat.MaxDepth = 10
	}
	if c.Chat.ToolRounds <= 0 {
		c.Chat.ToolRounds = 4
	}

	if c.Runtime.DataDir == "" {
		c.Runtime.DataDir = filepath.Join(baseDir, "data")
	} else if !filepath.IsAbs(c.Runtime.DataDir) {
		c.Runtime.DataDir = filepath.Join(baseDir, c.Runtime.DataDir)
	}
}
