package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"PersonaChain/internal/api"
	"PersonaChain/internal/assets"
	"PersonaChain/internal/chat"
	"PersonaChain/internal/config"
	"PersonaChain/internal/ipfs"
	"PersonaChain/internal/llm"
	"PersonaChain/internal/llm/openai"
	"PersonaChain/internal/notify"
	"PersonaChain/internal/persona"
	"PersonaChain/internal/queue"
	"PersonaChain/internal/router"
	"PersonaChain/internal/social"
	"PersonaChain/internal/storage/mysql"
	"PersonaChain/internal/tool"
	"PersonaChain/internal/tools"
	"PersonaChain/internal/wallet"
	"PersonaChain/internal/web3/provider"
	"PersonaChain/internal/web3/verify"
	"PersonaChain/pkg/logger"
)

// main 是 PersonaChain 守护进程的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("personachaind 运行失败: %v", err)
	}
}

func run(ctx context.Context) error {
	configPath := os.Getenv("PERSONACHAIN_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("configs", "personachain.json")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Outputs: cfg.Logging.Outputs,
		Audit: logger.AuditConfig{
			Enabled: cfg.Logging.AuditEnabled,
			Path:    cfg.Logging.AuditPath,
		},
	}); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// 会话消息日志。
	var chatStore chat.Store
	switch cfg.Storage.ChatStore.Driver {
	case "", "memory":
		chatStore = chat.NewMemoryStore()
	case "mysql":
		store, err := mysql.NewMessageStore(ctx, mysql.Config{DSN: cfg.Storage.ChatStore.DSN})
		if err != nil {
			return err
		}
		chatStore = store
	default:
		return fmt.Errorf("未知的消息日志驱动: %s", cfg.Storage.ChatStore.Driver)
	}
	defer chatStore.Close()

	// 钱包记录。
	var walletStore wallet.Store
	switch cfg.Storage.WalletStore.Driver {
	case "", "memory":
		walletStore = wallet.NewMemoryStore()
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.WalletStore.Addr,
			Password: cfg.Storage.WalletStore.Password,
			DB:       cfg.Storage.WalletStore.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("连接钱包 Redis 失败: %w", err)
		}
		defer client.Close()
		walletStore = wallet.NewRedisStore(client)
	default:
		return fmt.Errorf("未知的钱包存储驱动: %s", cfg.Storage.WalletStore.Driver)
	}
	walletService := wallet.NewService(walletStore)

	// 生成素材存储。
	var assetStore assets.Store
	switch cfg.Storage.AssetStore.Driver {
	case "", "memory":
		assetStore = assets.NewMemoryStore(cfg.Storage.AssetStore.BaseURL)
	case "fs":
		store, err := assets.NewFSStore(cfg.Storage.AssetStore.Dir, cfg.Storage.AssetStore.BaseURL)
		if err != nil {
			return err
		}
		assetStore = store
	default:
		return fmt.Errorf("未知的素材存储驱动: %s", cfg.Storage.AssetStore.Driver)
	}
	defer assetStore.Close()

	// 入站消息队列。
	var inboundQueue queue.Queue
	switch cfg.Queue.Driver {
	case "", "memory":
		inboundQueue = queue.NewMemoryQueue(cfg.Queue.BufferSize)
	case "rabbitmq":
		q, err := queue.NewRabbitMQQueue(queue.RabbitMQConfig{
			URL:      cfg.Queue.URL,
			Queue:    cfg.Queue.Queue,
			Prefetch: cfg.Queue.Prefetch,
			Durable:  true,
		})
		if err != nil {
			return err
		}
		inboundQueue = q
	default:
		return fmt.Errorf("未知的队列驱动: %s", cfg.Queue.Driver)
	}
	defer inboundQueue.Close()

	// 大模型客户端。
	apiKey := strings.TrimSpace(os.Getenv(cfg.LLM.APIKeyEnv))
	if apiKey == "" {
		return fmt.Errorf("环境变量 %s 未设置", cfg.LLM.APIKeyEnv)
	}
	llmClient, err := openai.NewClient(openai.Config{
		APIKey:     apiKey,
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.ChatModel,
		ImageModel: cfg.LLM.ImageModel,
		Timeout:    time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return err
	}

	// Grok 实时信息检索，可选。接口与 Chat Completions 兼容，
	// 复用 openai 客户端并指向 xAI 的接入点。
	var grok llm.Client
	if grokKey := strings.TrimSpace(os.Getenv(cfg.LLM.Grok.APIKeyEnv)); grokKey != "" {
		client, err := openai.NewClient(openai.Config{
			APIKey:  grokKey,
			BaseURL: cfg.LLM.Grok.BaseURL,
			Model:   cfg.LLM.Grok.Model,
			Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return err
		}
		grok = client
	}

	// 链客户端注册表。
	chainRegistry, err := provider.NewRegistry(ctx, cfg.Web3)
	if err != nil {
		return err
	}
	defer chainRegistry.Close()
	resolver := func(name string) (tools.ChainClient, error) {
		if name == "" {
			return chainRegistry.DefaultClient()
		}
		client, ok := chainRegistry.Client(name)
		if !ok {
			return nil, fmt.Errorf("未知的链: %s", name)
		}
		return client, nil
	}

	// 合约源码验证，可选。
	var verifier tools.ContractVerifier
	if cfg.Web3.Verify.APIURL != "" {
		scanKey := strings.TrimSpace(os.Getenv(cfg.Web3.Verify.APIKeyEnv))
		if scanKey != "" {
			client, err := verify.NewClient(verify.Config{
				APIURL:      cfg.Web3.Verify.APIURL,
				APIKey:      scanKey,
				MaxAttempts: cfg.Web3.Verify.MaxAttempts,
			})
			if err != nil {
				return err
			}
			verifier = &verifierAdapter{client: client}
		} else {
			logger.L().Warn("验证服务凭据缺失，跳过合约源码验证", "env", cfg.Web3.Verify.APIKeyEnv)
		}
	}

	// 通知分发。
	var sink notify.Sink
	switch cfg.Notify.Driver {
	case "", "log":
		sink = notify.LogSink{}
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Notify.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("连接通知 Redis 失败: %w", err)
		}
		defer client.Close()
		sink = notify.NewRedisSink(client)
	case "webhook":
		webhook, err := notify.NewWebhookSink(cfg.Notify.WebhookURL)
		if err != nil {
			return err
		}
		sink = webhook
	default:
		return fmt.Errorf("未知的通知驱动: %s", cfg.Notify.Driver)
	}

	// IPFS 固定服务，可选。
	var pinner tools.Pinner
	if jwt := strings.TrimSpace(os.Getenv(cfg.IPFS.JWTEnv)); jwt != "" {
		client, err := ipfs.NewClient(ipfs.Config{
			BaseURL: cfg.IPFS.BaseURL,
			JWT:     jwt,
			Gateway: cfg.IPFS.Gateway,
		})
		if err != nil {
			return err
		}
		pinner = client
	}

	// Twitter，可选。
	var twitter tools.TwitterClient
	if bearer := strings.TrimSpace(os.Getenv(cfg.Twitter.BearerEnv)); bearer != "" {
		client, err := social.NewTwitterClient(social.TwitterConfig{Bearer: bearer})
		if err != nil {
			return err
		}
		twitter = client
	}

	// 人格注册表与工具。
	personas, err := persona.Load(cfg.Personas.Path)
	if err != nil {
		return err
	}

	toolRegistry := tool.NewRegistry()
	if err := tools.RegisterAll(toolRegistry, tools.Deps{
		Wallets:       walletService,
		Chains:        resolver,
		Sink:          sink,
		Pinner:        pinner,
		Assets:        assetStore,
		Twitter:       twitter,
		Images:        llmClient,
		Verifier:      verifier,
		Grok:          grok,
		ImageModel:    cfg.LLM.ImageModel,
		TwitterUserID: cfg.Twitter.UserID,
		PrimaryChain:  cfg.Web3.DefaultChain,
		GrokModel:     cfg.LLM.Grok.Model,
	}); err != nil {
		return err
	}
	engine := tool.NewEngine(toolRegistry, sink)

	personaRouter := router.New(llmClient, personas,
		router.WithModel(cfg.LLM.ClassifierModel))

	orchestrator := chat.NewOrchestrator(
		chatStore, personas, personaRouter, llmClient, engine, toolRegistry, walletService, sink,
		chat.WithChatModel(cfg.LLM.ChatModel),
		chat.WithMaxDepth(cfg.Chat.MaxDepth),
		chat.WithToolRounds(cfg.Chat.ToolRounds),
		chat.WithChained(cfg.Chat.Chained),
		chat.WithTTL(time.Duration(cfg.Storage.ChatStore.TTLSeconds)*time.Second),
	)

	consumerCtx, cancelConsumer := context.WithCancel(ctx)
	defer cancelConsumer()
	go func() {
		err := inboundQueue.Consume(consumerCtx, cfg.Queue.Workers, func(ctx context.Context, inbound chat.Inbound) error {
			return orchestrator.HandleInbound(ctx, inbound)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.L().Error("消息消费端异常退出", "error", err)
		}
	}()

	server := api.NewServer(cfg.Server.Address, inboundQueue, chatStore)
	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// verifierAdapter 将验证客户端适配到工具层接口。
type verifierAdapter struct {
	client *verify.Client
}

func (a *verifierAdapter) Submit(ctx context.Context, req tools.VerifyRequest) (string, error) {
	return a.client.Submit(ctx, verify.Request{
		ContractAddress: req.ContractAddress,
		SourceCode:      req.SourceCode,
		ContractName:    req.ContractName,
		CompilerVersion: req.CompilerVersion,
		Optimization:    req.Optimization,
		Runs:            req.Runs,
		ConstructorArgs: req.ConstructorArgs,
	})
}

func (a *verifierAdapter) WaitForVerification(ctx context.Context, guid string) error {
	return a.client.WaitForVerification(ctx, guid)
}
