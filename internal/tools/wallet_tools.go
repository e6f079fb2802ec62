package tools

import (
	"context"
	"math/big"
	"strings"
	"time"

	"PersonaChain/internal/llm"
	"PersonaChain/internal/notify"
	"PersonaChain/internal/tool"
)

// defaultFundsRequestWei 是 request_funds 未指定金额时的默认请求额，0.001 ETH。
var defaultFundsRequestWei = big.NewInt(1_000_000_000_000_000)

// defaultFundsRequestWait 是资金请求事件发出后的固定成熟等待。
const defaultFundsRequestWait = 3 * time.Second

// CreateWalletTool 幂等地为当前人格创建钱包。
type CreateWalletTool struct {
	wallets WalletService
	sink    notify.Sink
}

func NewCreateWalletTool(wallets WalletService, sink notify.Sink) *CreateWalletTool {
	return &CreateWalletTool{wallets: wallets, sink: notify.BestEffort(sink)}
}

func (t *CreateWalletTool) Name() string { return "create_wallet" }

func (t *CreateWalletTool) Spec() llm.ToolSpec {
	return spec("create_wallet",
		"Create an onchain wallet for this character. Safe to call repeatedly, the same wallet is returned.",
		`{"type":"object","properties":{}}`)
}

func (t *CreateWalletTool) Invoke(ctx context.Context, input tool.Input) (any, error) {
	record, created, err := t.wallets.EnsureWallet(ctx, input.Owner, input.Persona)
	if err != nil {
		return nil, err
	}
	if created {
		_ = t.sink.GodEvent(ctx, input.SessionID, notify.NewEvent(input.Owner, input.Persona,
			"wallet_created", map[string]string{"address": record.Address}))
	}
	return map[string]any{
		"address": record.Address,
		"created": created,
	}, nil
}

// GetWalletTool 查询当前人格的钱包信息。
type GetWalletTool struct {
	wallets WalletService
}

func NewGetWalletTool(wallets WalletService) *GetWalletTool {
	return &GetWalletTool{wallets: wallets}
}

func (t *GetWalletTool) Name() string { return "get_wallet" }

func (t *GetWalletTool) Spec() llm.ToolSpec {
	return spec("get_wallet",
		"Look up this character's wallet address and registered basename.",
		`{"type":"object","properties":{}}`)
}

func (t *GetWalletTool) Invoke(ctx context.Context, input tool.Input) (any, error) {
	record, err := t.wallets.Get(ctx, input.Owner, input.Persona)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"address":   record.Address,
		"base_name": record.BaseName,
	}, nil
}

// GetETHBalanceTool 查询人格钱包的原生币余额。
type GetETHBalanceTool struct {
	wallets WalletService
	chains  ChainResolver
}

func NewGetETHBalanceTool(wallets WalletService, chains ChainResolver) *GetETHBalanceTool {
	return &GetETHBalanceTool{wallets: wallets, chains: chains}
}

func (t *GetETHBalanceTool) Name() string { return "get_eth_balance" }

func (t *GetETHBalanceTool) Spec() llm.ToolSpec {
	return spec("get_eth_balance",
		"Read this character's native ETH balance.",
		`{"type":"object","properties":{"chain":{"type":"string","description":"chain name, defaults to the primary chain"}}}`)
}

func (t *GetETHBalanceTool) Invoke(ctx context.Context, input tool.Input) (any, error) {
	var args struct {
		Chain string `json:"chain"`
	}
	if err := decodeArgs(input.Args, &args); err != nil {
		return nil, err
	}
	record, err := t.wallets.Get(ctx, input.Owner, input.Persona)
	if err != nil {
		return nil, err
	}
	client, err := t.chains(args.Chain)
	if err != nil {
		return nil, err
	}
	address, err := parseAddress(record.Address, "钱包地址")
	if err != nil {
		return nil, err
	}
	balance, err := client.BalanceAt(ctx, address)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"address":     record.Address,
		"chain":       client.Name(),
		"balance_wei": balance.String(),
		"balance_eth": formatUnits(balance, 18),
	}, nil
}

// GetTokenBalanceTool 查询人格钱包的 ERC-20 余额。
type GetTokenBalanceTool struct {
	wallets WalletService
	chains  ChainResolver
}

func NewGetTokenBalanceTool(wallets WalletService, chains ChainResolver) *GetTokenBalanceTool {
	return &GetTokenBalanceTool{wallets: wallets, chains: chains}
}

func (t *GetTokenBalanceTool) Name() string { return "get_token_balance" }

func (t *GetTokenBalanceTool) Spec() llm.ToolSpec {
	return spec("get_token_balance",
		"Read this character's balance of an ERC-20 token.",
		`{"type":"object","properties":{"token":{"type":"string","description":"token contract address"},"chain":{"type":"string"}},"required":["token"]}`)
}

func (t *GetTokenBalanceTool) Invoke(ctx context.Context, input tool.Input) (any, error) {
	var args struct {
		Token string `json:"token"`
		Chain string `json:"chain"`
	}
	if err := decodeArgs(input.Args, &args); err != nil {
		return nil, err
	}
	token, err := parseAddress(args.Token, "token")
	if err != nil {
		return nil, err
	}
	record, err := t.wallets.Get(ctx, input.Owner, input.Persona)
	if err != nil {
		return nil, err
	}
	client, err := t.chains(args.Chain)
	if err != nil {
		return nil, err
	}
	holder, err := parseAddress(record.Address, "钱包地址")
	if err != nil {
		return nil, err
	}
	balance, err := client.TokenBalance(ctx, token, holder)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"token":    args.Token,
		"symbol":   balance.Symbol,
		"decimals": balance.Decimals,
		"raw":      balance.Raw.String(),
		"balance":  formatUnits(balance.Raw, balance.Decimals),
	}, nil
}

// TransferETHTool 从人格钱包向外转出原生币。余额预检由链客户端完成，
// 不足时返回结构化错误且不会广播交易。
type TransferETHTool struct {
	wallets WalletService
	chains  ChainResolver
	sink    notify.Sink
}

func NewTransferETHTool(wallets WalletService, chains ChainResolver, sink notify.Sink) *TransferETHTool {
	return &TransferETHTool{wallets: wallets, chains: chains, sink: notify.BestEffort(sink)}
}

func (t *TransferETHTool) Name() string { return "transfer_eth" }

func (t *TransferETHTool) Spec() llm.ToolSpec {
	return spec("transfer_eth",
		"Send native ETH from this character's wallet to another address. Fails without submitting when the balance cannot cover amount plus gas.",
		`{"type":"object","properties":{"to":{"type":"string","description":"recipient address"},"amount_eth":{"type":"string","description":"amount in ETH, decimal string"},"chain":{"type":"string"}},"required":["to","amount_eth"]}`)
}

func (t *TransferETHTool) Invoke(ctx context.Context, input tool.Input) (any, error) {
	var args struct {
		To        string `json:"to"`
		AmountETH string `json:"amount_eth"`
		Chain     string `json:"chain"`
	}
	if err := decodeArgs(input.Args, &args); err != nil {
		return nil, err
	}
	to, err := parseAddress(args.To, "to")
	if err != nil {
		return nil, err
	}
	amount, err := parseEther(args.AmountETH)
	if err != nil {
		return nil, err
	}
	record, err := t.wallets.Get(ctx, input.Owner, input.Persona)
	if err != nil {
		return nil, err
	}
	client, err := t.chains(args.Chain)
	if err != nil {
		return nil, err
	}

	txHash, err := client.TransferETH(ctx, record.PrivateKey, to, amount)
	if err != nil {
		return nil, err
	}
	_ = t.sink.GodEvent(ctx, input.SessionID, notify.NewEvent(input.Owner, input.Persona,
		"transfer_submitted", map[string]string{
			"tx_hash":    txHash.Hex(),
			"to":         args.To,
			"amount_wei": amount.String(),
		}))

	if _, err := client.WaitForReceipt(ctx, txHash, fundedConfirmations); err != nil {
		return nil, err
	}
	return map[string]any{
		"tx_hash":    txHash.Hex(),
		"to":         args.To,
		"amount_eth": args.AmountETH,
		"confirmed":  true,
	}, nil
}

// TransferTokenTool 从人格钱包向外转出 ERC-20 代币。
type TransferTokenTool struct {
	wallets WalletService
	chains  ChainResolver
	sink    notify.Sink
}

func NewTransferTokenTool(wallets WalletService, chains ChainResolver, sink notify.Sink) *TransferTokenTool {
	return &TransferTokenTool{wallets: wallets, chains: chains, sink: notify.BestEffort(sink)}
}

func (t *TransferTokenTool) Name() string { return "transfer_token" }

func (t *TransferTokenTool) Spec() llm.ToolSpec {
	return spec("transfer_token",
		"Send an ERC-20 token from this character's wallet to another address.",
		`{"type":"object","properties":{"token":{"type":"string"},"to":{"type":"string"},"amount":{"type":"string","description":"token amount, decimal string"},"chain":{"type":"string"}},"required":["token","to","amount"]}`)
}

func (t *TransferTokenTool) Invoke(ctx context.Context, input tool.Input) (any, error) {
	var args struct {
		Token  string `json:"token"`
		To     string `json:"to"`
		Amount string `json:"amount"`
		Chain  string `json:"chain"`
	}
	if err := decodeArgs(input.Args, &args); err != nil {
		return nil, err
	}
	token, err := parseAddress(args.Token, "token")
	if err != nil {
		return nil, err
	}
	to, err := parseAddress(args.To, "to")
	if err != nil {
		return nil, err
	}
	record, err := t.wallets.Get(ctx, input.Owner, input.Persona)
	if err != nil {
		return nil, err
	}
	client, err := t.chains(args.Chain)
	if err != nil {
		return nil, err
	}
	holder, err := parseAddress(record.Address, "钱包地址")
	if err != nil {
		return nil, err
	}

	balance, err := client.TokenBalance(ctx, token, holder)
	if err != nil {
		return nil, err
	}
	amount, err := parseUnits(args.Amount, balance.Decimals)
	if err != nil {
		return nil, err
	}
	if balance.Raw.Cmp(amount) < 0 {
		return nil, insufficientTokens(balance.Raw, amount, balance.Symbol)
	}

	txHash, err := client.TransferToken(ctx, record.PrivateKey, token, to, amount)
	if err != nil {
		return nil, err
	}
	_ = t.sink.GodEvent(ctx, input.SessionID, notify.NewEvent(input.Owner, input.Persona,
		"transfer_submitted", map[string]string{
			"tx_hash": txHash.Hex(),
			"token":   args.Token,
			"to":      args.To,
			"amount":  amount.String(),
		}))

	if _, err := client.WaitForReceipt(ctx, txHash, fundedConfirmations); err != nil {
		return nil, err
	}
	return map[string]any{
		"tx_hash":   txHash.Hex(),
		"token":     args.Token,
		"to":        args.To,
		"amount":    args.Amount,
		"symbol":    balance.Symbol,
		"confirmed": true,
	}, nil
}

// RequestFundsTool 不移动任何资金，只记录一条资金请求事件并在固定的
// 成熟等待后返回一份交易请求负载，由外部钱包客户端决定是否执行。
type RequestFundsTool struct {
	wallets WalletService
	sink    notify.Sink
	wait    time.Duration
}

func NewRequestFundsTool(wallets WalletService, sink notify.Sink) *RequestFundsTool {
	return &RequestFundsTool{
		wallets: wallets,
		sink:    notify.BestEffort(sink),
		wait:    defaultFundsRequestWait,
	}
}

func (t *RequestFundsTool) Name() string { return "request_funds" }

func (t *RequestFundsTool) Spec() llm.ToolSpec {
	return spec("request_funds",
		"Ask the viewer's connected wallet to send funds to this character. Produces a transaction request, it does not move funds by itself.",
		`{"type":"object","properties":{"amount_eth":{"type":"string","description":"requested amount in ETH, defaults to 0.001"},"reason":{"type":"string"}}}`)
}

func (t *RequestFundsTool) Invoke(ctx context.Context, input tool.Input) (any, error) {
	var args struct {
		AmountETH string `json:"amount_eth"`
		Reason    string `json:"reason"`
	}
	if err := decodeArgs(input.Args, &args); err != nil {
		return nil, err
	}

	amount := new(big.Int).Set(defaultFundsRequestWei)
	if strings.TrimSpace(args.AmountETH) != "" {
		parsed, err := parseEther(args.AmountETH)
		if err != nil {
			return nil, err
		}
		amount = parsed
	}

	record, _, err := t.wallets.EnsureWallet(ctx, input.Owner, input.Persona)
	if err != nil {
		return nil, err
	}

	_ = t.sink.GodEvent(ctx, input.SessionID, notify.NewEvent(input.Owner, input.Persona,
		"funds_requested", map[string]string{
			"to":         record.Address,
			"amount_wei": amount.String(),
			"reason":     args.Reason,
		}))

	// 固定的成熟等待，给前端留出展示请求的时间窗口。
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(t.wait):
	}

	return map[string]any{
		"type":       "transaction_request",
		"to":         record.Address,
		"amount_wei": amount.String(),
		"amount_eth": formatUnits(amount, 18),
		"reason":     args.Reason,
	}, nil
}
