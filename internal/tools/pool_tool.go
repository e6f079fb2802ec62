package tools

import (
	"context"

	"PersonaChain/internal/llm"
	"PersonaChain/internal/notify"
	"PersonaChain/internal/tool"
)

// CreatePoolTool 为代币和原生币建立流动性池。授权只在额度不足时补发，
// 最小成交量由链客户端固定在期望值的 99%。
type CreatePoolTool struct {
	wallets WalletService
	chains  ChainResolver
	sink    notify.Sink
}

func NewCreatePoolTool(wallets WalletService, chains ChainResolver, sink notify.Sink) *CreatePoolTool {
	return &CreatePoolTool{wallets: wallets, chains: chains, sink: notify.BestEffort(sink)}
}

func (t *CreatePoolTool) Name() string { return "create_pool" }

func (t *CreatePoolTool) Spec() llm.ToolSpec {
	return spec("create_pool",
		"Seed a liquidity pool pairing an ERC-20 token with ETH. Approves the router only when the current allowance is short.",
		`{"type":"object","properties":{"token":{"type":"string","description":"token contract address"},"token_amount":{"type":"string","description":"token amount, decimal string"},"eth_amount":{"type":"string","description":"ETH amount, decimal string"},"chain":{"type":"string"}},"required":["token","token_amount","eth_amount"]}`)
}

func (t *CreatePoolTool) Invoke(ctx context.Context, input tool.Input) (any, error) {
	var args struct {
		Token       string `json:"token"`
		TokenAmount string `json:"token_amount"`
		ETHAmount   string `json:"eth_amount"`
		Chain       string `json:"chain"`
	}
	if err := decodeArgs(input.Args, &args); err != nil {
		return nil, err
	}
	token, err := parseAddress(args.Token, "token")
	if err != nil {
		return nil, err
	}
	ethAmount, err := parseEther(args.ETHAmount)
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

	tokenBalance, err := client.TokenBalance(ctx, token, holder)
	if err != nil {
		return nil, err
	}
	tokenAmount, err := parseUnits(args.TokenAmount, tokenBalance.Decimals)
	if err != nil {
		return nil, err
	}
	if tokenBalance.Raw.Cmp(tokenAmount) < 0 {
		return nil, insufficientTokens(tokenBalance.Raw, tokenAmount, tokenBalance.Symbol)
	}
	nativeBalance, err := client.BalanceAt(ctx, holder)
	if err != nil {
		return nil, err
	}
	if nativeBalance.Cmp(ethAmount) < 0 {
		return nil, insufficientFunds(nativeBalance, ethAmount)
	}

	allowance, err := client.Allowance(ctx, token, holder, client.Router())
	if err != nil {
		return nil, err
	}
	if allowance.Cmp(tokenAmount) < 0 {
		approveTx, err := client.Approve(ctx, record.PrivateKey, token, client.Router(), tokenAmount)
		if err != nil {
			return nil, err
		}
		if _, err := client.WaitForReceipt(ctx, approveTx, approveConfirmations); err != nil {
			return nil, err
		}
	}

	result, err := client.AddLiquidityETH(ctx, record.PrivateKey, token, tokenAmount, ethAmount)
	if err != nil {
		return nil, err
	}
	if _, err := client.WaitForReceipt(ctx, result.TxHash, fundedConfirmations); err != nil {
		return nil, err
	}

	pair, err := client.PairFor(ctx, token, client.WETH())
	if err != nil {
		return nil, err
	}
	_ = t.sink.GodEvent(ctx, input.SessionID, notify.NewEvent(input.Owner, input.Persona,
		"pool_created", map[string]string{
			"token":   args.Token,
			"pair":    pair.Hex(),
			"tx_hash": result.TxHash.Hex(),
		}))

	return map[string]any{
		"tx_hash":      result.TxHash.Hex(),
		"pair_address": pair.Hex(),
		"token":        args.Token,
		"symbol":       tokenBalance.Symbol,
		"token_amount": args.TokenAmount,
		"eth_amount":   args.ETHAmount,
		"chain":        client.Name(),
	}, nil
}
