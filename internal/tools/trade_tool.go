package tools

import (
	"context"
	"fmt"
	"strings"

	xerrors "PersonaChain/internal/errors"
	"PersonaChain/internal/llm"
	"PersonaChain/internal/notify"
	"PersonaChain/internal/tool"
)

// ExecuteTradeTool 在路由合约上执行买入或卖出。余额在签名前检查，
// 不足时返回结构化错误且不会提交任何交易。卖出方向在授权额度不足时
// 先补授权并等待确认。
type ExecuteTradeTool struct {
	wallets WalletService
	chains  ChainResolver
	sink    notify.Sink
}

func NewExecuteTradeTool(wallets WalletService, chains ChainResolver, sink notify.Sink) *ExecuteTradeTool {
	return &ExecuteTradeTool{wallets: wallets, chains: chains, sink: notify.BestEffort(sink)}
}

func (t *ExecuteTradeTool) Name() string { return "execute_trade" }

func (t *ExecuteTradeTool) Spec() llm.ToolSpec {
	return spec("execute_trade",
		"Buy a token with ETH or sell a token for ETH on the configured router. Checks balances before submitting and waits for confirmations.",
		`{"type":"object","properties":{"side":{"type":"string","enum":["buy","sell"]},"token":{"type":"string","description":"token contract address"},"amount":{"type":"string","description":"ETH amount when buying, token amount when selling"},"slippage_bps":{"type":"integer","description":"slippage tolerance in basis points, defaults to 50"},"chain":{"type":"string"}},"required":["side","token","amount"]}`)
}

func (t *ExecuteTradeTool) Invoke(ctx context.Context, input tool.Input) (any, error) {
	var args struct {
		Side        string `json:"side"`
		Token       string `json:"token"`
		Amount      string `json:"amount"`
		SlippageBps int64  `json:"slippage_bps"`
		Chain       string `json:"chain"`
	}
	if err := decodeArgs(input.Args, &args); err != nil {
		return nil, err
	}
	token, err := parseAddress(args.Token, "token")
	if err != nil {
		return nil, err
	}
	slippage := args.SlippageBps
	if slippage <= 0 {
		slippage = defaultSlippageBps
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

	switch strings.ToLower(strings.TrimSpace(args.Side)) {
	case "buy":
		amountIn, err := parseEther(args.Amount)
		if err != nil {
			return nil, err
		}
		balance, err := client.BalanceAt(ctx, holder)
		if err != nil {
			return nil, err
		}
		if balance.Cmp(amountIn) < 0 {
			return nil, insufficientFunds(balance, amountIn)
		}

		swap, err := client.SwapETHForTokens(ctx, record.PrivateKey, token, amountIn, slippage)
		if err != nil {
			return nil, err
		}
		_ = t.sink.GodEvent(ctx, input.SessionID, notify.NewEvent(input.Owner, input.Persona,
			"trade_submitted", map[string]string{
				"side":    "buy",
				"token":   args.Token,
				"tx_hash": swap.TxHash.Hex(),
			}))
		if _, err := client.WaitForReceipt(ctx, swap.TxHash, fundedConfirmations); err != nil {
			return nil, err
		}
		_ = t.sink.GodEvent(ctx, input.SessionID, notify.NewEvent(input.Owner, input.Persona,
			"trade_confirmed", map[string]string{
				"side":    "buy",
				"token":   args.Token,
				"tx_hash": swap.TxHash.Hex(),
			}))
		return map[string]any{
			"side":              "buy",
			"token":             args.Token,
			"tx_hash":           swap.TxHash.Hex(),
			"amount_in_wei":     swap.AmountIn.String(),
			"quoted_out":        swap.AmountOut.String(),
			"slippage_bps":      slippage,
			"confirmed":         true,
			"confirmations":     fundedConfirmations,
			"wallet":            record.Address,
			"chain":             client.Name(),
			"amount_in_display": args.Amount,
		}, nil

	case "sell":
		tokenBalance, err := client.TokenBalance(ctx, token, holder)
		if err != nil {
			return nil, err
		}
		amountIn, err := parseUnits(args.Amount, tokenBalance.Decimals)
		if err != nil {
			return nil, err
		}
		if tokenBalance.Raw.Cmp(amountIn) < 0 {
			return nil, insufficientTokens(tokenBalance.Raw, amountIn, tokenBalance.Symbol)
		}

		allowance, err := client.Allowance(ctx, token, holder, client.Router())
		if err != nil {
			return nil, err
		}
		if allowance.Cmp(amountIn) < 0 {
			approveTx, err := client.Approve(ctx, record.PrivateKey, token, client.Router(), amountIn)
			if err != nil {
				return nil, err
			}
			if _, err := client.WaitForReceipt(ctx, approveTx, approveConfirmations); err != nil {
				return nil, err
			}
		}

		swap, err := client.SwapTokensForETH(ctx, record.PrivateKey, token, amountIn, slippage)
		if err != nil {
			return nil, err
		}
		_ = t.sink.GodEvent(ctx, input.SessionID, notify.NewEvent(input.Owner, input.Persona,
			"trade_submitted", map[string]string{
				"side":    "sell",
				"token":   args.Token,
				"tx_hash": swap.TxHash.Hex(),
			}))
		if _, err := client.WaitForReceipt(ctx, swap.TxHash, fundedConfirmations); err != nil {
			return nil, err
		}
		_ = t.sink.GodEvent(ctx, input.SessionID, notify.NewEvent(input.Owner, input.Persona,
			"trade_confirmed", map[string]string{
				"side":    "sell",
				"token":   args.Token,
				"tx_hash": swap.TxHash.Hex(),
			}))
		return map[string]any{
			"side":          "sell",
			"token":         args.Token,
			"symbol":        tokenBalance.Symbol,
			"tx_hash":       swap.TxHash.Hex(),
			"amount_in":     swap.AmountIn.String(),
			"quoted_out":    swap.AmountOut.String(),
			"slippage_bps":  slippage,
			"confirmed":     true,
			"confirmations": fundedConfirmations,
			"chain":         client.Name(),
		}, nil

	default:
		return nil, xerrors.New(xerrors.CodeInvalidArgument,
			fmt.Sprintf("不支持的交易方向 %q", args.Side))
	}
}
