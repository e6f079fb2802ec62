// Package tools 实现各人格可调用的工具。每个工具要么返回可序列化的
// 成功负载，要么返回结构化错误，绝不让异常逃逸到调度引擎之外。
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"

	xerrors "PersonaChain/internal/errors"
	"PersonaChain/internal/llm"
	"PersonaChain/internal/wallet"
	"PersonaChain/internal/web3"
)

// 链上确认策略：资金类交易等两个确认，授权类交易等一个。
const (
	fundedConfirmations  = 2
	approveConfirmations = 1
)

// defaultSlippageBps 是交易的默认滑点容忍度，0.5%。
const defaultSlippageBps = 50

// ChainClient 是工具层依赖的链操作面，由 EVM 客户端实现。
type ChainClient interface {
	Name() string
	WETH() common.Address
	Router() common.Address
	BalanceAt(ctx context.Context, address common.Address) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	TokenBalance(ctx context.Context, token, holder common.Address) (*web3.TokenBalance, error)
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, privHex string, token, spender common.Address, amount *big.Int) (common.Hash, error)
	TransferETH(ctx context.Context, privHex string, to common.Address, amountWei *big.Int) (common.Hash, error)
	TransferToken(ctx context.Context, privHex string, token, to common.Address, amount *big.Int) (common.Hash, error)
	SwapETHForTokens(ctx context.Context, privHex string, token common.Address, amountInWei *big.Int, slippageBps int64) (web3.SwapResult, error)
	SwapTokensForETH(ctx context.Context, privHex string, token common.Address, amountIn *big.Int, slippageBps int64) (web3.SwapResult, error)
	AddLiquidityETH(ctx context.Context, privHex string, token common.Address, amountToken, amountETH *big.Int) (web3.PoolResult, error)
	PairFor(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error)
	Reserves(ctx context.Context, pair common.Address, blockNumber *big.Int) (web3.ReservePoint, error)
	DeployERC20(ctx context.Context, privHex, name, symbol string, initialSupply *big.Int) (web3.DeploymentResult, error)
	DeployERC721(ctx context.Context, privHex, name, symbol string) (web3.DeploymentResult, error)
	MintNFT(ctx context.Context, privHex string, contract, to common.Address, tokenURI string) (common.Hash, error)
	RenounceOwnership(ctx context.Context, privHex string, token common.Address) (common.Hash, error)
	BaseNameAvailable(ctx context.Context, name string) (bool, error)
	RegisterBaseName(ctx context.Context, privHex, name string, owner common.Address) (common.Hash, error)
	WaitForReceipt(ctx context.Context, txHash common.Hash, confirmations uint64) (*coretypes.Receipt, error)
}

// ChainResolver 按名字解析链客户端，空名字解析到默认链。
type ChainResolver func(name string) (ChainClient, error)

// WalletService 是工具层依赖的钱包操作面。
type WalletService interface {
	EnsureWallet(ctx context.Context, owner, personaID string) (wallet.Record, bool, error)
	Get(ctx context.Context, owner, personaID string) (*wallet.Record, error)
	SetBaseName(ctx context.Context, owner, personaID, baseName string) error
}

// Pinner 将内容固定到内容寻址存储并返回 ipfs:// URI。
type Pinner interface {
	PinFile(ctx context.Context, name string, data []byte) (string, error)
	PinJSON(ctx context.Context, content any) (string, error)
	GatewayURL(uri string) string
}

// ContractVerifier 提交合约源码验证并等待结果。
type ContractVerifier interface {
	Submit(ctx context.Context, req VerifyRequest) (string, error)
	WaitForVerification(ctx context.Context, guid string) error
}

// VerifyRequest 描述一次源码验证提交。
type VerifyRequest struct {
	ContractAddress string
	SourceCode      string
	ContractName    string
	CompilerVersion string
	Optimization    bool
	Runs            int
	ConstructorArgs string
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return xerrors.Wrap(xerrors.CodeInvalidArgument, err, "工具参数解析失败")
	}
	return nil
}

func spec(name, description, parameters string) llm.ToolSpec {
	return llm.ToolSpec{
		Name:        name,
		Description: description,
		Parameters:  json.RawMessage(parameters),
	}
}

// parseUnits 将十进制金额字符串换算成最小单位整数，超出精度的尾数截断。
func parseUnits(amount string, decimals uint8) (*big.Int, error) {
	rat, ok := new(big.Rat).SetString(strings.TrimSpace(amount))
	if !ok {
		return nil, xerrors.New(xerrors.CodeInvalidArgument,
			fmt.Sprintf("无法解析金额 %q", amount))
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	rat.Mul(rat, new(big.Rat).SetInt(scale))
	out := new(big.Int).Quo(rat.Num(), rat.Denom())
	if out.Sign() <= 0 {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "金额必须为正数")
	}
	return out, nil
}

func parseEther(amount string) (*big.Int, error) {
	return parseUnits(amount, 18)
}

// formatUnits 将最小单位整数换算回十进制字符串，末尾多余的零被去掉。
func formatUnits(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	rat := new(big.Rat).SetFrac(raw, scale)
	formatted := rat.FloatString(int(decimals))
	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(formatted, "0")
		formatted = strings.TrimSuffix(formatted, ".")
	}
	return formatted
}

// insufficientFunds 构造余额不足的结构化错误，调用方保证此时没有交易被广播。
func insufficientFunds(balance, required *big.Int) error {
	return xerrors.New(xerrors.CodeInvalidArgument, "余额不足以完成本次操作",
		xerrors.WithMetadata("balance", balance.String()),
		xerrors.WithMetadata("required", required.String()),
	)
}

func insufficientTokens(balance, required *big.Int, symbol string) error {
	return xerrors.New(xerrors.CodeInvalidArgument, "代币余额不足以完成本次操作",
		xerrors.WithMetadata("balance", balance.String()),
		xerrors.WithMetadata("required", required.String()),
		xerrors.WithMetadata("symbol", symbol),
	)
}

func parseAddress(raw, field string) (common.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, xerrors.New(xerrors.CodeInvalidArgument,
			fmt.Sprintf("%s 不是合法的地址: %q", field, raw))
	}
	return common.HexToAddress(trimmed), nil
}
