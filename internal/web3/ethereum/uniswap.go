package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	xerrors "PersonaChain/internal/errors"
	"PersonaChain/internal/web3"
)

const routerABI = `[
  {"inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"name":"amounts","type":"uint256[]"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactETHForTokens","outputs":[{"name":"amounts","type":"uint256[]"}],"stateMutability":"payable","type":"function"},
  {"inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactTokensForETH","outputs":[{"name":"amounts","type":"uint256[]"}],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"token","type":"address"},{"name":"amountTokenDesired","type":"uint256"},{"name":"amountTokenMin","type":"uint256"},{"name":"amountETHMin","type":"uint256"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"addLiquidityETH","outputs":[{"name":"amountToken","type":"uint256"},{"name":"amountETH","type":"uint256"},{"name":"liquidity","type":"uint256"}],"stateMutability":"payable","type":"function"}
]`

const factoryABI = `[
  {"inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"}],"name":"getPair","outputs":[{"name":"pair","type":"address"}],"stateMutability":"view","type":"function"}
]`

const pairABI = `[
  {"inputs":[],"name":"getReserves","outputs":[{"name":"reserve0","type":"uint112"},{"name":"reserve1","type":"uint112"},{"name":"blockTimestampLast","type":"uint32"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"token0","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

// BpsDenominator is the basis-point scale used for slippage math.
const BpsDenominator = 10000

var (
	dexABIOnce    sync.Once
	routerParsed  abi.ABI
	factoryParsed abi.ABI
	pairParsed    abi.ABI
	dexABIErr     error
)

func parsedDexABIs() error {
	dexABIOnce.Do(func() {
		if routerParsed, dexABIErr = abi.JSON(strings.NewReader(routerABI)); dexABIErr != nil {
			return
		}
		if factoryParsed, dexABIErr = abi.JSON(strings.NewReader(factoryABI)); dexABIErr != nil {
			return
		}
		pairParsed, dexABIErr = abi.JSON(strings.NewReader(pairABI))
	})
	return dexABIErr
}

// ApplySlippage reduces amount by the given basis points, rounding down.
func ApplySlippage(amount *big.Int, bps int64) *big.Int {
	out := new(big.Int).Mul(amount, big.NewInt(BpsDenominator-bps))
	return out.Div(out, big.NewInt(BpsDenominator))
}

func (c *Client) routerContract() (*bind.BoundContract, error) {
	if err := parsedDexABIs(); err != nil {
		return nil, fmt.Errorf("解析路由合约 ABI 失败: %w", err)
	}
	if (c.router == common.Address{}) {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "当前链未配置交易路由")
	}
	return bind.NewBoundContract(c.router, routerParsed, c.backend, c.backend, c.backend), nil
}

func swapDeadline() *big.Int {
	return big.NewInt(time.Now().Add(20 * time.Minute).Unix())
}

// QuoteOut asks the router how much output the path yields for amountIn.
func (c *Client) QuoteOut(ctx context.Context, amountIn *big.Int, path []common.Address) (*big.Int, error) {
	router, err := c.routerContract()
	if err != nil {
		return nil, err
	}
	var out []any
	if err := router.Call(&bind.CallOpts{Context: ctx}, &out, "getAmountsOut", amountIn, path); err != nil {
		return nil, fmt.Errorf("询价失败: %w", err)
	}
	amounts := abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)
	if len(*amounts) == 0 {
		return nil, fmt.Errorf("询价返回空结果")
	}
	return (*amounts)[len(*amounts)-1], nil
}

// SwapETHForTokens buys the token with native currency, bounding the output
// by the slippage tolerance in basis points.
func (c *Client) SwapETHForTokens(ctx context.Context, privHex string, token common.Address, amountInWei *big.Int, slippageBps int64) (web3.SwapResult, error) {
	router, err := c.routerContract()
	if err != nil {
		return web3.SwapResult{}, err
	}
	path := []common.Address{c.weth, token}
	quoted, err := c.QuoteOut(ctx, amountInWei, path)
	if err != nil {
		return web3.SwapResult{}, err
	}
	minOut := ApplySlippage(quoted, slippageBps)

	auth, err := c.TransactOpts(ctx, privHex)
	if err != nil {
		return web3.SwapResult{}, err
	}
	auth.Value = amountInWei
	tx, err := router.Transact(auth, "swapExactETHForTokens", minOut, path, auth.From, swapDeadline())
	if err != nil {
		return web3.SwapResult{}, fmt.Errorf("发送买入交易失败: %w", err)
	}
	return web3.SwapResult{TxHash: tx.Hash(), AmountIn: amountInWei, AmountOut: quoted}, nil
}

// SwapTokensForETH sells the token for native currency. The caller must have
// granted the router a sufficient allowance beforehand.
func (c *Client) SwapTokensForETH(ctx context.Context, privHex string, token common.Address, amountIn *big.Int, slippageBps int64) (web3.SwapResult, error) {
	router, err := c.routerContract()
	if err != nil {
		return web3.SwapResult{}, err
	}
	path := []common.Address{token, c.weth}
	quoted, err := c.QuoteOut(ctx, amountIn, path)
	if err != nil {
		return web3.SwapResult{}, err
	}
	minOut := ApplySlippage(quoted, slippageBps)

	auth, err := c.TransactOpts(ctx, privHex)
	if err != nil {
		return web3.SwapResult{}, err
	}
	tx, err := router.Transact(auth, "swapExactTokensForETH", amountIn, minOut, path, auth.From, swapDeadline())
	if err != nil {
		return web3.SwapResult{}, fmt.Errorf("发送卖出交易失败: %w", err)
	}
	return web3.SwapResult{TxHash: tx.Hash(), AmountIn: amountIn, AmountOut: quoted}, nil
}

// AddLiquidityETH seeds a token/WETH pool. Minimums are held at 99% of the
// desired amounts so the provision fails loudly instead of filling badly.
func (c *Client) AddLiquidityETH(ctx context.Context, privHex string, token common.Address, amountToken, amountETH *big.Int) (web3.PoolResult, error) {
	router, err := c.routerContract()
	if err != nil {
		return web3.PoolResult{}, err
	}
	auth, err := c.TransactOpts(ctx, privHex)
	if err != nil {
		return web3.PoolResult{}, err
	}
	auth.Value = amountETH

	minToken := ApplySlippage(amountToken, 100)
	minETH := ApplySlippage(amountETH, 100)
	tx, err := router.Transact(auth, "addLiquidityETH", token, amountToken, minToken, minETH, auth.From, swapDeadline())
	if err != nil {
		return web3.PoolResult{}, fmt.Errorf("发送建池交易失败: %w", err)
	}
	return web3.PoolResult{TxHash: tx.Hash()}, nil
}

// PairFor resolves the pool address of the token pair from the factory.
func (c *Client) PairFor(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	if err := parsedDexABIs(); err != nil {
		return common.Address{}, fmt.Errorf("解析工厂合约 ABI 失败: %w", err)
	}
	if (c.factory == common.Address{}) {
		return common.Address{}, xerrors.New(xerrors.CodeInvalidArgument, "当前链未配置交易工厂")
	}
	factory := bind.NewBoundContract(c.factory, factoryParsed, c.backend, c.backend, c.backend)
	var out []any
	if err := factory.Call(&bind.CallOpts{Context: ctx}, &out, "getPair", tokenA, tokenB); err != nil {
		return common.Address{}, fmt.Errorf("查询交易对失败: %w", err)
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// Reserves reads the pair reserves at the given historical block. A nil block
// number reads the latest state.
func (c *Client) Reserves(ctx context.Context, pair common.Address, blockNumber *big.Int) (web3.ReservePoint, error) {
	if err := parsedDexABIs(); err != nil {
		return web3.ReservePoint{}, fmt.Errorf("解析交易对 ABI 失败: %w", err)
	}
	contract := bind.NewBoundContract(pair, pairParsed, c.backend, c.backend, c.backend)
	var out []any
	opts := &bind.CallOpts{Context: ctx, BlockNumber: blockNumber}
	if err := contract.Call(opts, &out, "getReserves"); err != nil {
		return web3.ReservePoint{}, fmt.Errorf("查询储备失败: %w", err)
	}

	point := web3.ReservePoint{
		Reserve0:  abi.ConvertType(out[0], new(big.Int)).(*big.Int),
		Reserve1:  abi.ConvertType(out[1], new(big.Int)).(*big.Int),
		Timestamp: *abi.ConvertType(out[2], new(uint32)).(*uint32),
	}
	if blockNumber != nil {
		point.BlockNumber = blockNumber.Uint64()
	}
	return point, nil
}
