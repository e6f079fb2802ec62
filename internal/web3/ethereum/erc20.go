package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"PersonaChain/internal/web3"
)

const erc20ABI = `[
  {"inputs":[{"name":"name_","type":"string"},{"name":"symbol_","type":"string"},{"name":"initialSupply","type":"uint256"}],"stateMutability":"nonpayable","type":"constructor"},
  {"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"renounceOwnership","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[],"name":"owner","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

var (
	erc20ABIOnce   sync.Once
	erc20ABIParsed abi.ABI
	erc20ABIErr    error
)

func parsedERC20ABI() (abi.ABI, error) {
	erc20ABIOnce.Do(func() {
		erc20ABIParsed, erc20ABIErr = abi.JSON(strings.NewReader(erc20ABI))
	})
	return erc20ABIParsed, erc20ABIErr
}

func (c *Client) erc20(token common.Address) (*bind.BoundContract, error) {
	parsed, err := parsedERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("解析 ERC20 ABI 失败: %w", err)
	}
	return bind.NewBoundContract(token, parsed, c.backend, c.backend, c.backend), nil
}

// TokenBalance reads an ERC-20 balance together with decimals and symbol.
func (c *Client) TokenBalance(ctx context.Context, token, holder common.Address) (*web3.TokenBalance, error) {
	contract, err := c.erc20(token)
	if err != nil {
		return nil, err
	}
	opts := &bind.CallOpts{Context: ctx}

	var out []any
	if err := contract.Call(opts, &out, "balanceOf", holder); err != nil {
		return nil, fmt.Errorf("查询代币余额失败: %w", err)
	}
	balance := abi.ConvertType(out[0], new(big.Int)).(*big.Int)

	out = nil
	if err := contract.Call(opts, &out, "decimals"); err != nil {
		return nil, fmt.Errorf("查询代币精度失败: %w", err)
	}
	decimals := abi.ConvertType(out[0], new(uint8)).(*uint8)

	out = nil
	if err := contract.Call(opts, &out, "symbol"); err != nil {
		return nil, fmt.Errorf("查询代币符号失败: %w", err)
	}
	symbol := abi.ConvertType(out[0], new(string)).(*string)

	return &web3.TokenBalance{Raw: balance, Decimals: *decimals, Symbol: *symbol}, nil
}

// Allowance reads the ERC-20 allowance granted by owner to spender.
func (c *Client) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	contract, err := c.erc20(token)
	if err != nil {
		return nil, err
	}
	var out []any
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "allowance", owner, spender); err != nil {
		return nil, fmt.Errorf("查询授权额度失败: %w", err)
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// Approve grants spender the given allowance on the token.
func (c *Client) Approve(ctx context.Context, privHex string, token, spender common.Address, amount *big.Int) (common.Hash, error) {
	contract, err := c.erc20(token)
	if err != nil {
		return common.Hash{}, err
	}
	auth, err := c.TransactOpts(ctx, privHex)
	if err != nil {
		return common.Hash{}, err
	}
	tx, err := contract.Transact(auth, "approve", spender, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("发送授权交易失败: %w", err)
	}
	return tx.Hash(), nil
}

// TransferToken moves amount of the token to the recipient.
func (c *Client) TransferToken(ctx context.Context, privHex string, token, to common.Address, amount *big.Int) (common.Hash, error) {
	contract, err := c.erc20(token)
	if err != nil {
		return common.Hash{}, err
	}
	auth, err := c.TransactOpts(ctx, privHex)
	if err != nil {
		return common.Hash{}, err
	}
	tx, err := contract.Transact(auth, "transfer", to, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("发送代币转账失败: %w", err)
	}
	return tx.Hash(), nil
}

// DeployERC20 deploys the baked token contract with the given metadata and
// initial supply, returning the predicted address and the creation tx.
func (c *Client) DeployERC20(ctx context.Context, privHex, name, symbol string, initialSupply *big.Int) (web3.DeploymentResult, error) {
	parsed, err := parsedERC20ABI()
	if err != nil {
		return web3.DeploymentResult{}, fmt.Errorf("解析 ERC20 ABI 失败: %w", err)
	}
	auth, err := c.TransactOpts(ctx, privHex)
	if err != nil {
		return web3.DeploymentResult{}, err
	}
	address, tx, _, err := bind.DeployContract(auth, parsed, common.FromHex(erc20Bytecode), c.backend, name, symbol, initialSupply)
	if err != nil {
		return web3.DeploymentResult{}, fmt.Errorf("部署合约失败: %w", err)
	}
	return web3.DeploymentResult{ContractAddress: address, Transaction: tx}, nil
}

// RenounceOwnership drops owner privileges on the deployed token.
func (c *Client) RenounceOwnership(ctx context.Context, privHex string, token common.Address) (common.Hash, error) {
	contract, err := c.erc20(token)
	if err != nil {
		return common.Hash{}, err
	}
	auth, err := c.TransactOpts(ctx, privHex)
	if err != nil {
		return common.Hash{}, err
	}
	tx, err := contract.Transact(auth, "renounceOwnership")
	if err != nil {
		return common.Hash{}, fmt.Errorf("放弃合约所有权失败: %w", err)
	}
	return tx.Hash(), nil
}
