package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// Config describes how to construct an EVM compatible client.
type Config struct {
	Name      string
	RPCURL    string
	ChainID   int64
	Router    string
	Factory   string
	WETH      string
	Registrar string
	Notes     string
}

// Backend is the node surface the client depends on. ethclient.Client
// satisfies it; tests inject a fake.
type Backend interface {
	bind.ContractBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*coretypes.Receipt, error)
}

// Client wraps a Backend with the chain operations the tool layer needs.
type Client struct {
	name      string
	notes     string
	backend   Backend
	rpcClient *gethrpc.Client
	chainID   *big.Int
	router    common.Address
	factory   common.Address
	weth      common.Address
	registrar common.Address

	// receiptPollInterval is shortened in tests.
	receiptPollInterval time.Duration
}

// NewClient dials the configured RPC endpoint and returns a ready-to-use client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	rpcURL := strings.TrimSpace(cfg.RPCURL)
	if rpcURL == "" {
		return nil, errors.New("未配置以太坊 RPC 地址")
	}

	rpcClient, err := gethrpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("连接以太坊节点失败: %w", err)
	}
	eth := ethclient.NewClient(rpcClient)

	client := newClient(cfg, eth)
	client.rpcClient = rpcClient
	return client, nil
}

// NewWithBackend builds a client over an injected backend, used by tests.
func NewWithBackend(cfg Config, backend Backend) *Client {
	return newClient(cfg, backend)
}

func newClient(cfg Config, backend Backend) *Client {
	client := &Client{
		name:                cfg.Name,
		notes:               cfg.Notes,
		backend:             backend,
		router:              common.HexToAddress(cfg.Router),
		factory:             common.HexToAddress(cfg.Factory),
		weth:                common.HexToAddress(cfg.WETH),
		registrar:           common.HexToAddress(cfg.Registrar),
		receiptPollInterval: 2 * time.Second,
	}
	if cfg.ChainID > 0 {
		client.chainID = big.NewInt(cfg.ChainID)
	}
	return client
}

// Name returns the configured chain name.
func (c *Client) Name() string { return c.name }

// WETH returns the wrapped native token address for this chain.
func (c *Client) WETH() common.Address { return c.weth }

// Router returns the swap router address, used as the approval spender.
func (c *Client) Router() common.Address { return c.router }

// Close releases network connections held by the client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
		c.rpcClient = nil
	}
}

// ChainID returns the chain id, resolving it from the node on first use.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	if c.chainID != nil {
		return new(big.Int).Set(c.chainID), nil
	}
	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取链 ID 失败: %w", err)
	}
	c.chainID = id
	return new(big.Int).Set(id), nil
}

// BalanceAt returns the native balance of the address at the latest block.
func (c *Client) BalanceAt(ctx context.Context, address common.Address) (*big.Int, error) {
	balance, err := c.backend.BalanceAt(ctx, address, nil)
	if err != nil {
		return nil, fmt.Errorf("查询余额失败: %w", err)
	}
	return balance, nil
}

// BlockNumber returns the latest block height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	height, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("获取最新区块高度失败: %w", err)
	}
	return height, nil
}

// WaitForReceipt blocks until the transaction is mined and has accumulated
// the requested number of confirmations. It polls the node and respects ctx.
func (c *Client) WaitForReceipt(ctx context.Context, txHash common.Hash, confirmations uint64) (*coretypes.Receipt, error) {
	if confirmations == 0 {
		confirmations = 1
	}
	interval := c.receiptPollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var receipt *coretypes.Receipt
	for {
		if receipt == nil {
			r, err := c.backend.TransactionReceipt(ctx, txHash)
			if err == nil && r != nil {
				receipt = r
			}
		}
		if receipt != nil {
			height, err := c.backend.BlockNumber(ctx)
			if err != nil {
				return nil, fmt.Errorf("获取最新区块高度失败: %w", err)
			}
			if height+1 >= receipt.BlockNumber.Uint64()+confirmations {
				if receipt.Status != coretypes.ReceiptStatusSuccessful {
					return receipt, fmt.Errorf("交易 %s 执行失败", txHash.Hex())
				}
				return receipt, nil
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
