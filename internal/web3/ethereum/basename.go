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

	xerrors "PersonaChain/internal/errors"
)

// registrarABI is the onchain name registrar surface used for basenames.
const registrarABI = `[
  {"inputs":[{"name":"name","type":"string"},{"name":"duration","type":"uint256"}],"name":"rentPrice","outputs":[{"name":"price","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"name","type":"string"},{"name":"owner","type":"address"},{"name":"duration","type":"uint256"}],"name":"register","outputs":[],"stateMutability":"payable","type":"function"},
  {"inputs":[{"name":"name","type":"string"}],"name":"available","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"}
]`

// DefaultRegistrationSeconds 是注册名字的默认租期，一年。
const DefaultRegistrationSeconds = 365 * 24 * 60 * 60

var (
	registrarABIOnce   sync.Once
	registrarABIParsed abi.ABI
	registrarABIErr    error
)

func (c *Client) registrarContract() (*bind.BoundContract, error) {
	registrarABIOnce.Do(func() {
		registrarABIParsed, registrarABIErr = abi.JSON(strings.NewReader(registrarABI))
	})
	if registrarABIErr != nil {
		return nil, fmt.Errorf("解析注册器 ABI 失败: %w", registrarABIErr)
	}
	if (c.registrar == common.Address{}) {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "当前链未配置名字注册器")
	}
	return bind.NewBoundContract(c.registrar, registrarABIParsed, c.backend, c.backend, c.backend), nil
}

// BaseNameAvailable reports whether the name can still be registered.
func (c *Client) BaseNameAvailable(ctx context.Context, name string) (bool, error) {
	registrar, err := c.registrarContract()
	if err != nil {
		return false, err
	}
	var out []any
	if err := registrar.Call(&bind.CallOpts{Context: ctx}, &out, "available", name); err != nil {
		return false, fmt.Errorf("查询名字可用性失败: %w", err)
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// RegisterBaseName registers the name for the owner, paying the quoted rent.
func (c *Client) RegisterBaseName(ctx context.Context, privHex, name string, owner common.Address) (common.Hash, error) {
	registrar, err := c.registrarContract()
	if err != nil {
		return common.Hash{}, err
	}
	duration := big.NewInt(DefaultRegistrationSeconds)

	var out []any
	if err := registrar.Call(&bind.CallOpts{Context: ctx}, &out, "rentPrice", name, duration); err != nil {
		return common.Hash{}, fmt.Errorf("查询注册价格失败: %w", err)
	}
	price := abi.ConvertType(out[0], new(big.Int)).(*big.Int)

	auth, err := c.TransactOpts(ctx, privHex)
	if err != nil {
		return common.Hash{}, err
	}
	auth.Value = price
	tx, err := registrar.Transact(auth, "register", name, owner, duration)
	if err != nil {
		return common.Hash{}, fmt.Errorf("发送名字注册交易失败: %w", err)
	}
	return tx.Hash(), nil
}
