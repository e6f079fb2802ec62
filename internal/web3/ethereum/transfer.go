package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"

	xerrors "PersonaChain/internal/errors"
)

const ethTransferGasLimit = 21000

// TransferETH sends native currency to the recipient. The sender balance is
// checked against amount plus worst-case gas before anything is signed, so an
// underfunded wallet never broadcasts a transaction.
func (c *Client) TransferETH(ctx context.Context, privHex string, to common.Address, amountWei *big.Int) (common.Hash, error) {
	if amountWei == nil || amountWei.Sign() <= 0 {
		return common.Hash{}, xerrors.New(xerrors.CodeInvalidArgument, "转账金额必须为正数")
	}
	key, from, err := ParseKey(privHex)
	if err != nil {
		return common.Hash{}, err
	}

	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("获取 gas 价格失败: %w", err)
	}
	balance, err := c.BalanceAt(ctx, from)
	if err != nil {
		return common.Hash{}, err
	}
	cost := new(big.Int).Mul(gasPrice, big.NewInt(ethTransferGasLimit))
	cost.Add(cost, amountWei)
	if balance.Cmp(cost) < 0 {
		return common.Hash{}, xerrors.New(xerrors.CodeInvalidArgument, "余额不足以覆盖转账与 gas",
			xerrors.WithMetadata("balance", balance.String()),
			xerrors.WithMetadata("required", cost.String()),
		)
	}

	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("获取 nonce 失败: %w", err)
	}
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	tx := coretypes.NewTx(&coretypes.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    amountWei,
		Gas:      ethTransferGasLimit,
		GasPrice: gasPrice,
	})
	signed, err := coretypes.SignTx(tx, coretypes.LatestSignerForChainID(chainID), key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("签名交易失败: %w", err)
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("广播交易失败: %w", err)
	}
	return signed.Hash(), nil
}
