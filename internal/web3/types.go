package web3

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// DeploymentResult captures the outcome of a contract deployment request.
type DeploymentResult struct {
	ContractAddress common.Address
	Transaction     *types.Transaction
}

// TokenBalance bundles an ERC-20 balance with its display metadata.
type TokenBalance struct {
	Raw      *big.Int
	Decimals uint8
	Symbol   string
}

// SwapResult describes an executed router swap.
type SwapResult struct {
	TxHash    common.Hash
	AmountIn  *big.Int
	AmountOut *big.Int
}

// PoolResult describes a completed liquidity provision.
type PoolResult struct {
	TxHash      common.Hash
	PairAddress common.Address
}

// ReservePoint is a historical pair reserve snapshot used to derive candles.
type ReservePoint struct {
	BlockNumber uint64
	Reserve0    *big.Int
	Reserve1    *big.Int
	Timestamp   uint32
}
