package tools

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	xerrors "PersonaChain/internal/errors"
	"PersonaChain/internal/llm"
	"PersonaChain/internal/tool"
	"PersonaChain/pkg/logger"
)

const (
	defaultCandlePoints   = 24
	defaultCandleInterval = 300
	maxCandlePoints       = 200
)

// CandlePoint 是价格序列中的一个采样点。
type CandlePoint struct {
	Block     uint64 `json:"block"`
	Timestamp uint32 `json:"timestamp"`
	Reserve0  string `json:"reserve0"`
	Reserve1  string `json:"reserve1"`
	Price     string `json:"price"`
}

// GetCandlesTool 从历史区块的交易对储备推导价格序列。
// 交易对尚未创建的历史区块会被跳过。
type GetCandlesTool struct {
	chains ChainResolver
}

func NewGetCandlesTool(chains ChainResolver) *GetCandlesTool {
	return &GetCandlesTool{chains: chains}
}

func (t *GetCandlesTool) Name() string { return "get_candles" }

func (t *GetCandlesTool) Spec() llm.ToolSpec {
	return spec("get_candles",
		"Derive a historical price series for a token's ETH pair from onchain reserves.",
		`{"type":"object","properties":{"token":{"type":"string","description":"token contract address"},"points":{"type":"integer","description":"number of samples, defaults to 24"},"interval_blocks":{"type":"integer","description":"blocks between samples, defaults to 300"},"chain":{"type":"string"}},"required":["token"]}`)
}

func (t *GetCandlesTool) Invoke(ctx context.Context, input tool.Input) (any, error) {
	var args struct {
		Token          string `json:"token"`
		Points         int    `json:"points"`
		IntervalBlocks int64  `json:"interval_blocks"`
		Chain          string `json:"chain"`
	}
	if err := decodeArgs(input.Args, &args); err != nil {
		return nil, err
	}
	token, err := parseAddress(args.Token, "token")
	if err != nil {
		return nil, err
	}
	points := args.Points
	if points <= 0 {
		points = defaultCandlePoints
	}
	if points > maxCandlePoints {
		points = maxCandlePoints
	}
	interval := args.IntervalBlocks
	if interval <= 0 {
		interval = defaultCandleInterval
	}

	client, err := t.chains(args.Chain)
	if err != nil {
		return nil, err
	}
	pair, err := client.PairFor(ctx, token, client.WETH())
	if err != nil {
		return nil, err
	}
	if pair == (common.Address{}) {
		return nil, xerrors.New(xerrors.CodeNotFound, "该代币没有对应的交易对")
	}

	head, err := client.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	samples := make([]CandlePoint, 0, points)
	for i := points - 1; i >= 0; i-- {
		offset := uint64(int64(i) * interval)
		if offset > head {
			continue
		}
		block := head - offset
		point, err := client.Reserves(ctx, pair, new(big.Int).SetUint64(block))
		if err != nil {
			logger.Named("tools").Debug("历史储备查询失败",
				"pair", pair.Hex(),
				"block", block,
				"error", err,
			)
			continue
		}
		if point.Reserve0 == nil || point.Reserve0.Sign() == 0 {
			continue
		}
		price := new(big.Rat).SetFrac(point.Reserve1, point.Reserve0)
		samples = append(samples, CandlePoint{
			Block:     block,
			Timestamp: point.Timestamp,
			Reserve0:  point.Reserve0.String(),
			Reserve1:  point.Reserve1.String(),
			Price:     price.FloatString(18),
		})
	}

	return map[string]any{
		"pair":   pair.Hex(),
		"token":  args.Token,
		"chain":  client.Name(),
		"points": samples,
	}, nil
}
