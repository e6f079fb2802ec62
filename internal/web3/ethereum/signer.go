package ethereum

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ParseKey decodes a hex encoded private key and derives its address.
func ParseKey(privHex string) (*ecdsa.PrivateKey, common.Address, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(privHex), "0x")
	key, err := crypto.HexToECDSA(cleaned)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("解析私钥失败: %w", err)
	}
	return key, crypto.PubkeyToAddress(key.PublicKey), nil
}

// TransactOpts builds a keyed transactor bound to this client's chain id.
func (c *Client) TransactOpts(ctx context.Context, privHex string) (*bind.TransactOpts, error) {
	key, _, err := ParseKey(privHex)
	if err != nil {
		return nil, err
	}
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("构建交易签名器失败: %w", err)
	}
	auth.Context = ctx
	return auth, nil
}
