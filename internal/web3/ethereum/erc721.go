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
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"PersonaChain/internal/web3"
)

const erc721ABI = `[
  {"inputs":[{"name":"name_","type":"string"},{"name":"symbol_","type":"string"}],"stateMutability":"nonpayable","type":"constructor"},
  {"inputs":[{"name":"to","type":"address"},{"name":"uri","type":"string"}],"name":"mintTo","outputs":[{"name":"tokenId","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"tokenId","type":"uint256"}],"name":"tokenURI","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"tokenId","type":"uint256"}],"name":"ownerOf","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

var (
	erc721ABIOnce   sync.Once
	erc721ABIParsed abi.ABI
	erc721ABIErr    error

	transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
)

func parsedERC721ABI() (abi.ABI, error) {
	erc721ABIOnce.Do(func() {
		erc721ABIParsed, erc721ABIErr = abi.JSON(strings.NewReader(erc721ABI))
	})
	return erc721ABIParsed, erc721ABIErr
}

// DeployERC721 deploys the baked collection contract owned by the deployer.
func (c *Client) DeployERC721(ctx context.Context, privHex, name, symbol string) (web3.DeploymentResult, error) {
	parsed, err := parsedERC721ABI()
	if err != nil {
		return web3.DeploymentResult{}, fmt.Errorf("解析 ERC721 ABI 失败: %w", err)
	}
	auth, err := c.TransactOpts(ctx, privHex)
	if err != nil {
		return web3.DeploymentResult{}, err
	}
	address, tx, _, err := bind.DeployContract(auth, parsed, common.FromHex(erc721Bytecode), c.backend, name, symbol)
	if err != nil {
		return web3.DeploymentResult{}, fmt.Errorf("部署 NFT 合约失败: %w", err)
	}
	return web3.DeploymentResult{ContractAddress: address, Transaction: tx}, nil
}

// MintNFT mints a token with the given metadata URI to the recipient.
func (c *Client) MintNFT(ctx context.Context, privHex string, contract, to common.Address, tokenURI string) (common.Hash, error) {
	parsed, err := parsedERC721ABI()
	if err != nil {
		return common.Hash{}, fmt.Errorf("解析 ERC721 ABI 失败: %w", err)
	}
	auth, err := c.TransactOpts(ctx, privHex)
	if err != nil {
		return common.Hash{}, err
	}
	bound := bind.NewBoundContract(contract, parsed, c.backend, c.backend, c.backend)
	tx, err := bound.Transact(auth, "mintTo", to, tokenURI)
	if err != nil {
		return common.Hash{}, fmt.Errorf("发送铸造交易失败: %w", err)
	}
	return tx.Hash(), nil
}

// MintedTokenID extracts the freshly minted token id from a mint receipt by
// scanning for the ERC-721 Transfer event from the zero address.
func MintedTokenID(receipt *coretypes.Receipt) (*big.Int, bool) {
	if receipt == nil {
		return nil, false
	}
	for _, entry := range receipt.Logs {
		if len(entry.Topics) != 4 || entry.Topics[0] != transferTopic {
			continue
		}
		if entry.Topics[1] != (common.Hash{}) {
			continue
		}
		return new(big.Int).SetBytes(entry.Topics[3].Bytes()), true
	}
	return nil, false
}
