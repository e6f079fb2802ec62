package tools

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"

	xerrors "PersonaChain/internal/errors"
	"PersonaChain/internal/llm"
	"PersonaChain/internal/social"
	"PersonaChain/internal/wallet"
	"PersonaChain/internal/web3"
)

const (
	testOwner   = "viewer-1"
	testPersona = "Harper"
	testSession = "session-1"
	testAddress = "0x1111111111111111111111111111111111111111"
	testToken   = "0x2222222222222222222222222222222222222222"
	testKey     = "4c0883a69102937d6231471b5dbb6204fe51296170827936ea5cce4b76994b0f"
)

type fakeWallets struct {
	mu      sync.Mutex
	records map[string]*wallet.Record
}

func newFakeWallets(withRecord bool) *fakeWallets {
	f := &fakeWallets{records: make(map[string]*wallet.Record)}
	if withRecord {
		f.records[wallet.StoreKey(testOwner, testPersona)] = &wallet.Record{
			WalletID:   "w-1",
			Owner:      testOwner,
			PersonaID:  testPersona,
			Address:    testAddress,
			PrivateKey: testKey,
		}
	}
	return f
}

func (f *fakeWallets) EnsureWallet(_ context.Context, owner, personaID string) (wallet.Record, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := wallet.StoreKey(owner, personaID)
	if record, ok := f.records[key]; ok {
		return *record, false, nil
	}
	record := &wallet.Record{
		WalletID:   "w-new",
		Owner:      owner,
		PersonaID:  personaID,
		Address:    testAddress,
		PrivateKey: testKey,
	}
	f.records[key] = record
	return *record, true, nil
}

func (f *fakeWallets) Get(_ context.Context, owner, personaID string) (*wallet.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[wallet.StoreKey(owner, personaID)]
	if !ok {
		return nil, xerrors.New(xerrors.CodeNotFound, "钱包不存在")
	}
	clone := *record
	return &clone, nil
}

func (f *fakeWallets) SetBaseName(_ context.Context, owner, personaID, baseName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[wallet.StoreKey(owner, personaID)]
	if !ok {
		return xerrors.New(xerrors.CodeNotFound, "钱包不存在")
	}
	record.BaseName = baseName
	return nil
}

type fakeChain struct {
	mu sync.Mutex

	name      string
	ethBal    *big.Int
	tokenBal  *web3.TokenBalance
	allowance *big.Int
	pair      common.Address
	head      uint64
	reserves  map[uint64]web3.ReservePoint
	available bool

	receiptLogs []*coretypes.Log

	approveCalls  int
	swapCalls     int
	transferCalls int
	deployCalls   int
	renounceCalls int
	liquidity     int
	mintCalls     int
	registerCalls int
	mintedURI     string
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		name:      "base",
		ethBal:    big.NewInt(1_000_000_000_000_000_000),
		tokenBal:  &web3.TokenBalance{Raw: big.NewInt(1_000_000), Decimals: 6, Symbol: "TST"},
		allowance: big.NewInt(0),
		pair:      common.HexToAddress("0x3333333333333333333333333333333333333333"),
		head:      10_000,
		reserves:  make(map[uint64]web3.ReservePoint),
		available: true,
	}
}

func (f *fakeChain) Name() string { return f.name }

func (f *fakeChain) WETH() common.Address {
	return common.HexToAddress("0x4200000000000000000000000000000000000006")
}

func (f *fakeChain) Router() common.Address {
	return common.HexToAddress("0x4444444444444444444444444444444444444444")
}

func (f *fakeChain) BalanceAt(context.Context, common.Address) (*big.Int, error) {
	return new(big.Int).Set(f.ethBal), nil
}

func (f *fakeChain) BlockNumber(context.Context) (uint64, error) { return f.head, nil }

func (f *fakeChain) TokenBalance(context.Context, common.Address, common.Address) (*web3.TokenBalance, error) {
	return f.tokenBal, nil
}

func (f *fakeChain) Allowance(context.Context, common.Address, common.Address, common.Address) (*big.Int, error) {
	return new(big.Int).Set(f.allowance), nil
}

func (f *fakeChain) Approve(context.Context, string, common.Address, common.Address, *big.Int) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approveCalls++
	return common.HexToHash("0xa1"), nil
}

func (f *fakeChain) TransferETH(_ context.Context, _ string, _ common.Address, amountWei *big.Int) (common.Hash, error) {
	if f.ethBal.Cmp(amountWei) < 0 {
		return common.Hash{}, insufficientFunds(f.ethBal, amountWei)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transferCalls++
	return common.HexToHash("0xe1"), nil
}

func (f *fakeChain) TransferToken(context.Context, string, common.Address, common.Address, *big.Int) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transferCalls++
	return common.HexToHash("0xe2"), nil
}

func (f *fakeChain) SwapETHForTokens(_ context.Context, _ string, _ common.Address, amountIn *big.Int, _ int64) (web3.SwapResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swapCalls++
	return web3.SwapResult{TxHash: common.HexToHash("0x51"), AmountIn: amountIn, AmountOut: big.NewInt(42)}, nil
}

func (f *fakeChain) SwapTokensForETH(_ context.Context, _ string, _ common.Address, amountIn *big.Int, _ int64) (web3.SwapResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swapCalls++
	return web3.SwapResult{TxHash: common.HexToHash("0x52"), AmountIn: amountIn, AmountOut: big.NewInt(43)}, nil
}

func (f *fakeChain) AddLiquidityETH(context.Context, string, common.Address, *big.Int, *big.Int) (web3.PoolResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.liquidity++
	return web3.PoolResult{TxHash: common.HexToHash("0x61")}, nil
}

func (f *fakeChain) PairFor(context.Context, common.Address, common.Address) (common.Address, error) {
	return f.pair, nil
}

func (f *fakeChain) Reserves(_ context.Context, _ common.Address, blockNumber *big.Int) (web3.ReservePoint, error) {
	point, ok := f.reserves[blockNumber.Uint64()]
	if !ok {
		return web3.ReservePoint{}, xerrors.New(xerrors.CodeChainFailure, "历史状态不可用")
	}
	return point, nil
}

func (f *fakeChain) DeployERC20(context.Context, string, string, string, *big.Int) (web3.DeploymentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deployCalls++
	return web3.DeploymentResult{
		ContractAddress: common.HexToAddress("0x5555555555555555555555555555555555555555"),
		Transaction:     coretypes.NewTx(&coretypes.LegacyTx{Nonce: 1}),
	}, nil
}

func (f *fakeChain) DeployERC721(context.Context, string, string, string) (web3.DeploymentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deployCalls++
	return web3.DeploymentResult{
		ContractAddress: common.HexToAddress("0x6666666666666666666666666666666666666666"),
		Transaction:     coretypes.NewTx(&coretypes.LegacyTx{Nonce: 2}),
	}, nil
}

func (f *fakeChain) MintNFT(_ context.Context, _ string, _, _ common.Address, tokenURI string) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mintCalls++
	f.mintedURI = tokenURI
	return common.HexToHash("0x71"), nil
}

func (f *fakeChain) RenounceOwnership(context.Context, string, common.Address) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renounceCalls++
	return common.HexToHash("0x81"), nil
}

func (f *fakeChain) BaseNameAvailable(context.Context, string) (bool, error) {
	return f.available, nil
}

func (f *fakeChain) RegisterBaseName(context.Context, string, string, common.Address) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registerCalls++
	return common.HexToHash("0x91"), nil
}

func (f *fakeChain) WaitForReceipt(context.Context, common.Hash, uint64) (*coretypes.Receipt, error) {
	return &coretypes.Receipt{
		Status:      coretypes.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(1),
		Logs:        f.receiptLogs,
	}, nil
}

func (f *fakeChain) resolver() ChainResolver {
	return func(string) (ChainClient, error) { return f, nil }
}

type fakePinner struct {
	mu    sync.Mutex
	calls int
}

func (f *fakePinner) PinFile(context.Context, string, []byte) (string, error) {
	return "ipfs://image-hash", nil
}

func (f *fakePinner) PinJSON(context.Context, any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return "ipfs://meta-hash", nil
}

func (f *fakePinner) GatewayURL(uri string) string { return uri }

type fakeTwitter struct {
	posted []string
}

func (f *fakeTwitter) PostTweet(_ context.Context, text string) (*social.Tweet, error) {
	f.posted = append(f.posted, text)
	return &social.Tweet{ID: "t-1", Text: text}, nil
}

func (f *fakeTwitter) UserTweets(context.Context, string, int) ([]social.Tweet, error) {
	return []social.Tweet{{ID: "t-0", Text: "hello"}}, nil
}

type fakeImages struct{}

func (fakeImages) GenerateImage(context.Context, llm.ImageRequest) (*llm.ImageResult, error) {
	return &llm.ImageResult{Data: []byte{0x89, 0x50, 0x4e, 0x47}}, nil
}

type fakeAnalyst struct {
	mu       sync.Mutex
	prompts  []string
	analysis string
	err      error
}

func (f *fakeAnalyst) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if n := len(req.Messages); n > 0 {
		f.prompts = append(f.prompts, req.Messages[n-1].Content)
	}
	return &llm.ChatResponse{Text: f.analysis}, nil
}

type fakeVerifier struct {
	mu        sync.Mutex
	submitted []VerifyRequest
	waitErr   error
}

func (f *fakeVerifier) Submit(_ context.Context, req VerifyRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, req)
	return "guid-1", nil
}

func (f *fakeVerifier) WaitForVerification(context.Context, string) error {
	return f.waitErr
}
