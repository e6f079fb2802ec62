package ethereum

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	xerrors "PersonaChain/internal/errors"
)

// fakeBackend implements Backend in memory.
type fakeBackend struct {
	mu       sync.Mutex
	chainID  *big.Int
	height   uint64
	balances map[common.Address]*big.Int
	receipts map[common.Hash]*coretypes.Receipt
	gasPrice *big.Int
	sent     []*coretypes.Transaction
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		chainID:  big.NewInt(8453),
		balances: make(map[common.Address]*big.Int),
		receipts: make(map[common.Hash]*coretypes.Receipt),
		gasPrice: big.NewInt(1_000_000_000),
	}
}

func (f *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(f.chainID), nil
}

func (f *fakeBackend) BlockNumber(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.height, nil
}

func (f *fakeBackend) BalanceAt(ctx context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if balance, ok := f.balances[account]; ok {
		return new(big.Int).Set(balance), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*coretypes.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if receipt, ok := f.receipts[txHash]; ok {
		return receipt, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeBackend) CodeAt(ctx context.Context, contract common.Address, _ *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) CallContract(ctx context.Context, call gethcore.CallMsg, _ *big.Int) ([]byte, error) {
	return nil, errors.New("no contract state in fake backend")
}

func (f *fakeBackend) HeaderByNumber(ctx context.Context, _ *big.Int) (*coretypes.Header, error) {
	return &coretypes.Header{Number: big.NewInt(int64(f.height))}, nil
}

func (f *fakeBackend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return nil, nil
}

func (f *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return 7, nil
}

func (f *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(f.gasPrice), nil
}

func (f *fakeBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (f *fakeBackend) EstimateGas(ctx context.Context, call gethcore.CallMsg) (uint64, error) {
	return 21000, nil
}

func (f *fakeBackend) SendTransaction(ctx context.Context, tx *coretypes.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) FilterLogs(ctx context.Context, query gethcore.FilterQuery) ([]coretypes.Log, error) {
	return nil, nil
}

func (f *fakeBackend) SubscribeFilterLogs(ctx context.Context, query gethcore.FilterQuery, ch chan<- coretypes.Log) (gethcore.Subscription, error) {
	return nil, errors.New("subscriptions unsupported")
}

func testKeyHex(t *testing.T) (string, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return common.Bytes2Hex(crypto.FromECDSA(key)), crypto.PubkeyToAddress(key.PublicKey)
}

func newTestClient(backend *fakeBackend) *Client {
	client := NewWithBackend(Config{Name: "base", ChainID: 8453}, backend)
	client.receiptPollInterval = time.Millisecond
	return client
}

func TestChainIDPreferred(t *testing.T) {
	client := newTestClient(newFakeBackend())
	id, err := client.ChainID(context.Background())
	if err != nil {
		t.Fatalf("ChainID: %v", err)
	}
	if id.Int64() != 8453 {
		t.Fatalf("expected configured chain id, got %s", id)
	}
}

func TestTransferETHRejectsInsufficientFunds(t *testing.T) {
	backend := newFakeBackend()
	client := newTestClient(backend)
	privHex, from := testKeyHex(t)
	backend.balances[from] = big.NewInt(1000) // far below amount + gas

	_, err := client.TransferETH(context.Background(), privHex, common.HexToAddress("0x1"), big.NewInt(500))
	if xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
	if len(backend.sent) != 0 {
		t.Fatal("no transaction may be broadcast on a failed precheck")
	}
}

func TestTransferETHBroadcastsSignedTx(t *testing.T) {
	backend := newFakeBackend()
	client := newTestClient(backend)
	privHex, from := testKeyHex(t)
	// one ether, plenty for value plus gas
	backend.balances[from] = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	hash, err := client.TransferETH(context.Background(), privHex, common.HexToAddress("0x2"), big.NewInt(1_000_000))
	if err != nil {
		t.Fatalf("TransferETH: %v", err)
	}
	if len(backend.sent) != 1 || backend.sent[0].Hash() != hash {
		t.Fatalf("expected the signed tx to be broadcast, sent=%d", len(backend.sent))
	}
	if backend.sent[0].Gas() != ethTransferGasLimit {
		t.Fatalf("unexpected gas limit %d", backend.sent[0].Gas())
	}
}

func TestWaitForReceiptHonorsConfirmations(t *testing.T) {
	backend := newFakeBackend()
	client := newTestClient(backend)
	txHash := common.HexToHash("0xabc")
	backend.receipts[txHash] = &coretypes.Receipt{
		Status:      coretypes.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(100),
	}
	backend.height = 100 // mined but not yet confirmed twice

	done := make(chan error, 1)
	go func() {
		_, err := client.WaitForReceipt(context.Background(), txHash, 2)
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("wait returned before the confirmation depth was reached")
	case <-time.After(20 * time.Millisecond):
	}

	backend.mu.Lock()
	backend.height = 101
	backend.mu.Unlock()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("WaitForReceipt: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("wait did not finish after confirmations arrived")
	}
}

func TestWaitForReceiptSurfacesRevert(t *testing.T) {
	backend := newFakeBackend()
	client := newTestClient(backend)
	txHash := common.HexToHash("0xdead")
	backend.receipts[txHash] = &coretypes.Receipt{
		Status:      coretypes.ReceiptStatusFailed,
		BlockNumber: big.NewInt(10),
	}
	backend.height = 50

	if _, err := client.WaitForReceipt(context.Background(), txHash, 1); err == nil {
		t.Fatal("expected error for reverted transaction")
	}
}

func TestWaitForReceiptRespectsContext(t *testing.T) {
	client := newTestClient(newFakeBackend())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.WaitForReceipt(ctx, common.HexToHash("0x404"), 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestTransactOptsDerivesSender(t *testing.T) {
	client := newTestClient(newFakeBackend())
	privHex, from := testKeyHex(t)

	auth, err := client.TransactOpts(context.Background(), privHex)
	if err != nil {
		t.Fatalf("TransactOpts: %v", err)
	}
	if auth.From != from {
		t.Fatalf("From = %s, want %s", auth.From, from)
	}
}

func TestTransactOptsRejectsBadKey(t *testing.T) {
	client := newTestClient(newFakeBackend())
	if _, err := client.TransactOpts(context.Background(), "not-a-key"); err == nil {
		t.Fatal("expected an error for a malformed private key")
	}
}

func TestApplySlippage(t *testing.T) {
	got := ApplySlippage(big.NewInt(10000), 50) // 0.5%
	if got.Int64() != 9950 {
		t.Fatalf("expected 9950, got %s", got)
	}
	got = ApplySlippage(big.NewInt(10000), 100) // 1%
	if got.Int64() != 9900 {
		t.Fatalf("expected 9900, got %s", got)
	}
}
