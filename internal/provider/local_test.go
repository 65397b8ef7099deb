package provider

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/Mohsinsiddi/w3pilot/internal/chain"
	"github.com/Mohsinsiddi/w3pilot/internal/rpc"
	"github.com/Mohsinsiddi/w3pilot/internal/wallet"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const anvilKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var anvilAddr = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

type fakeBackend struct {
	mu      sync.Mutex
	url     string
	chainID int64
	nonce   uint64
	sent    []*types.Transaction
	sendErr error
	receipt *types.Receipt
	closed  bool
}

func (b *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(b.chainID), nil
}
func (b *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 21000, nil
}
func (b *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(25_000_000_000), nil
}
func (b *fakeBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return big.NewInt(1e18), nil
}
func (b *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return b.nonce, nil
}
func (b *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, tx)
	return nil
}
func (b *fakeBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	if b.receipt == nil {
		return nil, ethereum.NotFound
	}
	return b.receipt, nil
}
func (b *fakeBackend) Close() { b.closed = true }

type fakeDialer struct {
	mu       sync.Mutex
	backends map[string]*fakeBackend
	chainOf  map[string]int64 // url -> chain the node serves
}

func newFakeDialer() *fakeDialer {
	d := &fakeDialer{chainOf: make(map[string]int64)}
	for _, c := range chain.NewRegistry().All() {
		for _, u := range c.RPCURLs {
			d.chainOf[u] = c.ChainID
		}
	}
	return d
}

// probe reports every known URL as a healthy node of its chain.
func (d *fakeDialer) probe(_ context.Context, urls []string) []rpc.Endpoint {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]rpc.Endpoint, len(urls))
	for i, u := range urls {
		out[i] = rpc.Endpoint{URL: u, Head: 100, ChainID: d.chainOf[u], Probed: true}
	}
	return out
}

func (d *fakeDialer) dial(_ context.Context, url string) (Backend, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.backends == nil {
		d.backends = make(map[string]*fakeBackend)
	}
	b, ok := d.backends[url]
	if !ok {
		b = &fakeBackend{url: url, chainID: d.chainOf[url], nonce: 7}
		d.backends[url] = b
	}
	return b, nil
}

func testChain(t *testing.T, id int64) chain.Config {
	t.Helper()
	cfg, err := chain.NewRegistry().Lookup(id)
	require.NoError(t, err)
	return *cfg
}

func newTestLocal(t *testing.T, opts ...LocalOption) (*Local, *fakeDialer) {
	t.Helper()
	book := wallet.NewBook()
	_, err := book.Import("dev", anvilKey)
	require.NoError(t, err)

	d := newFakeDialer()
	picker := rpc.NewPicker(rpc.StrategyFailover, rpc.WithProbe(d.probe))
	opts = append([]LocalOption{WithDialer(d.dial), WithPicker(picker)}, opts...)
	return NewLocal(book, testChain(t, 11155111), opts...), d
}

func TestLocalStartsOnHomeChain(t *testing.T) {
	l, _ := newTestLocal(t)

	id, err := l.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(11155111), id)

	accounts, err := l.Accounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []common.Address{anvilAddr}, accounts)
}

func TestLocalSwitchUnknownChainIs4902(t *testing.T) {
	l, _ := newTestLocal(t)

	err := l.SwitchChain(context.Background(), 43113)
	require.Error(t, err)
	assert.True(t, IsUnrecognizedChain(err))

	require.NoError(t, l.AddChain(context.Background(), testChain(t, 43113)))
	assert.True(t, l.Known(43113))
	assert.Equal(t, "https://api.avax-test.network/ext/bc/C/rpc", l.chains[43113].url)
	require.NoError(t, l.SwitchChain(context.Background(), 43113))

	id, _ := l.ChainID(context.Background())
	assert.Equal(t, int64(43113), id)
}

func TestLocalAddChainValidates(t *testing.T) {
	l, _ := newTestLocal(t)

	err := l.AddChain(context.Background(), chain.Config{ChainID: 5})
	assert.Equal(t, CodeInvalidParams, Code(err))

	err = l.AddChain(context.Background(), chain.Config{RPCURLs: []string{"http://x"}})
	assert.Equal(t, CodeInvalidParams, Code(err))
}

func TestLocalReadsUseCurrentChainBackend(t *testing.T) {
	l, d := newTestLocal(t)
	ctx := context.Background()

	price, err := l.GasPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(25_000_000_000), price)

	bal, err := l.Balance(ctx, anvilAddr)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1e18), bal)

	home := testChain(t, 11155111)
	require.Contains(t, d.backends, home.PrimaryRPC())

	r, err := l.TransactionReceipt(ctx, common.Hash{1})
	require.NoError(t, err)
	assert.Nil(t, r, "pending receipts are nil without error")

	l.Close()
	assert.True(t, d.backends[home.PrimaryRPC()].closed)
}

func TestLocalSendTransactionSignsForCurrentChain(t *testing.T) {
	l, d := newTestLocal(t)
	to := common.HexToAddress("0x000000000000000000000000000000000000dEaD")

	hash, err := l.SendTransaction(context.Background(), TxParams{
		From: anvilAddr, To: &to, Value: big.NewInt(1000),
		Gas: 21000, GasPrice: big.NewInt(2_000_000_000),
	})
	require.NoError(t, err)

	home := testChain(t, 11155111)
	b := d.backends[home.PrimaryRPC()]
	require.Len(t, b.sent, 1)
	tx := b.sent[0]
	assert.Equal(t, hash, tx.Hash())
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, uint64(21000), tx.Gas())
	assert.Equal(t, big.NewInt(11155111), tx.ChainId())

	sender, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	require.NoError(t, err)
	assert.Equal(t, anvilAddr, sender)
}

func TestLocalSendTransactionUnknownAccount(t *testing.T) {
	l, _ := newTestLocal(t)
	_, err := l.SendTransaction(context.Background(), TxParams{From: common.Address{9}, Gas: 21000})
	assert.Equal(t, CodeUnauthorized, Code(err))
}

func TestLocalConfirmDeclineIsUserRejected(t *testing.T) {
	l, d := newTestLocal(t, WithConfirm(func(context.Context, int64, TxParams) error {
		return errors.New("declined at prompt")
	}))

	_, err := l.SendTransaction(context.Background(), TxParams{From: anvilAddr, Gas: 21000, GasPrice: big.NewInt(1)})
	require.Error(t, err)
	assert.Equal(t, CodeUserRejected, Code(err))
	for _, b := range d.backends {
		assert.Empty(t, b.sent)
	}
}

func TestLocalBroadcastErrorPassesThrough(t *testing.T) {
	l, d := newTestLocal(t)
	_, err := l.GasPrice(context.Background())
	require.NoError(t, err)
	home := testChain(t, 11155111)
	d.backends[home.PrimaryRPC()].sendErr = errors.New("nonce too low")

	_, err = l.SendTransaction(context.Background(), TxParams{From: anvilAddr, Gas: 21000, GasPrice: big.NewInt(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonce too low")
}

func TestLocalAddChainSkipsNodeOnAnotherChain(t *testing.T) {
	fujiNode := newWalletMock(t, map[string]mockReply{
		"eth_chainId":     {Result: "0xa869"},
		"eth_blockNumber": {Result: "0x10"},
	})
	mainnet := newWalletMock(t, map[string]mockReply{
		"eth_chainId":     {Result: "0x1"},
		"eth_blockNumber": {Result: "0x1000"},
	})
	l, _ := newTestLocal(t, WithPicker(rpc.NewPicker(rpc.StrategyFastest)))

	fuji := testChain(t, 43113)
	fuji.RPCURLs = []string{mainnet.URL, fujiNode.URL}
	require.NoError(t, l.AddChain(context.Background(), fuji))
	assert.Equal(t, fujiNode.URL, l.chains[43113].url)

	fuji.RPCURLs = []string{mainnet.URL}
	err := l.AddChain(context.Background(), fuji)
	assert.Equal(t, CodeResourceUnavailable, Code(err))
}

func TestLocalRefusesBackendOnWrongChain(t *testing.T) {
	l, d := newTestLocal(t)
	home := testChain(t, 11155111)
	d.chainOf[home.PrimaryRPC()] = 1

	_, err := l.GasPrice(context.Background())
	require.Error(t, err)
	assert.Equal(t, CodeChainDisconnected, Code(err))
	assert.Contains(t, err.Error(), "serves chain 1, not 11155111")
	assert.True(t, d.backends[home.PrimaryRPC()].closed)
}
