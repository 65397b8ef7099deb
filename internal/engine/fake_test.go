package engine

import (
	"context"
	"math/big"
	"sync"

	"github.com/Mohsinsiddi/w3pilot/internal/chain"
	"github.com/Mohsinsiddi/w3pilot/internal/provider"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	testFrom = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	testTo   = common.HexToAddress("0x000000000000000000000000000000000000dEaD")
	testHash = common.HexToHash("0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060")
)

// fakeProvider is a scriptable wallet. Unknown chains answer 4902 until added.
type fakeProvider struct {
	mu sync.Mutex

	accounts []common.Address
	current  int64
	known    map[int64]bool

	balance     *big.Int
	estimate    uint64
	estimateErr error
	price       *big.Int
	priceErr    error

	switchErrs []error // consumed one per SwitchChain call
	addErr     error
	sendErr    error
	sendHook   func()
	receipts   []*types.Receipt // consumed one per receipt call; nil entries mean pending
	receiptErr error

	calls []string
	sent  []provider.TxParams
	added []chain.Config
}

func newFakeProvider(current int64) *fakeProvider {
	return &fakeProvider{
		accounts: []common.Address{testFrom},
		current:  current,
		known:    map[int64]bool{current: true},
		balance:  big.NewInt(1e18),
		estimate: 21000,
		price:    big.NewInt(25_000_000_000),
	}
}

func (f *fakeProvider) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeProvider) called(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeProvider) ChainID(context.Context) (int64, error) {
	f.record("ChainID")
	return f.current, nil
}

func (f *fakeProvider) Accounts(context.Context) ([]common.Address, error) {
	f.record("Accounts")
	return f.accounts, nil
}

func (f *fakeProvider) SwitchChain(_ context.Context, id int64) error {
	f.record("SwitchChain")
	if len(f.switchErrs) > 0 {
		err := f.switchErrs[0]
		f.switchErrs = f.switchErrs[1:]
		if err != nil {
			return err
		}
	}
	if !f.known[id] {
		return provider.NewError(provider.CodeUnrecognizedChain, "Unrecognized chain ID %#x", id)
	}
	f.current = id
	return nil
}

func (f *fakeProvider) AddChain(_ context.Context, cfg chain.Config) error {
	f.record("AddChain")
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, cfg)
	f.known[cfg.ChainID] = true
	return nil
}

func (f *fakeProvider) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	f.record("EstimateGas")
	return f.estimate, f.estimateErr
}

func (f *fakeProvider) GasPrice(context.Context) (*big.Int, error) {
	f.record("GasPrice")
	if f.priceErr != nil {
		return nil, f.priceErr
	}
	return f.price, nil
}

func (f *fakeProvider) Balance(context.Context, common.Address) (*big.Int, error) {
	f.record("Balance")
	return f.balance, nil
}

func (f *fakeProvider) SendTransaction(_ context.Context, tx provider.TxParams) (common.Hash, error) {
	f.record("SendTransaction")
	if f.sendHook != nil {
		f.sendHook()
	}
	if f.sendErr != nil {
		return common.Hash{}, f.sendErr
	}
	f.sent = append(f.sent, tx)
	return testHash, nil
}

func (f *fakeProvider) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	f.record("TransactionReceipt")
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	if len(f.receipts) == 0 {
		return nil, nil
	}
	r := f.receipts[0]
	f.receipts = f.receipts[1:]
	return r, nil
}
