package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/Mohsinsiddi/w3pilot/internal/chain"
	"github.com/Mohsinsiddi/w3pilot/internal/rpc"
	"github.com/Mohsinsiddi/w3pilot/internal/wallet"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

// Backend is the node API Local needs. *ethclient.Client satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// Dialer opens a Backend for an RPC URL.
type Dialer func(ctx context.Context, url string) (Backend, error)

func dialEthclient(ctx context.Context, url string) (Backend, error) {
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ConfirmFunc is asked before every signature. Returning an error declines
// the request, which surfaces as a 4001 user rejection.
type ConfirmFunc func(ctx context.Context, chainID int64, tx TxParams) error

type localChain struct {
	cfg     chain.Config
	url     string
	backend Backend
}

// Local is a Provider that signs with accounts from a wallet.Book and talks
// to chain nodes directly. Like a browser wallet it only knows chains that
// were added to it; switching to any other chain fails with code 4902.
type Local struct {
	book    *wallet.Book
	picker  *rpc.Picker
	dial    Dialer
	confirm ConfirmFunc
	log     logrus.FieldLogger

	mu      sync.Mutex
	chains  map[int64]*localChain
	current int64
}

// LocalOption configures a Local provider.
type LocalOption func(*Local)

// WithDialer replaces the ethclient dialer (tests).
func WithDialer(d Dialer) LocalOption {
	return func(l *Local) { l.dial = d }
}

// WithPicker sets how AddChain chooses among a chain's RPC URLs.
func WithPicker(p *rpc.Picker) LocalOption {
	return func(l *Local) { l.picker = p }
}

// WithConfirm installs a confirmation prompt for SendTransaction.
func WithConfirm(fn ConfirmFunc) LocalOption {
	return func(l *Local) { l.confirm = fn }
}

// WithLocalLogger sets the logger.
func WithLocalLogger(log logrus.FieldLogger) LocalOption {
	return func(l *Local) { l.log = log }
}

// NewLocal returns a provider that starts on home. home is registered with
// its first RPC URL and no network traffic happens until the first request.
func NewLocal(book *wallet.Book, home chain.Config, opts ...LocalOption) *Local {
	l := &Local{
		book:    book,
		picker:  rpc.NewPicker(rpc.StrategyFastest),
		dial:    dialEthclient,
		log:     logrus.StandardLogger(),
		chains:  make(map[int64]*localChain),
		current: home.ChainID,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.chains[home.ChainID] = &localChain{cfg: home, url: home.PrimaryRPC()}
	return l
}

// Close closes every dialed backend.
func (l *Local) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.chains {
		if c.backend != nil {
			c.backend.Close()
			c.backend = nil
		}
	}
}

// Known reports whether chainID has been added.
func (l *Local) Known(chainID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.chains[chainID]
	return ok
}

func (l *Local) ChainID(context.Context) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current, nil
}

func (l *Local) Accounts(context.Context) ([]common.Address, error) {
	list, err := l.book.List()
	if err != nil {
		return nil, NewError(CodeInternal, "%v", err)
	}
	out := make([]common.Address, 0, len(list))
	for _, a := range list {
		out = append(out, a.Address)
	}
	return out, nil
}

func (l *Local) SwitchChain(_ context.Context, chainID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.chains[chainID]; !ok {
		return NewError(CodeUnrecognizedChain,
			"Unrecognized chain ID %#x. Try adding the chain using wallet_addEthereumChain first.", chainID)
	}
	l.current = chainID
	l.log.WithField("chain_id", chainID).Debug("Switched chain")
	return nil
}

// AddChain registers cfg, choosing an RPC URL with the configured picker.
// Re-adding a known chain replaces its endpoint.
func (l *Local) AddChain(ctx context.Context, cfg chain.Config) error {
	if cfg.ChainID <= 0 {
		return NewError(CodeInvalidParams, "invalid chain id %d", cfg.ChainID)
	}
	if len(cfg.RPCURLs) == 0 {
		return NewError(CodeInvalidParams, "chain %d has no rpcUrls", cfg.ChainID)
	}
	url, err := l.picker.Best(ctx, cfg.ChainID, cfg.RPCURLs)
	if err != nil {
		return NewError(CodeResourceUnavailable, "no reachable RPC for chain %d: %v", cfg.ChainID, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if old, ok := l.chains[cfg.ChainID]; ok && old.backend != nil {
		old.backend.Close()
	}
	l.chains[cfg.ChainID] = &localChain{cfg: cfg, url: url}
	l.log.WithFields(logrus.Fields{"chain_id": cfg.ChainID, "rpc": url}).Info("Added chain")
	return nil
}

func (l *Local) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	b, _, err := l.backend(ctx)
	if err != nil {
		return 0, err
	}
	return b.EstimateGas(ctx, msg)
}

func (l *Local) GasPrice(ctx context.Context) (*big.Int, error) {
	b, _, err := l.backend(ctx)
	if err != nil {
		return nil, err
	}
	return b.SuggestGasPrice(ctx)
}

func (l *Local) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	b, _, err := l.backend(ctx)
	if err != nil {
		return nil, err
	}
	return b.BalanceAt(ctx, addr, nil)
}

func (l *Local) SendTransaction(ctx context.Context, p TxParams) (common.Hash, error) {
	account, err := l.book.ByAddress(p.From)
	if err != nil {
		return common.Hash{}, NewError(CodeUnauthorized, "account %s is not managed by this wallet", p.From.Hex())
	}
	b, chainID, err := l.backend(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	if l.confirm != nil {
		if err := l.confirm(ctx, chainID, p); err != nil {
			return common.Hash{}, &Error{Code: CodeUserRejected, Message: "User rejected the request.", Data: err.Error()}
		}
	}

	nonce, err := b.PendingNonceAt(ctx, p.From)
	if err != nil {
		return common.Hash{}, fmt.Errorf("fetching nonce: %w", err)
	}
	value := p.Value
	if value == nil {
		value = new(big.Int)
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       p.To,
		Value:    value,
		Gas:      p.Gas,
		GasPrice: p.GasPrice,
		Data:     p.Data,
	})

	signed, err := wallet.NewSigner(account, l.book.Keys()).SignTx(tx, big.NewInt(chainID))
	if err != nil {
		return common.Hash{}, NewError(CodeInternal, "%v", err)
	}
	if err := b.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, err
	}
	l.log.WithFields(logrus.Fields{
		"chain_id": chainID,
		"tx_hash":  signed.Hash().Hex(),
		"nonce":    nonce,
	}).Debug("Broadcast transaction")
	return signed.Hash(), nil
}

func (l *Local) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	b, _, err := l.backend(ctx)
	if err != nil {
		return nil, err
	}
	r, err := b.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	return r, err
}

// backend returns the (lazily dialed) node client for the current chain.
func (l *Local) backend(ctx context.Context) (Backend, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.chains[l.current]
	if !ok {
		return nil, 0, NewError(CodeChainDisconnected, "not connected to chain %d", l.current)
	}
	if c.backend == nil {
		b, err := l.dial(ctx, c.url)
		if err != nil {
			return nil, 0, NewError(CodeChainDisconnected, "dialing %s: %v", c.url, err)
		}
		id, err := b.ChainID(ctx)
		if err != nil {
			b.Close()
			return nil, 0, NewError(CodeChainDisconnected, "reading chain id from %s: %v", c.url, err)
		}
		if id.Int64() != c.cfg.ChainID {
			b.Close()
			return nil, 0, NewError(CodeChainDisconnected, "%s serves chain %d, not %d", c.url, id, c.cfg.ChainID)
		}
		c.backend = b
	}
	return c.backend, l.current, nil
}
