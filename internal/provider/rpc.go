package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/w3pilot/internal/chain"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// RPC is a Provider backed by a JSON-RPC endpoint that accepts the wallet
// request methods (a browser-wallet bridge, a WalletConnect relay, or a dev
// node with unlocked accounts).
type RPC struct {
	client  *gethrpc.Client
	eth     *ethclient.Client
	limiter *rate.Limiter
	log     logrus.FieldLogger
}

// RPCOption configures an RPC provider.
type RPCOption func(*RPC)

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(perSecond float64, burst int) RPCOption {
	return func(p *RPC) {
		if perSecond <= 0 {
			p.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRPCLogger sets the logger for request tracing.
func WithRPCLogger(log logrus.FieldLogger) RPCOption {
	return func(p *RPC) { p.log = log }
}

// DialRPC connects to a wallet endpoint.
func DialRPC(ctx context.Context, url string, opts ...RPCOption) (*RPC, error) {
	c, err := gethrpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing wallet endpoint: %w", err)
	}
	return NewRPC(c, opts...), nil
}

// NewRPC wraps an existing rpc client.
func NewRPC(c *gethrpc.Client, opts ...RPCOption) *RPC {
	p := &RPC{
		client: c,
		eth:    ethclient.NewClient(c),
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Close releases the underlying connection.
func (p *RPC) Close() { p.client.Close() }

func (p *RPC) ChainID(ctx context.Context) (int64, error) {
	if err := p.wait(ctx); err != nil {
		return 0, err
	}
	id, err := p.eth.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("eth_chainId: %w", err)
	}
	return id.Int64(), nil
}

func (p *RPC) Accounts(ctx context.Context) ([]common.Address, error) {
	var out []common.Address
	if err := p.call(ctx, &out, "eth_accounts"); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *RPC) SwitchChain(ctx context.Context, chainID int64) error {
	arg := map[string]string{"chainId": hexutil.EncodeBig(big.NewInt(chainID))}
	return p.call(ctx, nil, "wallet_switchEthereumChain", arg)
}

type nativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// addChainParams is the EIP-3085 AddEthereumChainParameter.
type addChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    nativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

func newAddChainParams(cfg chain.Config) addChainParams {
	return addChainParams{
		ChainID:   hexutil.EncodeBig(big.NewInt(cfg.ChainID)),
		ChainName: cfg.DisplayName,
		NativeCurrency: nativeCurrency{
			Name:     cfg.NativeCurrencySymbol,
			Symbol:   cfg.NativeCurrencySymbol,
			Decimals: cfg.NativeCurrencyDecimals,
		},
		RPCURLs:           cfg.RPCURLs,
		BlockExplorerURLs: cfg.ExplorerBaseURLs,
	}
}

func (p *RPC) AddChain(ctx context.Context, cfg chain.Config) error {
	return p.call(ctx, nil, "wallet_addEthereumChain", newAddChainParams(cfg))
}

func (p *RPC) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	if err := p.wait(ctx); err != nil {
		return 0, err
	}
	gas, err := p.eth.EstimateGas(ctx, msg)
	if err != nil {
		return 0, fmt.Errorf("eth_estimateGas: %w", err)
	}
	return gas, nil
}

func (p *RPC) GasPrice(ctx context.Context) (*big.Int, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	price, err := p.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("eth_gasPrice: %w", err)
	}
	return price, nil
}

func (p *RPC) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	bal, err := p.eth.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_getBalance: %w", err)
	}
	return bal, nil
}

type sendArgs struct {
	From     common.Address  `json:"from"`
	To       *common.Address `json:"to,omitempty"`
	Gas      hexutil.Uint64  `json:"gas"`
	GasPrice *hexutil.Big    `json:"gasPrice,omitempty"`
	Value    *hexutil.Big    `json:"value,omitempty"`
	Data     hexutil.Bytes   `json:"data,omitempty"`
}

func (p *RPC) SendTransaction(ctx context.Context, tx TxParams) (common.Hash, error) {
	args := sendArgs{
		From:     tx.From,
		To:       tx.To,
		Gas:      hexutil.Uint64(tx.Gas),
		GasPrice: (*hexutil.Big)(tx.GasPrice),
		Value:    (*hexutil.Big)(tx.Value),
		Data:     tx.Data,
	}
	var hash common.Hash
	if err := p.call(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

func (p *RPC) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	r, err := p.eth.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("eth_getTransactionReceipt: %w", err)
	}
	return r, nil
}

func (p *RPC) call(ctx context.Context, result any, method string, args ...any) error {
	if err := p.wait(ctx); err != nil {
		return err
	}
	p.log.WithField("method", method).Debug("Wallet request")
	if err := p.client.CallContext(ctx, result, method, args...); err != nil {
		p.log.WithFields(logrus.Fields{"method": method, "code": Code(err)}).WithError(err).Debug("Wallet request failed")
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func (p *RPC) wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}
