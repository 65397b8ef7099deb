// Package provider defines the wallet capability the transaction engine talks
// to, plus two implementations: RPC, for an external wallet endpoint that
// accepts EIP-1193 requests, and Local, a keychain-backed signer for the CLI.
package provider

import (
	"context"
	"math/big"

	"github.com/Mohsinsiddi/w3pilot/internal/chain"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TxParams is the body of an eth_sendTransaction request.
type TxParams struct {
	From     common.Address
	To       *common.Address
	Value    *big.Int
	Data     []byte
	Gas      uint64
	GasPrice *big.Int
}

// Provider is a wallet. Methods map one-to-one onto wallet request types and
// return *Error (or an error wrapping one) when the wallet answers with a
// coded failure.
type Provider interface {
	ChainID(ctx context.Context) (int64, error)
	Accounts(ctx context.Context) ([]common.Address, error)
	SwitchChain(ctx context.Context, chainID int64) error
	AddChain(ctx context.Context, cfg chain.Config) error

	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	Balance(ctx context.Context, addr common.Address) (*big.Int, error)

	SendTransaction(ctx context.Context, tx TxParams) (common.Hash, error)

	// TransactionReceipt returns nil, nil while the transaction is pending.
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}
