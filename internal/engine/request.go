package engine

import (
	"math/big"

	"github.com/Mohsinsiddi/w3pilot/internal/gas"
	"github.com/ethereum/go-ethereum/common"
)

// Request is one transaction attempt. It is not modified by Execute.
type Request struct {
	To          *common.Address // nil only for deployments
	ValueNative string          // decimal amount in the native currency, e.g. "0.001"
	Data        []byte
	Category    gas.Category // empty means transfer
	Speed       gas.Speed    // zero means standard

	GasLimit *uint64
	GasPrice *big.Int // wei

	TargetChainID int64 // 0 means the wallet's current chain
}

// Status is the on-chain outcome recorded in a Result.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Result describes a submitted transaction. BlockNumber and GasUsed are nil
// when no receipt was seen.
type Result struct {
	AttemptID       string
	ChainID         int64
	From            common.Address
	TransactionHash common.Hash
	Status          Status
	BlockNumber     *big.Int
	GasUsed         *uint64
	ExplorerURL     string
	Quote           gas.Quote
}

// Confirmed reports whether a receipt was fetched.
func (r *Result) Confirmed() bool {
	return r.BlockNumber != nil
}
