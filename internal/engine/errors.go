package engine

import (
	"errors"
	"fmt"
)

// Kind classifies a failed transaction attempt.
type Kind string

const (
	KindWalletNotConnected      Kind = "WalletNotConnected"
	KindUnsupportedChain        Kind = "UnsupportedChain"
	KindChainSwitchFailed       Kind = "ChainSwitchFailed"
	KindInsufficientBalance     Kind = "InsufficientBalance"
	KindInvalidRequest          Kind = "InvalidRequest"
	KindUserRejected            Kind = "UserRejected"
	KindProviderBusy            Kind = "ProviderBusy"
	KindUnderpriced             Kind = "Underpriced"
	KindNonceConflict           Kind = "NonceConflict"
	KindInsufficientFundsForGas Kind = "InsufficientFundsForGas"
	KindUnknown                 Kind = "Unknown"
)

var (
	// ErrAttemptInFlight is returned by Execute and Reset while an attempt
	// has not reached a terminal phase.
	ErrAttemptInFlight = errors.New("a transaction attempt is already in flight")
	// ErrResetRequired is returned by Execute when the previous attempt is
	// terminal and Reset has not been called.
	ErrResetRequired = errors.New("previous attempt finished; reset the engine before starting another")
)

// Error is the single classified error attached to a Failed state.
type Error struct {
	Kind    Kind
	Message string // suitable for direct display
	Hint    string // remediation, e.g. a faucet URL
	ChainID int64
	Code    int // provider code, 0 if none
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return fmt.Sprintf("[%s] %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, chainID int64, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, ChainID: chainID, Err: err, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// KindOf returns the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
