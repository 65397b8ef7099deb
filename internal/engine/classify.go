package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/Mohsinsiddi/w3pilot/internal/provider"
)

// Message patterns checked after provider codes. Order matters: the
// replacement pattern must win over the plain underpriced one.
var submissionPatterns = []struct {
	substr string
	kind   Kind
}{
	{"nonce too low", KindNonceConflict},
	{"nonce too high", KindNonceConflict},
	{"already known", KindNonceConflict},
	{"replacement transaction underpriced", KindNonceConflict},
	{"transaction underpriced", KindUnderpriced},
	{"max fee per gas less than block base fee", KindUnderpriced},
	{"gas price too low", KindUnderpriced},
	{"insufficient funds", KindInsufficientFundsForGas},
	{"user rejected", KindUserRejected},
	{"user denied", KindUserRejected},
}

var kindMessages = map[Kind]string{
	KindUserRejected:            "Transaction was rejected in the wallet.",
	KindProviderBusy:            "The wallet is busy or disconnected. Open it, finish any pending request, and try again.",
	KindUnderpriced:             "Gas price is below what the network accepts. Retry with a faster speed tier.",
	KindNonceConflict:           "Another transaction from this account is pending or was already mined. Wait for it, then retry.",
	KindInsufficientFundsForGas: "Balance does not cover value plus gas fees.",
	KindWalletNotConnected:      "The wallet has not authorized this account.",
}

// Classify maps a submission failure onto the error taxonomy. Provider codes
// are checked first, then known node messages. Anything else is Unknown and
// keeps the raw message.
func Classify(err error, chainID int64) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}

	out := &Error{Kind: KindUnknown, ChainID: chainID, Err: err, Message: err.Error()}
	if pe, ok := provider.FromError(err); ok {
		out.Code = pe.Code
		out.Message = pe.Message
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		out.Message = "The request was cancelled before the wallet answered: " + err.Error()
		return out
	}

	switch out.Code {
	case provider.CodeUserRejected:
		out.Kind = KindUserRejected
	case provider.CodeResourceUnavailable, provider.CodeDisconnected, provider.CodeChainDisconnected:
		out.Kind = KindProviderBusy
	case provider.CodeUnauthorized:
		out.Kind = KindWalletNotConnected
	default:
		lower := strings.ToLower(err.Error())
		for _, p := range submissionPatterns {
			if strings.Contains(lower, p.substr) {
				out.Kind = p.kind
				break
			}
		}
	}

	if msg, ok := kindMessages[out.Kind]; ok {
		out.Message = msg
	}
	return out
}
