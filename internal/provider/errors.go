package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// EIP-1193 provider codes and the JSON-RPC codes wallets reuse.
const (
	CodeUserRejected        = 4001
	CodeUnauthorized        = 4100
	CodeUnsupportedMethod   = 4200
	CodeDisconnected        = 4900
	CodeChainDisconnected   = 4901
	CodeUnrecognizedChain   = 4902
	CodeInvalidInput        = -32000
	CodeResourceNotFound    = -32001
	CodeResourceUnavailable = -32002
	CodeTransactionRejected = -32003
	CodeMethodNotFound      = -32601
	CodeInvalidParams       = -32602
	CodeInternal            = -32603
)

// Error is a coded wallet failure. It satisfies go-ethereum's rpc.Error and
// rpc.DataError so it travels the same paths as errors decoded off the wire.
type Error struct {
	Code    int
	Message string
	Data    any
}

func NewError(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

func (e *Error) ErrorCode() int { return e.Code }

func (e *Error) ErrorData() interface{} { return e.Data }

// FromError extracts a coded error from err's chain. Errors decoded by a
// go-ethereum rpc client are converted.
func FromError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	var re gethrpc.Error
	if errors.As(err, &re) {
		out := &Error{Code: re.ErrorCode(), Message: re.Error()}
		var de gethrpc.DataError
		if errors.As(err, &de) {
			out.Data = de.ErrorData()
		}
		return out, true
	}
	return nil, false
}

// Code returns the provider code in err's chain, or 0.
func Code(err error) int {
	if pe, ok := FromError(err); ok {
		return pe.Code
	}
	return 0
}

// IsUnrecognizedChain reports whether err means the wallet does not know the
// requested chain. Some wallets report 4902 nested inside a -32603 internal
// error as data.originalError.code.
func IsUnrecognizedChain(err error) bool {
	pe, ok := FromError(err)
	if !ok {
		return false
	}
	switch pe.Code {
	case CodeUnrecognizedChain:
		return true
	case CodeInternal:
		if nestedCode(pe.Data) == CodeUnrecognizedChain {
			return true
		}
		return strings.Contains(strings.ToLower(pe.Message), "unrecognized chain")
	}
	return false
}

func nestedCode(data any) int {
	var m map[string]any
	switch d := data.(type) {
	case map[string]any:
		m = d
	case string:
		if json.Unmarshal([]byte(d), &m) != nil {
			return 0
		}
	case json.RawMessage:
		if json.Unmarshal(d, &m) != nil {
			return 0
		}
	default:
		return 0
	}
	orig, ok := m["originalError"].(map[string]any)
	if !ok {
		return 0
	}
	switch c := orig["code"].(type) {
	case float64:
		return int(c)
	case int:
		return c
	case json.Number:
		n, _ := c.Int64()
		return int(n)
	}
	return 0
}
