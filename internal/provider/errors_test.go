package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := NewError(CodeUserRejected, "User rejected the request.")
	assert.Equal(t, "User rejected the request. (code 4001)", err.Error())
	assert.Equal(t, 4001, err.ErrorCode())
	assert.Nil(t, err.ErrorData())
}

func TestFromErrorUnwrapsChain(t *testing.T) {
	wrapped := fmt.Errorf("eth_sendTransaction: %w", NewError(CodeResourceUnavailable, "busy"))

	pe, ok := FromError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeResourceUnavailable, pe.Code)
	assert.Equal(t, CodeResourceUnavailable, Code(wrapped))

	_, ok = FromError(errors.New("plain"))
	assert.False(t, ok)
	assert.Zero(t, Code(errors.New("plain")))
	assert.Zero(t, Code(nil))
}

func TestFromErrorConvertsWireErrors(t *testing.T) {
	mock := newWalletMock(t, map[string]mockReply{
		"eth_sendTransaction": {Err: &mockErr{Code: -32000, Message: "nonce too low", Data: "0xdead"}},
	})
	p, err := DialRPC(context.Background(), mock.URL)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.SendTransaction(context.Background(), TxParams{Gas: 21000})
	require.Error(t, err)

	pe, ok := FromError(err)
	require.True(t, ok)
	assert.Equal(t, CodeInvalidInput, pe.Code)
	assert.Equal(t, "nonce too low", pe.Message)
	assert.Equal(t, "0xdead", pe.Data)
}

func TestIsUnrecognizedChain(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"direct 4902", NewError(CodeUnrecognizedChain, "Unrecognized chain ID"), true},
		{"wrapped 4902", fmt.Errorf("switch: %w", NewError(CodeUnrecognizedChain, "x")), true},
		{"nested in internal error", &Error{
			Code:    CodeInternal,
			Message: "Internal JSON-RPC error.",
			Data:    map[string]any{"originalError": map[string]any{"code": float64(4902)}},
		}, true},
		{"nested as json string", &Error{
			Code: CodeInternal, Message: "Internal error",
			Data: `{"originalError":{"code":4902,"message":"unknown"}}`,
		}, true},
		{"internal error message", NewError(CodeInternal, "Unrecognized chain ID \"0xa869\""), true},
		{"internal error other", NewError(CodeInternal, "execution reverted"), false},
		{"user rejected", NewError(CodeUserRejected, "User rejected the request."), false},
		{"plain error", errors.New("Unrecognized chain"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnrecognizedChain(tt.err))
		})
	}
}
