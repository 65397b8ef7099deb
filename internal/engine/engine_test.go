package engine

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3pilot/internal/chain"
	"github.com/Mohsinsiddi/w3pilot/internal/gas"
	"github.com/Mohsinsiddi/w3pilot/internal/provider"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fuji = 43113

func newTestEngine(t *testing.T, p *fakeProvider, opts ...Option) (*Engine, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	n := 0
	e := New(p, append([]Option{WithLogger(log)}, opts...)...)
	e.newID = func() string {
		n++
		return "attempt-" + string(rune('0'+n))
	}
	return e, hook
}

// recordPhases collects every phase the engine enters.
func recordPhases(e *Engine) *[]Phase {
	var phases []Phase
	e.Subscribe(func(tr Transition) { phases = append(phases, tr.To) })
	return &phases
}

func gwei(t *testing.T, s string) *big.Int {
	t.Helper()
	v, err := chain.ParseGwei(s)
	require.NoError(t, err)
	return v
}

func fujiTransfer() Request {
	return Request{
		To:            &testTo,
		ValueNative:   "0.001",
		Category:      gas.CategoryTransfer,
		Speed:         gas.SpeedStandard,
		TargetChainID: fuji,
	}
}

func TestExecuteFujiTransferSucceeds(t *testing.T) {
	p := newFakeProvider(fuji)
	e, _ := newTestEngine(t, p)
	phases := recordPhases(e)

	res, err := e.Execute(context.Background(), fujiTransfer())
	require.NoError(t, err)

	assert.Equal(t, []Phase{PhasePreparing, PhaseAwaitingUserConfirmation, PhaseConfirming, PhaseSucceeded}, *phases)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, testHash, res.TransactionHash)
	assert.True(t, strings.HasPrefix(res.ExplorerURL, "https://testnet.snowtrace.io"))
	assert.True(t, strings.HasSuffix(res.ExplorerURL, testHash.Hex()))
	assert.Equal(t, "https://testnet.snowtrace.io/tx/"+testHash.Hex(), res.ExplorerURL)
	assert.False(t, res.Confirmed(), "no receipt was available")
	assert.Nil(t, res.GasUsed)

	require.Len(t, p.sent, 1)
	sent := p.sent[0]
	assert.Equal(t, testFrom, sent.From)
	assert.Equal(t, &testTo, sent.To)
	assert.Equal(t, "1000000000000000", sent.Value.String())
	assert.Equal(t, uint64(25200), sent.Gas)
	assert.Equal(t, gwei(t, "25"), sent.GasPrice)

	state := e.State()
	assert.Equal(t, PhaseSucceeded, state.Phase)
	assert.Same(t, res, state.Result)
	assert.Nil(t, state.Err)
	assert.Equal(t, "attempt-1", state.AttemptID)
	assert.Zero(t, p.called("SwitchChain"))
}

func TestExecuteLivePriceFailureUsesStandardTier(t *testing.T) {
	p := newFakeProvider(fuji)
	p.priceErr = errors.New("503 service unavailable")
	e, hook := newTestEngine(t, p)

	res, err := e.Execute(context.Background(), fujiTransfer())
	require.NoError(t, err)
	assert.Equal(t, PhaseSucceeded, e.State().Phase)
	assert.Equal(t, gas.SourcePolicy, res.Quote.PriceSource)
	assert.Equal(t, gwei(t, "27"), p.sent[0].GasPrice)

	var degraded bool
	for _, entry := range hook.AllEntries() {
		if entry.Data["event"] == gas.EventPriceDegraded {
			degraded = true
		}
	}
	assert.True(t, degraded, "degradation is visible in logs")
}

func TestExecuteFailureBeforeSubmissionSkipsConfirmation(t *testing.T) {
	p := newFakeProvider(fuji)
	p.accounts = nil
	e, _ := newTestEngine(t, p)
	phases := recordPhases(e)

	res, err := e.Execute(context.Background(), fujiTransfer())
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindWalletNotConnected))

	assert.Equal(t, []Phase{PhasePreparing, PhaseFailed}, *phases)
	state := e.State()
	assert.Equal(t, PhaseFailed, state.Phase)
	require.NotNil(t, state.Err)
	assert.Equal(t, KindWalletNotConnected, state.Err.Kind)
	assert.Nil(t, state.Result)
	assert.Zero(t, p.called("SendTransaction"))
}

func TestExecuteInsufficientBalanceOnTestnetHasFaucet(t *testing.T) {
	p := newFakeProvider(fuji)
	p.balance = big.NewInt(500_000_000_000_000) // 0.0005 AVAX
	e, _ := newTestEngine(t, p)
	phases := recordPhases(e)

	_, err := e.Execute(context.Background(), fujiTransfer())
	require.Error(t, err)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindInsufficientBalance, ce.Kind)
	assert.Contains(t, ce.Hint, "https://faucet.avax.network")
	assert.Contains(t, err.Error(), "https://faucet.avax.network")
	assert.Contains(t, ce.Message, "0.0005")
	assert.Equal(t, []Phase{PhasePreparing, PhaseFailed}, *phases)
	assert.Zero(t, p.called("EstimateGas"), "gas is not resolved after a failed balance check")
}

func TestExecuteInsufficientBalanceOnMainnetHasNoHint(t *testing.T) {
	p := newFakeProvider(43114)
	p.balance = big.NewInt(0)
	e, _ := newTestEngine(t, p)

	req := fujiTransfer()
	req.TargetChainID = 43114
	_, err := e.Execute(context.Background(), req)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindInsufficientBalance, ce.Kind)
	assert.Empty(t, ce.Hint)
}

func TestExecuteWithoutValueSkipsBalance(t *testing.T) {
	p := newFakeProvider(fuji)
	e, _ := newTestEngine(t, p)

	req := fujiTransfer()
	req.ValueNative = ""
	req.Category = gas.CategoryContractCall
	req.Data = []byte{0xa9, 0x05, 0x9c, 0xbb}

	_, err := e.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, p.called("Balance"))
	assert.Nil(t, p.sent[0].Value)
	assert.Equal(t, req.Data, p.sent[0].Data)
}

func TestExecuteSwitchesAndAddsUnknownChain(t *testing.T) {
	p := newFakeProvider(11155111)
	e, _ := newTestEngine(t, p)

	res, err := e.Execute(context.Background(), fujiTransfer())
	require.NoError(t, err)
	assert.Equal(t, int64(fuji), res.ChainID)

	assert.Equal(t, 2, p.called("SwitchChain"), "switch, add, retry once")
	assert.Equal(t, 1, p.called("AddChain"))
	require.Len(t, p.added, 1)
	want, _ := chain.NewRegistry().Lookup(fuji)
	assert.Equal(t, *want, p.added[0])
	assert.Equal(t, int64(fuji), p.current)
}

func TestExecuteSwitchDeclinedFailsBeforeBalance(t *testing.T) {
	p := newFakeProvider(11155111)
	p.switchErrs = []error{provider.NewError(provider.CodeUserRejected, "User rejected the request.")}
	e, _ := newTestEngine(t, p)

	_, err := e.Execute(context.Background(), fujiTransfer())
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindChainSwitchFailed, ce.Kind)
	assert.Equal(t, provider.CodeUserRejected, ce.Code)
	assert.Contains(t, ce.Message, "User rejected the request.")
	assert.Contains(t, ce.Message, "Avalanche Fuji")
	assert.Zero(t, p.called("AddChain"))
	assert.Zero(t, p.called("Balance"))
}

func TestExecuteUnsupportedChain(t *testing.T) {
	p := newFakeProvider(fuji)
	e, _ := newTestEngine(t, p)

	req := fujiTransfer()
	req.TargetChainID = 424242
	_, err := e.Execute(context.Background(), req)
	assert.True(t, IsKind(err, KindUnsupportedChain))
	assert.ErrorIs(t, err, chain.ErrChainNotFound)
	assert.Zero(t, p.called("SwitchChain"))
}

func TestExecuteInvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Request)
	}{
		{"bad amount", func(r *Request) { r.ValueNative = "1.2.3" }},
		{"negative amount", func(r *Request) { r.ValueNative = "-1" }},
		{"too precise", func(r *Request) { r.ValueNative = "0.0000000000000000001" }},
		{"hex amount", func(r *Request) { r.ValueNative = "0x1" }},
		{"fraction amount", func(r *Request) { r.ValueNative = "1/2" }},
		{"exponent amount", func(r *Request) { r.ValueNative = "1e2" }},
		{"missing recipient", func(r *Request) { r.To = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakeProvider(fuji)
			e, _ := newTestEngine(t, p)
			req := fujiTransfer()
			tt.mod(&req)
			_, err := e.Execute(context.Background(), req)
			assert.True(t, IsKind(err, KindInvalidRequest), "got %v", err)
			assert.Equal(t, PhaseFailed, e.State().Phase)
			assert.Empty(t, p.sent)
		})
	}
}

func TestExecuteDeploymentWithoutRecipient(t *testing.T) {
	p := newFakeProvider(fuji)
	e, _ := newTestEngine(t, p)

	_, err := e.Execute(context.Background(), Request{Category: gas.CategoryDeployment, Data: []byte{0x60, 0x80}})
	require.NoError(t, err)
	assert.Nil(t, p.sent[0].To)
}

func TestExecuteSubmissionErrorsAreClassified(t *testing.T) {
	tests := []struct {
		err  error
		kind Kind
	}{
		{provider.NewError(provider.CodeUserRejected, "User denied transaction signature."), KindUserRejected},
		{provider.NewError(provider.CodeResourceUnavailable, "Request already pending"), KindProviderBusy},
		{errors.New("nonce too low: next nonce 8, tx nonce 7"), KindNonceConflict},
		{provider.NewError(provider.CodeInvalidInput, "insufficient funds for gas * price + value"), KindInsufficientFundsForGas},
		{errors.New("something odd"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			p := newFakeProvider(fuji)
			p.sendErr = tt.err
			e, _ := newTestEngine(t, p)
			phases := recordPhases(e)

			_, err := e.Execute(context.Background(), fujiTransfer())
			assert.True(t, IsKind(err, tt.kind), "got %v", err)
			assert.Equal(t, []Phase{PhasePreparing, PhaseAwaitingUserConfirmation, PhaseFailed}, *phases)
			assert.Equal(t, 1, p.called("SendTransaction"), "submissions are never retried")
		})
	}
}

func TestExecuteRejectsConcurrentAttempt(t *testing.T) {
	p := newFakeProvider(fuji)
	e, _ := newTestEngine(t, p)

	var innerErr, resetErr error
	var innerState State
	p.sendHook = func() {
		_, innerErr = e.Execute(context.Background(), fujiTransfer())
		resetErr = e.Reset()
		innerState = e.State()
	}

	_, err := e.Execute(context.Background(), fujiTransfer())
	require.NoError(t, err)
	assert.ErrorIs(t, innerErr, ErrAttemptInFlight)
	assert.ErrorIs(t, resetErr, ErrAttemptInFlight)
	assert.Equal(t, PhaseAwaitingUserConfirmation, innerState.Phase)
	assert.Equal(t, "attempt-1", innerState.AttemptID)
	assert.Equal(t, 1, p.called("SendTransaction"))
}

func TestExecuteRequiresResetAfterTerminal(t *testing.T) {
	p := newFakeProvider(fuji)
	e, _ := newTestEngine(t, p)

	_, err := e.Execute(context.Background(), fujiTransfer())
	require.NoError(t, err)

	_, err = e.Execute(context.Background(), fujiTransfer())
	assert.ErrorIs(t, err, ErrResetRequired)
	assert.Equal(t, PhaseSucceeded, e.State().Phase)

	require.NoError(t, e.Reset())
	assert.Equal(t, State{}, e.State())

	_, err = e.Execute(context.Background(), fujiTransfer())
	require.NoError(t, err)
	assert.Equal(t, "attempt-3", e.State().AttemptID)
}

func TestExecuteRecordsReceipt(t *testing.T) {
	p := newFakeProvider(fuji)
	p.receipts = []*types.Receipt{{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(42), GasUsed: 21000}}
	e, _ := newTestEngine(t, p)

	res, err := e.Execute(context.Background(), fujiTransfer())
	require.NoError(t, err)
	assert.True(t, res.Confirmed())
	assert.Equal(t, big.NewInt(42), res.BlockNumber)
	require.NotNil(t, res.GasUsed)
	assert.Equal(t, uint64(21000), *res.GasUsed)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 1, p.called("TransactionReceipt"))
}

func TestExecuteRevertedReceiptStillSucceedsPhase(t *testing.T) {
	p := newFakeProvider(fuji)
	p.receipts = []*types.Receipt{{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(7), GasUsed: 30000}}
	e, _ := newTestEngine(t, p)

	res, err := e.Execute(context.Background(), fujiTransfer())
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, PhaseSucceeded, e.State().Phase)
}

func TestExecuteReceiptErrorIsNonFatal(t *testing.T) {
	p := newFakeProvider(fuji)
	p.receiptErr = errors.New("header not found")
	e, _ := newTestEngine(t, p)

	res, err := e.Execute(context.Background(), fujiTransfer())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Nil(t, res.BlockNumber)
}

func TestExecutePollsReceiptWithPolicy(t *testing.T) {
	p := newFakeProvider(fuji)
	p.receipts = []*types.Receipt{nil, nil, {Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(9), GasUsed: 21000}}
	e, _ := newTestEngine(t, p, WithReceiptPolicy(ReceiptPolicy{Attempts: 5, Interval: time.Millisecond, MaxInterval: 2 * time.Millisecond}))

	res, err := e.Execute(context.Background(), fujiTransfer())
	require.NoError(t, err)
	assert.True(t, res.Confirmed())
	assert.Equal(t, 3, p.called("TransactionReceipt"))
}

func TestExecutePollingGivesUpAfterAttempts(t *testing.T) {
	p := newFakeProvider(fuji)
	e, _ := newTestEngine(t, p, WithReceiptPolicy(ReceiptPolicy{Attempts: 3, Interval: time.Millisecond}))

	res, err := e.Execute(context.Background(), fujiTransfer())
	require.NoError(t, err)
	assert.False(t, res.Confirmed())
	assert.Equal(t, 3, p.called("TransactionReceipt"))
}

func TestExplicitOverridesReachProvider(t *testing.T) {
	p := newFakeProvider(fuji)
	e, _ := newTestEngine(t, p)

	limit := uint64(50_000)
	req := fujiTransfer()
	req.GasLimit = &limit
	req.GasPrice = gwei(t, "1000")

	res, err := e.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000), p.sent[0].Gas)
	assert.Equal(t, gwei(t, "300"), p.sent[0].GasPrice, "clamped to the Fuji maximum")
	assert.True(t, res.Quote.Capped)
	assert.Zero(t, p.called("EstimateGas"))
	assert.Zero(t, p.called("GasPrice"))
}
