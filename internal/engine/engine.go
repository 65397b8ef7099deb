// Package engine drives a single transaction attempt against a wallet
// provider: chain switching, balance checks, gas resolution, submission and
// receipt lookup, exposing progress through a small state machine.
package engine

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/w3pilot/internal/chain"
	"github.com/Mohsinsiddi/w3pilot/internal/gas"
	"github.com/Mohsinsiddi/w3pilot/internal/provider"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Mohsinsiddi/w3pilot/internal/engine"

// Engine runs at most one attempt at a time. Registry and policy tables are
// read-only and may be shared between engines.
type Engine struct {
	registry *chain.Registry
	policy   *gas.Table
	provider provider.Provider
	log      logrus.FieldLogger
	tracer   trace.Tracer
	receipts ReceiptPolicy
	newID    func() string

	machine     *Machine
	coordinator *Coordinator
	resolver    *gas.Resolver
}

// Option configures an Engine.
type Option func(*Engine)

func WithRegistry(r *chain.Registry) Option { return func(e *Engine) { e.registry = r } }

func WithPolicy(t *gas.Table) Option { return func(e *Engine) { e.policy = t } }

func WithLogger(l logrus.FieldLogger) Option { return func(e *Engine) { e.log = l } }

func WithTracer(t trace.Tracer) Option { return func(e *Engine) { e.tracer = t } }

// WithReceiptPolicy replaces the single-attempt receipt fetch.
func WithReceiptPolicy(p ReceiptPolicy) Option { return func(e *Engine) { e.receipts = p } }

// New builds an engine around p. Without options it uses the built-in
// registry and gas policy table.
func New(p provider.Provider, opts ...Option) *Engine {
	e := &Engine{
		provider: p,
		receipts: DefaultReceiptPolicy,
		newID:    uuid.NewString,
		machine:  newMachine(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = chain.NewRegistry()
	}
	if e.policy == nil {
		e.policy = gas.NewTable()
	}
	if e.log == nil {
		e.log = logrus.StandardLogger()
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	e.coordinator = NewCoordinator(e.registry, p, e.log)
	e.resolver = gas.NewResolver(e.policy, p, e.log)
	return e
}

// State returns a snapshot of the engine's state.
func (e *Engine) State() State { return e.machine.Snapshot() }

// Subscribe registers fn for phase transitions; see Machine.Subscribe.
func (e *Engine) Subscribe(fn func(Transition)) func() { return e.machine.Subscribe(fn) }

// Reset returns a finished engine to Idle so another attempt can start.
func (e *Engine) Reset() error { return e.machine.Reset() }

func (e *Engine) Coordinator() *Coordinator { return e.coordinator }

func (e *Engine) Resolver() *gas.Resolver { return e.resolver }

func (e *Engine) Registry() *chain.Registry { return e.registry }

// Execute runs one attempt to a terminal phase. On failure the returned error
// is the *Error also recorded in State. A second call while an attempt is in
// flight returns ErrAttemptInFlight without touching state; a call after a
// terminal phase needs Reset first.
func (e *Engine) Execute(ctx context.Context, req Request) (*Result, error) {
	id := e.newID()
	if err := e.machine.begin(id); err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "engine.execute", trace.WithAttributes(
		attribute.String("attempt.id", id),
		attribute.Int64("chain.target", req.TargetChainID),
		attribute.String("tx.category", string(req.Category)),
	))
	defer span.End()
	log := e.log.WithField("attempt_id", id)

	res, err := e.run(ctx, id, req, log)
	if err != nil {
		ce := Classify(err, 0)
		span.RecordError(ce)
		span.SetStatus(codes.Error, ce.Message)
		log.WithFields(logrus.Fields{"kind": ce.Kind, "chain_id": ce.ChainID}).WithError(ce.Err).Warn(ce.Message)
		if ferr := e.machine.fail(ce); ferr != nil {
			log.WithError(ferr).Error("Could not record failure")
		}
		return nil, ce
	}

	span.SetAttributes(attribute.String("tx.hash", res.TransactionHash.Hex()))
	if err := e.machine.succeed(res); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"chain_id": res.ChainID,
		"tx_hash":  res.TransactionHash.Hex(),
		"status":   res.Status,
	}).Info("Transaction attempt finished")
	return res, nil
}

func (e *Engine) run(ctx context.Context, id string, req Request, log logrus.FieldLogger) (*Result, error) {
	from, cfg, err := e.prepare(ctx, req, log)
	if err != nil {
		return nil, err
	}
	log = log.WithField("chain_id", cfg.ChainID)

	value, err := e.checkBalance(ctx, cfg, from, req.ValueNative)
	if err != nil {
		return nil, err
	}

	quote, err := e.resolveGas(ctx, cfg.ChainID, from, value, req)
	if err != nil {
		return nil, err
	}

	if err := e.machine.advance(PhaseAwaitingUserConfirmation); err != nil {
		return nil, err
	}
	hash, err := e.submit(ctx, cfg.ChainID, provider.TxParams{
		From:     from,
		To:       req.To,
		Value:    value,
		Data:     req.Data,
		Gas:      quote.GasLimit,
		GasPrice: quote.GasPrice,
	})
	if err != nil {
		return nil, err
	}
	log = log.WithField("tx_hash", hash.Hex())
	log.Info("Transaction submitted")

	if err := e.machine.advance(PhaseConfirming); err != nil {
		return nil, err
	}
	res := &Result{
		AttemptID:       id,
		ChainID:         cfg.ChainID,
		From:            from,
		TransactionHash: hash,
		Status:          StatusSuccess,
		ExplorerURL:     cfg.ExplorerTxURL(hash.Hex()),
		Quote:           quote,
	}

	rctx, span := e.tracer.Start(ctx, "engine.receipt")
	receipt := e.fetchReceipt(rctx, hash, log)
	span.End()
	applyReceipt(res, receipt)
	return res, nil
}

// prepare covers the account and chain preconditions.
func (e *Engine) prepare(ctx context.Context, req Request, log logrus.FieldLogger) (common.Address, *chain.Config, error) {
	ctx, span := e.tracer.Start(ctx, "engine.prepare")
	defer span.End()

	accounts, err := e.provider.Accounts(ctx)
	if err != nil {
		return common.Address{}, nil, newError(KindWalletNotConnected, req.TargetChainID, err, "Could not read wallet accounts: %s", providerMessage(err))
	}
	if len(accounts) == 0 {
		return common.Address{}, nil, newError(KindWalletNotConnected, req.TargetChainID, nil, "No wallet account is connected.")
	}
	from := accounts[0]

	current, err := e.provider.ChainID(ctx)
	if err != nil {
		return common.Address{}, nil, newError(KindWalletNotConnected, req.TargetChainID, err, "Could not read the wallet's current chain: %s", providerMessage(err))
	}
	target := req.TargetChainID
	if target == 0 {
		target = current
	}
	cfg, err := e.registry.Lookup(target)
	if err != nil {
		return common.Address{}, nil, newError(KindUnsupportedChain, target, err, "Chain %d is not supported.", target)
	}
	if req.To == nil && req.Category != gas.CategoryDeployment {
		return common.Address{}, nil, newError(KindInvalidRequest, target, nil, "A recipient address is required.")
	}

	if target != current {
		log.WithFields(logrus.Fields{"from_chain": current, "chain_id": target}).Debug("Wallet on another chain")
		if err := e.coordinator.switchFrom(ctx, current, cfg); err != nil {
			return common.Address{}, nil, err
		}
	}
	span.SetAttributes(attribute.Int64("chain.id", target))
	return from, cfg, nil
}

// checkBalance parses the requested value and compares it to the native
// balance. A nil value means none was requested.
func (e *Engine) checkBalance(ctx context.Context, cfg *chain.Config, from common.Address, amount string) (*big.Int, error) {
	if amount == "" {
		return nil, nil
	}
	value, err := chain.ParseUnits(amount, cfg.NativeCurrencyDecimals)
	if err != nil {
		return nil, newError(KindInvalidRequest, cfg.ChainID, err, "Invalid amount %q.", amount)
	}

	ctx, span := e.tracer.Start(ctx, "engine.balance")
	defer span.End()
	balance, err := e.provider.Balance(ctx, from)
	if err != nil {
		return nil, Classify(err, cfg.ChainID)
	}
	if balance.Cmp(value) >= 0 {
		return value, nil
	}

	out := newError(KindInsufficientBalance, cfg.ChainID, nil,
		"Insufficient %s on %s: balance %s, need %s.",
		cfg.NativeCurrencySymbol, cfg.DisplayName,
		chain.FormatUnits(balance, cfg.NativeCurrencyDecimals),
		chain.FormatUnits(value, cfg.NativeCurrencyDecimals))
	if cfg.IsTestnet && cfg.FaucetURL != "" {
		out.Hint = fmt.Sprintf("get test %s from %s", cfg.NativeCurrencySymbol, cfg.FaucetURL)
	}
	return nil, out
}

func (e *Engine) resolveGas(ctx context.Context, chainID int64, from common.Address, value *big.Int, req Request) (gas.Quote, error) {
	ctx, span := e.tracer.Start(ctx, "gas.resolve")
	defer span.End()

	q, err := e.resolver.Resolve(ctx, gas.Query{
		ChainID:  chainID,
		Category: req.Category,
		Speed:    req.Speed,
		From:     from,
		To:       req.To,
		Value:    value,
		Data:     req.Data,
		GasLimit: req.GasLimit,
		GasPrice: req.GasPrice,
	})
	if err != nil {
		return gas.Quote{}, Classify(err, chainID)
	}
	span.SetAttributes(
		attribute.Int64("gas.limit", int64(q.GasLimit)),
		attribute.String("gas.price_source", string(q.PriceSource)),
		attribute.Bool("gas.capped", q.Capped),
	)
	return q, nil
}

func (e *Engine) submit(ctx context.Context, chainID int64, tx provider.TxParams) (common.Hash, error) {
	ctx, span := e.tracer.Start(ctx, "engine.submit")
	defer span.End()
	hash, err := e.provider.SendTransaction(ctx, tx)
	if err != nil {
		return common.Hash{}, Classify(err, chainID)
	}
	return hash, nil
}

// applyReceipt fills receipt data. Status 0 is an explicit revert.
func applyReceipt(res *Result, r *types.Receipt) {
	if r == nil {
		return
	}
	if r.BlockNumber != nil {
		res.BlockNumber = new(big.Int).Set(r.BlockNumber)
	}
	used := r.GasUsed
	res.GasUsed = &used
	if r.Status == types.ReceiptStatusFailed {
		res.Status = StatusFailed
	}
}
