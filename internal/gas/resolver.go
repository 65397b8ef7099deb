package gas

import (
	"context"
	"math/big"

	"github.com/Mohsinsiddi/w3pilot/internal/chain"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// Log event kinds for the two degraded paths. They are never returned as errors.
const (
	EventEstimationDegraded = "GasEstimationDegraded"
	EventPriceDegraded      = "GasPriceDegraded"
)

// Source records which tier produced a value.
type Source string

const (
	SourceExplicit Source = "explicit"
	SourceLive     Source = "live"
	SourcePolicy   Source = "policy"
)

// Estimator is the read-only slice of a wallet provider the resolver needs.
type Estimator interface {
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
}

// Query describes the transaction being priced. A zero Speed means Standard
// and an empty Category means Transfer.
type Query struct {
	ChainID  int64
	Category Category
	Speed    Speed

	From  common.Address
	To    *common.Address
	Value *big.Int
	Data  []byte

	// Caller overrides; nil means resolve.
	GasLimit *uint64
	GasPrice *big.Int // wei
}

// Quote is a resolved (gas limit, gas price) pair.
type Quote struct {
	GasLimit    uint64
	GasPrice    *big.Int // wei
	MaxPrice    *big.Int // wei, the cap that was applied
	LimitSource Source
	PriceSource Source
	Capped      bool
}

// MaxFee is the worst-case fee in wei (limit * price).
func (q Quote) MaxFee() *big.Int {
	if q.GasPrice == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(q.GasLimit), q.GasPrice)
}

// Resolver picks gas values in order: caller override, live provider query,
// static policy. Live-query failures degrade to policy values and are only
// logged.
type Resolver struct {
	table *Table
	est   Estimator
	log   logrus.FieldLogger
}

// NewResolver creates a resolver. est may be nil, in which case only explicit
// and policy values are used.
func NewResolver(table *Table, est Estimator, log logrus.FieldLogger) *Resolver {
	if table == nil {
		table = NewTable()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{table: table, est: est, log: log}
}

// Table returns the policy table the resolver falls back to.
func (r *Resolver) Table() *Table { return r.table }

// Resolve produces a concrete gas limit and price for q. It only fails when
// ctx is done.
func (r *Resolver) Resolve(ctx context.Context, q Query) (Quote, error) {
	q.Speed = q.Speed.Normalize()
	if q.Category == "" {
		q.Category = CategoryTransfer
	}
	log := r.log.WithFields(logrus.Fields{
		"chain_id": q.ChainID,
		"category": q.Category,
		"speed":    q.Speed.String(),
	})
	auto := r.table.AutoGas(q.ChainID)

	var quote Quote
	quote.GasLimit, quote.LimitSource = r.resolveLimit(ctx, q, auto, log)
	quote.GasPrice, quote.PriceSource = r.resolvePrice(ctx, q, log)

	maxPrice := parseGweiOr(auto.MaxPrice, DefaultMaxPrice, log)
	quote.MaxPrice = maxPrice
	if quote.GasPrice.Cmp(maxPrice) > 0 {
		log.WithFields(logrus.Fields{
			"resolved_gwei": chain.FormatGwei(quote.GasPrice),
			"max_gwei":      chain.FormatGwei(maxPrice),
		}).Info("Gas price clamped to chain maximum")
		quote.GasPrice = new(big.Int).Set(maxPrice)
		quote.Capped = true
	}

	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}

	log.WithFields(logrus.Fields{
		"gas_limit":    quote.GasLimit,
		"limit_source": quote.LimitSource,
		"gas_gwei":     chain.FormatGwei(quote.GasPrice),
		"price_source": quote.PriceSource,
	}).Debug("Gas resolved")
	return quote, nil
}

func (r *Resolver) resolveLimit(ctx context.Context, q Query, auto AutoGas, log logrus.FieldLogger) (uint64, Source) {
	if q.GasLimit != nil && *q.GasLimit > 0 {
		log.WithField("gas_limit", *q.GasLimit).Debug("Using explicit gas limit")
		return *q.GasLimit, SourceExplicit
	}

	if r.est != nil {
		est, err := r.est.EstimateGas(ctx, ethereum.CallMsg{
			From:  q.From,
			To:    q.To,
			Value: q.Value,
			Data:  q.Data,
		})
		if err == nil && est > 0 {
			buffered, serr := chain.ScaleRat(new(big.Int).SetUint64(est), auto.SafetyMultiplier)
			if serr != nil {
				buffered, _ = chain.ScaleRat(new(big.Int).SetUint64(est), DefaultSafetyMultiplier)
			}
			log.WithFields(logrus.Fields{
				"estimate":   est,
				"gas_limit":  buffered.Uint64(),
				"multiplier": auto.SafetyMultiplier,
			}).Debug("Using live gas estimate")
			return buffered.Uint64(), SourceLive
		}
		entry := log.WithField("event", EventEstimationDegraded)
		if err != nil {
			entry = entry.WithError(err)
		}
		entry.Warn("Live gas estimate unavailable, using policy limit")
	}

	raw := r.table.GasLimit(q.ChainID, q.Category)
	limit, ok := new(big.Int).SetString(raw, 10)
	if !ok || limit.Sign() <= 0 || !limit.IsUint64() {
		log.WithField("value", raw).Error("Malformed policy gas limit, using generic default")
		limit, _ = new(big.Int).SetString(DefaultGasLimit, 10)
	}
	return limit.Uint64(), SourcePolicy
}

func (r *Resolver) resolvePrice(ctx context.Context, q Query, log logrus.FieldLogger) (*big.Int, Source) {
	if q.GasPrice != nil && q.GasPrice.Sign() > 0 {
		log.WithField("gas_gwei", chain.FormatGwei(q.GasPrice)).Debug("Using explicit gas price")
		return new(big.Int).Set(q.GasPrice), SourceExplicit
	}

	if r.est != nil {
		live, err := r.est.GasPrice(ctx)
		if err == nil && live != nil && live.Sign() > 0 {
			scaled, _ := chain.ScaleRat(live, q.Speed.Multiplier())
			log.WithFields(logrus.Fields{
				"network_gwei": chain.FormatGwei(live),
				"multiplier":   q.Speed.Multiplier(),
			}).Debug("Using live gas price")
			return scaled, SourceLive
		}
		entry := log.WithField("event", EventPriceDegraded)
		if err != nil {
			entry = entry.WithError(err)
		}
		entry.Warn("Live gas price unavailable, using policy tier")
	}

	return parseGweiOr(r.table.PriceTier(q.ChainID, q.Speed), DefaultGasPrice, log), SourcePolicy
}

func parseGweiOr(value, fallback string, log logrus.FieldLogger) *big.Int {
	wei, err := chain.ParseGwei(value)
	if err == nil && wei.Sign() > 0 {
		return wei
	}
	log.WithField("value", value).Error("Malformed policy gas price, using generic default")
	wei, _ = chain.ParseGwei(fallback)
	return wei
}
