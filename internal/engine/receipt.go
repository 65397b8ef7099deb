package engine

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

// ReceiptPolicy controls how hard Execute looks for a receipt after
// submission. The default is a single attempt. With Attempts > 1 the fetch
// is retried with exponential backoff starting at Interval.
type ReceiptPolicy struct {
	Attempts    int
	Interval    time.Duration
	MaxInterval time.Duration
}

// DefaultReceiptPolicy fetches once.
var DefaultReceiptPolicy = ReceiptPolicy{Attempts: 1}

var errReceiptPending = errors.New("receipt not available yet")

func (p ReceiptPolicy) backoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.Interval > 0 {
		b.InitialInterval = p.Interval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.Attempts-1)), ctx)
}

// fetchReceipt never fails the attempt: a missing receipt yields nil.
func (e *Engine) fetchReceipt(ctx context.Context, hash common.Hash, log logrus.FieldLogger) *types.Receipt {
	var receipt *types.Receipt
	op := func() error {
		r, err := e.provider.TransactionReceipt(ctx, hash)
		if err != nil {
			return err
		}
		if r == nil {
			return errReceiptPending
		}
		receipt = r
		return nil
	}

	var err error
	if e.receipts.Attempts <= 1 {
		err = op()
	} else {
		err = backoff.RetryNotify(op, e.receipts.backoff(ctx), func(err error, wait time.Duration) {
			log.WithError(err).WithField("retry_in", wait).Debug("Receipt not ready")
		})
	}
	if err != nil {
		log.WithError(err).Info("Receipt not available; returning unconfirmed result")
		return nil
	}
	return receipt
}
