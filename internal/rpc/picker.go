package rpc

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Strategy decides which healthy endpoint wins.
type Strategy string

const (
	StrategyFastest    Strategy = "fastest"
	StrategyRoundRobin Strategy = "round-robin"
	StrategyFailover   Strategy = "failover"
)

// ParseStrategy maps a config value to a Strategy. Empty means fastest.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyFastest:
		return StrategyFastest, nil
	case StrategyRoundRobin, StrategyFailover:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown rpc strategy %q (fastest|round-robin|failover)", s)
}

const winnerTTL = 5 * time.Minute

// ProbeFunc probes a set of URLs and returns one Endpoint per URL, in order.
type ProbeFunc func(ctx context.Context, urls []string) []Endpoint

// Picker chooses among a chain's endpoints. It is safe for concurrent use.
// The fastest strategy remembers its winner per chain and URL set for a few minutes.
type Picker struct {
	strategy Strategy

	mu      sync.Mutex
	next    int
	winner  map[winnerKey]cachedWinner
	now     func() time.Time
	probeFn ProbeFunc
}

// PickerOption configures a Picker.
type PickerOption func(*Picker)

// WithProbe replaces ProbeAll as the way endpoints are measured.
func WithProbe(fn ProbeFunc) PickerOption {
	return func(p *Picker) { p.probeFn = fn }
}

type winnerKey struct {
	chainID int64
	urls    string
}

type cachedWinner struct {
	url     string
	expires time.Time
}

// NewPicker returns a picker using the given strategy.
func NewPicker(strategy Strategy, opts ...PickerOption) *Picker {
	p := &Picker{
		strategy: strategy,
		winner:   make(map[winnerKey]cachedWinner),
		now:      time.Now,
		probeFn:  ProbeAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Pick selects one of the already-probed endpoints.
func (p *Picker) Pick(endpoints []Endpoint) (Endpoint, error) {
	healthy := make([]Endpoint, 0, len(endpoints))
	for _, e := range endpoints {
		if e.Healthy() {
			healthy = append(healthy, e)
		}
	}
	if len(healthy) == 0 {
		return Endpoint{}, ErrNoHealthyRPC
	}

	switch p.strategy {
	case StrategyFailover:
		return healthy[0], nil
	case StrategyRoundRobin:
		p.mu.Lock()
		defer p.mu.Unlock()
		e := healthy[p.next%len(healthy)]
		p.next = (p.next + 1) % len(healthy)
		return e, nil
	default:
		best := healthy[0]
		for _, e := range healthy[1:] {
			if faster(e, best) {
				best = e
			}
		}
		return best, nil
	}
}

// faster orders by head (higher first) then latency.
func faster(a, b Endpoint) bool {
	if a.Head != b.Head {
		return a.Head > b.Head
	}
	if a.Latency == 0 {
		return false
	}
	return b.Latency == 0 || a.Latency < b.Latency
}

// Best probes urls and returns the winning URL for chainID. Every URL is
// probed, even a lone one, and endpoints serving another chain are unhealthy.
// Failover takes the first healthy URL in the given order.
func (p *Picker) Best(ctx context.Context, chainID int64, urls []string) (string, error) {
	if len(urls) == 0 {
		return "", ErrNoHealthyRPC
	}

	key := winnerKey{chainID: chainID, urls: strings.Join(urls, ",")}
	if p.strategy == StrategyFastest {
		p.mu.Lock()
		c, ok := p.winner[key]
		p.mu.Unlock()
		if ok && p.now().Before(c.expires) {
			return c.url, nil
		}
	}

	endpoints := p.probeFn(ctx, urls)
	MatchChain(endpoints, chainID)
	MarkStale(endpoints)
	e, err := p.Pick(endpoints)
	if err != nil {
		return "", fmt.Errorf("%w: %v", err, lastError(endpoints))
	}

	if p.strategy == StrategyFastest {
		p.mu.Lock()
		p.winner[key] = cachedWinner{url: e.URL, expires: p.now().Add(winnerTTL)}
		p.mu.Unlock()
	}
	return e.URL, nil
}

func lastError(endpoints []Endpoint) error {
	for i := len(endpoints) - 1; i >= 0; i-- {
		if endpoints[i].Err != nil {
			return endpoints[i].Err
		}
	}
	return nil
}
