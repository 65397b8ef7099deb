// Package rpc probes JSON-RPC endpoints and picks the one a provider should
// dial when a chain lists more than one URL.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrNoHealthyRPC is returned when none of a chain's endpoints answered.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

const (
	// Endpoints trailing the best head by more than this are treated as stale.
	staleBlockThreshold = 3
	probeTimeout        = 5 * time.Second
)

// Endpoint is one RPC URL and what the last probe learned about it.
type Endpoint struct {
	URL     string
	Latency time.Duration
	Head    uint64 // latest block number
	ChainID int64  // as reported by eth_chainId; 0 if unknown
	Err     error  // last probe error
	Probed  bool
}

// Healthy reports whether the endpoint answered its last probe. Unprobed
// endpoints are optimistically healthy.
func (e Endpoint) Healthy() bool {
	return !e.Probed || e.Err == nil
}

// Probe dials url and measures eth_blockNumber latency. eth_chainId is read
// too; MatchChain uses it to catch a URL that points at another network.
func Probe(ctx context.Context, url string) Endpoint {
	ep := Endpoint{URL: url, Probed: true}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		ep.Err = err
		return ep
	}
	defer client.Close()

	start := time.Now()
	head, err := client.BlockNumber(ctx)
	ep.Latency = time.Since(start)
	if err != nil {
		ep.Err = err
		return ep
	}
	ep.Head = head

	if id, err := client.ChainID(ctx); err == nil {
		ep.ChainID = id.Int64()
	}
	return ep
}

// ProbeAll probes every URL concurrently. Results keep the input order.
func ProbeAll(ctx context.Context, urls []string) []Endpoint {
	out := make([]Endpoint, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			out[i] = Probe(ctx, u)
		}(i, u)
	}
	wg.Wait()
	return out
}

// MarkStale flags endpoints whose head trails the best head by more than
// the stale threshold.
func MarkStale(endpoints []Endpoint) {
	var best uint64
	for _, e := range endpoints {
		if e.Err == nil && e.Head > best {
			best = e.Head
		}
	}
	for i := range endpoints {
		e := &endpoints[i]
		if e.Probed && e.Err == nil && best-e.Head > staleBlockThreshold {
			e.Err = errStale{behind: best - e.Head}
		}
	}
}

// MatchChain flags endpoints that reported a chain ID other than want, or
// none at all. want <= 0 disables the check.
func MatchChain(endpoints []Endpoint, want int64) {
	if want <= 0 {
		return
	}
	for i := range endpoints {
		e := &endpoints[i]
		if e.Probed && e.Err == nil && e.ChainID != want {
			e.Err = ErrWrongChain{Want: want, Got: e.ChainID}
		}
	}
}

// ErrWrongChain marks an endpoint serving a different network.
type ErrWrongChain struct {
	Want, Got int64
}

func (e ErrWrongChain) Error() string {
	if e.Got == 0 {
		return fmt.Sprintf("endpoint did not report a chain id (want %d)", e.Want)
	}
	return fmt.Sprintf("endpoint serves chain %d, want %d", e.Got, e.Want)
}

type errStale struct{ behind uint64 }

func (e errStale) Error() string {
	return fmt.Sprintf("endpoint is %d blocks behind", e.behind)
}
