package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nodeServer answers eth_blockNumber and eth_chainId like a minimal node.
func nodeServer(t *testing.T, head uint64, chainID int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var result string
		switch req.Method {
		case "eth_blockNumber":
			result = fmt.Sprintf("0x%x", head)
		case "eth_chainId":
			result = fmt.Sprintf("0x%x", chainID)
		default:
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"error":{"code":-32601,"message":"method not found"}}`, req.ID)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":"%s"}`, req.ID, result)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProbeHealthy(t *testing.T) {
	srv := nodeServer(t, 1000, 43113)

	ep := Probe(context.Background(), srv.URL)
	require.NoError(t, ep.Err)
	assert.True(t, ep.Probed)
	assert.True(t, ep.Healthy())
	assert.Equal(t, uint64(1000), ep.Head)
	assert.Equal(t, int64(43113), ep.ChainID)
	assert.Greater(t, ep.Latency, time.Duration(0))
}

func TestProbeUnreachable(t *testing.T) {
	ep := Probe(context.Background(), "http://127.0.0.1:1")
	assert.Error(t, ep.Err)
	assert.False(t, ep.Healthy())
}

func TestProbeAllKeepsOrder(t *testing.T) {
	a := nodeServer(t, 10, 1)
	b := nodeServer(t, 20, 1)

	eps := ProbeAll(context.Background(), []string{a.URL, b.URL})
	require.Len(t, eps, 2)
	assert.Equal(t, a.URL, eps[0].URL)
	assert.Equal(t, uint64(20), eps[1].Head)
}

func TestMarkStale(t *testing.T) {
	eps := []Endpoint{
		{URL: "a", Head: 1000, Probed: true},
		{URL: "b", Head: 997, Probed: true},
		{URL: "c", Head: 990, Probed: true},
		{URL: "d"},
	}
	MarkStale(eps)

	assert.True(t, eps[0].Healthy())
	assert.True(t, eps[1].Healthy(), "exactly at threshold is still healthy")
	assert.False(t, eps[2].Healthy())
	assert.EqualError(t, eps[2].Err, "endpoint is 10 blocks behind")
	assert.True(t, eps[3].Healthy(), "unprobed endpoints are left alone")
}

func TestMatchChain(t *testing.T) {
	eps := []Endpoint{
		{URL: "right", ChainID: 43113, Probed: true},
		{URL: "wrong", ChainID: 1, Probed: true},
		{URL: "silent", Probed: true},
		{URL: "down", Probed: true, Err: errors.New("timeout")},
	}
	MatchChain(eps, 43113)

	assert.True(t, eps[0].Healthy())
	assert.EqualError(t, eps[1].Err, "endpoint serves chain 1, want 43113")
	assert.EqualError(t, eps[2].Err, "endpoint did not report a chain id (want 43113)")
	assert.EqualError(t, eps[3].Err, "timeout")

	unchecked := []Endpoint{{URL: "x", ChainID: 1, Probed: true}}
	MatchChain(unchecked, 0)
	assert.True(t, unchecked[0].Healthy())
}

func TestUnprobedEndpointIsHealthy(t *testing.T) {
	assert.True(t, Endpoint{URL: "x"}.Healthy())
}
