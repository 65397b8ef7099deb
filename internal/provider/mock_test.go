package provider

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type mockReply struct {
	Result any
	Err    *mockErr
}

type mockErr struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type mockCall struct {
	Method string
	Params json.RawMessage
}

// walletMock is a JSON-RPC server that answers per method and records every
// request it sees.
type walletMock struct {
	*httptest.Server

	mu      sync.Mutex
	replies map[string]mockReply
	calls   []mockCall
}

func newWalletMock(t *testing.T, replies map[string]mockReply) *walletMock {
	t.Helper()
	m := &walletMock{replies: replies}
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.Close)
	return m
}

func (m *walletMock) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     json.RawMessage `json:"id"`
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.calls = append(m.calls, mockCall{Method: req.Method, Params: req.Params})
	reply, ok := m.replies[req.Method]
	m.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	switch {
	case !ok:
		resp["error"] = mockErr{Code: -32601, Message: fmt.Sprintf("the method %s does not exist", req.Method)}
	case reply.Err != nil:
		resp["error"] = reply.Err
	default:
		resp["result"] = reply.Result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (m *walletMock) methods() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	for i, c := range m.calls {
		out[i] = c.Method
	}
	return out
}

func (m *walletMock) lastParams(method string) json.RawMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.calls) - 1; i >= 0; i-- {
		if m.calls[i].Method == method {
			return m.calls[i].Params
		}
	}
	return nil
}
