package deploy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainforge/evmdeploy/internal/chain"
	"github.com/chainforge/evmdeploy/internal/wallet"
)

// Well-known test key (local devnet account #0).
const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func testSigner(t *testing.T) *wallet.Signer {
	t.Helper()
	s, err := wallet.NewSigner(testKeyHex)
	require.NoError(t, err)
	return s
}

// rpcFault makes a mock node answer a method with a JSON-RPC error.
type rpcFault struct {
	Code int
	Msg  string
	Data string
}

// mockNode is a scriptable JSON-RPC server. Responses map a method to either
// a result value or an rpcFault; responses can be swapped mid-test with Set.
// Unknown methods answer "method not found". Calls counts requests per
// method.
type mockNode struct {
	srv *httptest.Server

	mu        sync.Mutex
	responses map[string]interface{}
	calls     map[string]int
}

func newMockNode(t *testing.T, responses map[string]interface{}) *mockNode {
	t.Helper()
	n := &mockNode{
		responses: responses,
		calls:     make(map[string]int),
	}
	n.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			ID     int    `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		n.mu.Lock()
		n.calls[req.Method]++
		resp, ok := n.responses[req.Method]
		n.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			writeRPCError(w, req.ID, rpcFault{Code: -32601, Msg: "method not found"})
			return
		}
		if fault, isFault := resp.(rpcFault); isFault {
			writeRPCError(w, req.ID, fault)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  resp,
		})
	}))
	t.Cleanup(n.srv.Close)
	return n
}

func writeRPCError(w http.ResponseWriter, id int, fault rpcFault) {
	errObj := map[string]interface{}{"code": fault.Code, "message": fault.Msg}
	if fault.Data != "" {
		errObj["data"] = fault.Data
	}
	json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
		"jsonrpc": "2.0",
		"id":      id,
		"error":   errObj,
	})
}

// Set swaps the response for one method.
func (n *mockNode) Set(method string, resp interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.responses[method] = resp
}

// Calls returns how many times a method was requested.
func (n *mockNode) Calls(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

// poolFor returns a provider pool whose networkKey points at the mock node.
func (n *mockNode) poolFor(t *testing.T, networkKey string) *chain.ProviderPool {
	t.Helper()
	pool := chain.NewProviderPool(chain.NewRegistry())
	pool.SetOverride(networkKey, n.srv.URL)
	return pool
}

// receiptFor builds a successful deployment receipt result object.
func receiptFor(blockHex, contractAddr string) map[string]interface{} {
	return map[string]interface{}{
		"status":            "0x1",
		"blockNumber":       blockHex,
		"gasUsed":           "0x30D40", // 200000
		"effectiveGasPrice": "0x77359400",
		"contractAddress":   contractAddr,
	}
}
