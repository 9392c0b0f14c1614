package deploy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTxHash = "0xaabbccddeeff00112233445566778899aabbccddeeff00112233445566778899"

func fastOpts() MonitorOptions {
	return MonitorOptions{
		Confirmations: 1,
		PollInterval:  10 * time.Millisecond,
		Timeout:       2 * time.Second,
	}
}

func TestWaitForConfirmationConfirmed(t *testing.T) {
	node := newMockNode(t, map[string]interface{}{
		"eth_getTransactionReceipt": receiptFor("0x64", "0x5FbDB2315678afecb367f032d93F642f64180aa3"), // block 100
		"eth_blockNumber":           "0x65",                                                          // head 101
	})
	m := NewMonitor(node.poolFor(t, "sepolia"))

	st, err := m.WaitForConfirmation(context.Background(), "sepolia", testTxHash, fastOpts())
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, st.State)
	assert.Equal(t, uint64(1), st.Confirmations)
	assert.Equal(t, uint64(100), st.BlockNumber)
	assert.Equal(t, "0x5FbDB2315678afecb367f032d93F642f64180aa3", st.ContractAddress)
}

func TestWaitForConfirmationPendingThenConfirmed(t *testing.T) {
	node := newMockNode(t, map[string]interface{}{
		"eth_getTransactionReceipt": nil, // pending
		"eth_blockNumber":           "0x65",
	})
	m := NewMonitor(node.poolFor(t, "sepolia"))

	go func() {
		time.Sleep(50 * time.Millisecond)
		node.Set("eth_getTransactionReceipt", receiptFor("0x64", "0xc0ffee254729296a45a3885639AC7E10F9d54979"))
	}()

	st, err := m.WaitForConfirmation(context.Background(), "sepolia", testTxHash, fastOpts())
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, st.State)
}

func TestWaitForConfirmationRevertedIsFailedNotError(t *testing.T) {
	node := newMockNode(t, map[string]interface{}{
		"eth_getTransactionReceipt": map[string]interface{}{
			"status":      "0x0",
			"blockNumber": "0x64",
			"gasUsed":     "0x30D40",
		},
	})
	m := NewMonitor(node.poolFor(t, "sepolia"))

	st, err := m.WaitForConfirmation(context.Background(), "sepolia", testTxHash, fastOpts())
	require.NoError(t, err) // on-chain revert is a resolved outcome, not a monitoring error
	assert.Equal(t, StateFailed, st.State)
	assert.Equal(t, uint64(200000), st.GasUsed)
}

func TestWaitForConfirmationTimeout(t *testing.T) {
	node := newMockNode(t, map[string]interface{}{
		"eth_getTransactionReceipt": nil, // forever pending
	})
	m := NewMonitor(node.poolFor(t, "sepolia"))

	opts := fastOpts()
	opts.Timeout = 150 * time.Millisecond

	start := time.Now()
	st, err := m.WaitForConfirmation(context.Background(), "sepolia", testTxHash, opts)
	elapsed := time.Since(start)

	require.Error(t, err)
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, StateTimedOut, st.State)
	assert.GreaterOrEqual(t, elapsed, 140*time.Millisecond)
	assert.Less(t, elapsed, 1*time.Second)

	// Session must be cleaned up after the terminal state.
	assert.Empty(t, m.Active())
}

func TestWaitForConfirmationThresholdHolds(t *testing.T) {
	// Head equals the receipt block: zero blocks on top, so with a
	// threshold of 2 the tx stays confirming until the head advances.
	node := newMockNode(t, map[string]interface{}{
		"eth_getTransactionReceipt": receiptFor("0x64", "0xc0ffee254729296a45a3885639AC7E10F9d54979"),
		"eth_blockNumber":           "0x64",
	})
	m := NewMonitor(node.poolFor(t, "sepolia"))

	opts := fastOpts()
	opts.Confirmations = 2

	go func() {
		time.Sleep(60 * time.Millisecond)
		node.Set("eth_blockNumber", "0x66") // head 102 → 2 confirmations
	}()

	st, err := m.WaitForConfirmation(context.Background(), "sepolia", testTxHash, opts)
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, st.State)
	assert.Equal(t, uint64(2), st.Confirmations)
}

func TestConfirmationsNeverDecrease(t *testing.T) {
	// A lagging node reports a lower head mid-stream; the published
	// confirmation count must not go backwards.
	node := newMockNode(t, map[string]interface{}{
		"eth_getTransactionReceipt": receiptFor("0x64", "0xc0ffee254729296a45a3885639AC7E10F9d54979"),
		"eth_blockNumber":           "0x64", // head at the receipt block
	})
	m := NewMonitor(node.poolFor(t, "sepolia"))

	var mu sync.Mutex
	var seen []uint64
	opts := fastOpts()
	opts.Confirmations = 5

	done := make(chan struct{})
	err := m.Start(context.Background(), "sepolia", testTxHash, opts, func(st TxStatus) {
		mu.Lock()
		seen = append(seen, st.Confirmations)
		mu.Unlock()
		if st.State.terminal() {
			close(done)
		}
	})
	require.NoError(t, err)

	for _, head := range []string{"0x67", "0x65", "0x69"} { // 103, 101, 105
		node.Set("eth_blockNumber", head)
		time.Sleep(30 * time.Millisecond)
	}
	<-done

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1], "confirmations regressed at update %d: %v", i, seen)
	}
	assert.Equal(t, uint64(5), seen[len(seen)-1])
}

func TestWaitForConfirmationReturnsOnContextCancel(t *testing.T) {
	node := newMockNode(t, map[string]interface{}{
		"eth_getTransactionReceipt": nil, // forever pending
	})
	m := NewMonitor(node.poolFor(t, "sepolia"))

	ctx, cancel := context.WithCancel(context.Background())
	type outcome struct {
		st  TxStatus
		err error
	}
	res := make(chan outcome, 1)
	go func() {
		st, err := m.WaitForConfirmation(ctx, "sepolia", testTxHash, fastOpts())
		res <- outcome{st, err}
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case out := <-res:
		require.Error(t, out.err)
		assert.ErrorIs(t, out.err, ErrMonitoringStopped)
		assert.False(t, out.st.State.terminal(), "a cancelled wait must not fabricate a terminal state")
	case <-time.After(1 * time.Second):
		t.Fatal("WaitForConfirmation did not return after context cancellation")
	}
}

func TestWaitForConfirmationReturnsOnStop(t *testing.T) {
	node := newMockNode(t, map[string]interface{}{
		"eth_getTransactionReceipt": nil, // forever pending
	})
	m := NewMonitor(node.poolFor(t, "sepolia"))

	type outcome struct {
		st  TxStatus
		err error
	}
	res := make(chan outcome, 1)
	go func() {
		st, err := m.WaitForConfirmation(context.Background(), "sepolia", testTxHash, fastOpts())
		res <- outcome{st, err}
	}()

	time.Sleep(50 * time.Millisecond)
	m.Stop(testTxHash)

	select {
	case out := <-res:
		require.Error(t, out.err)
		assert.ErrorIs(t, out.err, ErrMonitoringStopped)
		var timeoutErr *TimeoutError
		assert.False(t, errors.As(out.err, &timeoutErr), "a stopped wait is not a timeout")
		assert.NotEqual(t, StateFailed, out.st.State)
	case <-time.After(1 * time.Second):
		t.Fatal("WaitForConfirmation did not return after Stop")
	}
	assert.Empty(t, m.Active())
}

func TestStopUnknownHashIsNoOp(t *testing.T) {
	node := newMockNode(t, map[string]interface{}{})
	m := NewMonitor(node.poolFor(t, "sepolia"))
	m.Stop("0xnothere") // must not panic or block
	m.StopAll()
}

func TestStopEndsSessionWithoutTerminalCallback(t *testing.T) {
	node := newMockNode(t, map[string]interface{}{
		"eth_getTransactionReceipt": nil, // forever pending
	})
	m := NewMonitor(node.poolFor(t, "sepolia"))

	var terminal atomic.Bool
	err := m.Start(context.Background(), "sepolia", testTxHash, fastOpts(), func(st TxStatus) {
		if st.State.terminal() {
			terminal.Store(true)
		}
	})
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond)

	m.Stop(testTxHash)
	assert.Empty(t, m.Active())

	time.Sleep(50 * time.Millisecond)
	assert.False(t, terminal.Load(), "stopped session must not fire a terminal callback")
}

func TestDuplicateStartReplacesSession(t *testing.T) {
	node := newMockNode(t, map[string]interface{}{
		"eth_getTransactionReceipt": nil,
	})
	m := NewMonitor(node.poolFor(t, "sepolia"))

	var firstUpdates atomic.Int64
	require.NoError(t, m.Start(context.Background(), "sepolia", testTxHash, fastOpts(), func(TxStatus) {
		firstUpdates.Add(1)
	}))
	time.Sleep(30 * time.Millisecond)

	require.NoError(t, m.Start(context.Background(), "sepolia", testTxHash, fastOpts(), func(TxStatus) {}))

	// Only one session remains for the hash.
	assert.Equal(t, []string{testTxHash}, m.Active())

	countAfterReplace := firstUpdates.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, countAfterReplace, firstUpdates.Load(), "replaced session kept polling")

	m.StopAll()
}

func TestStatusSnapshot(t *testing.T) {
	node := newMockNode(t, map[string]interface{}{
		"eth_getTransactionReceipt": nil,
	})
	m := NewMonitor(node.poolFor(t, "sepolia"))

	require.NoError(t, m.Start(context.Background(), "sepolia", testTxHash, fastOpts(), nil))
	time.Sleep(30 * time.Millisecond)

	st, ok := m.Status(testTxHash)
	require.True(t, ok)
	assert.Equal(t, StatePending, st.State)
	assert.Equal(t, testTxHash, st.TxHash)

	_, ok = m.Status("0xother")
	assert.False(t, ok)

	m.StopAll()
}

func TestPollFailuresEventuallyError(t *testing.T) {
	node := newMockNode(t, map[string]interface{}{
		"eth_getTransactionReceipt": rpcFault{Code: -32603, Msg: "internal error"},
	})
	m := NewMonitor(node.poolFor(t, "sepolia"))

	st, err := m.WaitForConfirmation(context.Background(), "sepolia", testTxHash, fastOpts())
	require.Error(t, err)
	assert.Equal(t, StateError, st.State)
	assert.Contains(t, st.Message, "internal error")
	assert.Empty(t, m.Active())
}

func TestStartUnknownNetwork(t *testing.T) {
	node := newMockNode(t, map[string]interface{}{})
	m := NewMonitor(node.poolFor(t, "sepolia"))
	err := m.Start(context.Background(), "dogechain", testTxHash, fastOpts(), nil)
	require.Error(t, err)
}
