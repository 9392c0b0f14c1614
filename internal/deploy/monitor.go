package deploy

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/chainforge/evmdeploy/internal/chain"
)

// ErrMonitoringStopped reports a wait that ended because monitoring was
// cancelled — by Stop, StopAll, or the caller's context — before the
// transaction reached a terminal state. The transaction itself may still
// confirm.
var ErrMonitoringStopped = errors.New("monitoring stopped")

// TxState is the lifecycle state of a monitored transaction.
type TxState string

const (
	StatePending    TxState = "pending"    // no receipt yet
	StateConfirming TxState = "confirming" // mined, below the confirmation threshold
	StateConfirmed  TxState = "confirmed"  // threshold reached, status 1
	StateFailed     TxState = "failed"     // mined with status 0
	StateError      TxState = "error"      // polling failed irrecoverably
	StateTimedOut   TxState = "timed_out"  // deadline expired, tx may still confirm
)

// terminal reports whether a state ends monitoring.
func (s TxState) terminal() bool {
	switch s {
	case StateConfirmed, StateFailed, StateError, StateTimedOut:
		return true
	}
	return false
}

// TxStatus is a snapshot of a monitored transaction.
type TxStatus struct {
	TxHash            string
	State             TxState
	Confirmations     uint64
	BlockNumber       uint64
	GasUsed           uint64
	ContractAddress   string
	EffectiveGasPrice *big.Int
	Message           string
}

// MonitorOptions tunes one monitoring session. Zero values take the defaults.
type MonitorOptions struct {
	Confirmations uint64        // default 1
	PollInterval  time.Duration // default 5s
	Timeout       time.Duration // default 5m
}

func (o MonitorOptions) withDefaults() MonitorOptions {
	if o.Confirmations == 0 {
		o.Confirmations = 1
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 5 * time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Minute
	}
	return o
}

// Monitor tracks broadcast transactions until they confirm, fail, or time
// out. One polling goroutine runs per tracked hash.
type Monitor struct {
	pool *chain.ProviderPool

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	status TxStatus
}

func (s *session) snapshot() TxStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// NewMonitor creates a monitor over the given provider pool.
func NewMonitor(pool *chain.ProviderPool) *Monitor {
	return &Monitor{
		pool:     pool,
		sessions: make(map[string]*session),
	}
}

// Start begins monitoring txHash on networkKey. The callback fires on every
// status change and exactly once with a terminal state. Starting a hash that
// is already monitored cancels the previous session first.
func (m *Monitor) Start(ctx context.Context, networkKey, txHash string, opts MonitorOptions, onUpdate func(TxStatus)) error {
	_, err := m.start(ctx, networkKey, txHash, opts, onUpdate)
	return err
}

func (m *Monitor) start(ctx context.Context, networkKey, txHash string, opts MonitorOptions, onUpdate func(TxStatus)) (*session, error) {
	client, _, err := m.pool.Get(networkKey)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	sessCtx, cancel := context.WithCancel(ctx)
	s := &session{
		cancel: cancel,
		done:   make(chan struct{}),
		status: TxStatus{TxHash: txHash, State: StatePending},
	}

	m.mu.Lock()
	old := m.sessions[txHash]
	m.sessions[txHash] = s
	m.mu.Unlock()

	// Stop any previous session for this hash outside the lock; its
	// goroutine takes the same mutex during cleanup.
	if old != nil {
		old.cancel()
		<-old.done
	}

	go m.run(sessCtx, client, s, opts, onUpdate)
	return s, nil
}

// WaitForConfirmation monitors txHash and blocks until it reaches a terminal
// state or monitoring is cancelled. The returned status is always populated;
// the error is non-nil for timeouts (a TimeoutError), polling failures, and
// cancellation (wrapping ErrMonitoringStopped). A reverted transaction
// returns StateFailed with a nil error.
func (m *Monitor) WaitForConfirmation(ctx context.Context, networkKey, txHash string, opts MonitorOptions) (TxStatus, error) {
	final := make(chan TxStatus, 1)
	s, err := m.start(ctx, networkKey, txHash, opts, func(st TxStatus) {
		if st.State.terminal() {
			final <- st
		}
	})
	if err != nil {
		return TxStatus{TxHash: txHash, State: StateError, Message: err.Error()}, err
	}

	// Stop/StopAll and context cancellation end the session without a
	// terminal callback; the waiter must not be stranded on final.
	stopped := func() (TxStatus, error) {
		// A terminal callback may have raced the shutdown; prefer it.
		select {
		case st := <-final:
			return waitOutcome(st)
		default:
		}
		return s.snapshot(), fmt.Errorf("monitoring %s: %w", txHash, ErrMonitoringStopped)
	}

	select {
	case st := <-final:
		return waitOutcome(st)
	case <-ctx.Done():
		return stopped()
	case <-s.done:
		return stopped()
	}
}

// waitOutcome maps a terminal status to the wait result.
func waitOutcome(st TxStatus) (TxStatus, error) {
	switch st.State {
	case StateTimedOut:
		return st, &TimeoutError{TxHash: st.TxHash, Detail: st.Message}
	case StateError:
		return st, fmt.Errorf("monitoring %s: %s", st.TxHash, st.Message)
	}
	return st, nil
}

// Status returns the current snapshot for a monitored hash.
func (m *Monitor) Status(txHash string) (TxStatus, bool) {
	m.mu.Lock()
	s, ok := m.sessions[txHash]
	m.mu.Unlock()
	if !ok {
		return TxStatus{}, false
	}
	return s.snapshot(), true
}

// Active returns the hashes currently being monitored.
func (m *Monitor) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	hashes := make([]string, 0, len(m.sessions))
	for h := range m.sessions {
		hashes = append(hashes, h)
	}
	return hashes
}

// Stop cancels monitoring for one hash. Unknown hashes are a no-op. No
// terminal callback fires for a stopped session.
func (m *Monitor) Stop(txHash string) {
	m.mu.Lock()
	s, ok := m.sessions[txHash]
	if ok {
		delete(m.sessions, txHash)
	}
	m.mu.Unlock()
	if ok {
		s.cancel()
		<-s.done
	}
}

// StopAll cancels every active session.
func (m *Monitor) StopAll() {
	m.mu.Lock()
	all := make([]*session, 0, len(m.sessions))
	for h, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, h)
	}
	m.mu.Unlock()
	for _, s := range all {
		s.cancel()
		<-s.done
	}
}

func (m *Monitor) run(ctx context.Context, client *chain.EVMClient, s *session, opts MonitorOptions, onUpdate func(TxStatus)) {
	defer close(s.done)

	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(opts.Timeout)
	defer deadline.Stop()

	notify := func(st TxStatus) {
		s.mu.Lock()
		s.status = st
		s.mu.Unlock()
		if onUpdate != nil {
			onUpdate(st)
		}
	}

	finish := func(st TxStatus) {
		m.mu.Lock()
		if m.sessions[st.TxHash] == s {
			delete(m.sessions, st.TxHash)
		}
		m.mu.Unlock()
		notify(st)
	}

	// First poll immediately; the tx may already be mined. Poll errors are
	// tolerated a few times before the session is declared broken.
	const maxPollFailures = 3
	failures := 0
	for {
		st, pollErr := m.poll(ctx, client, s, opts)
		switch {
		case pollErr != nil && ctx.Err() == nil:
			failures++
			if failures >= maxPollFailures {
				s.mu.Lock()
				last := s.status
				s.mu.Unlock()
				last.State = StateError
				last.Message = "polling failed: " + pollErr.Error()
				finish(last)
				return
			}
		case st != nil:
			failures = 0
			if st.State.terminal() {
				finish(*st)
				return
			}
			notify(*st)
		}

		select {
		case <-ctx.Done():
			// Cancelled via Stop/StopAll or caller context: end quietly,
			// no terminal callback.
			return
		case <-deadline.C:
			s.mu.Lock()
			st := s.status
			s.mu.Unlock()
			st.State = StateTimedOut
			st.Message = "confirmation deadline expired; the transaction may still confirm"
			finish(st)
			return
		case <-ticker.C:
		}
	}
}

// poll performs one receipt check and returns the updated status, or the
// error the node gave.
func (m *Monitor) poll(ctx context.Context, client *chain.EVMClient, s *session, opts MonitorOptions) (*TxStatus, error) {
	s.mu.Lock()
	st := s.status
	s.mu.Unlock()

	receipt, err := client.GetTransactionReceipt(ctx, st.TxHash)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		st.State = StatePending
		return &st, nil
	}

	st.BlockNumber = receipt.BlockNumber
	st.GasUsed = receipt.GasUsed
	st.ContractAddress = receipt.ContractAddress
	st.EffectiveGasPrice = receipt.EffectiveGasPrice

	if receipt.Status == 0 {
		st.State = StateFailed
		st.Message = "transaction reverted on-chain"
		return &st, nil
	}

	head, err := client.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	// Blocks mined on top of the receipt's block. Confirmations never go
	// backwards even if a lagging node reports a lower head.
	var confs uint64
	if head >= receipt.BlockNumber {
		confs = head - receipt.BlockNumber
	}
	if confs > st.Confirmations {
		st.Confirmations = confs
	}

	if st.Confirmations >= opts.Confirmations {
		st.State = StateConfirmed
	} else {
		st.State = StateConfirming
	}
	return &st, nil
}
