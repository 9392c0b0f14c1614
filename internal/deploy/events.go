package deploy

// Stage identifies one step of the deployment pipeline, in order.
type Stage string

const (
	StageValidating           Stage = "validating"
	StageWalletReady          Stage = "wallet_ready"
	StageBalanceChecked       Stage = "balance_checked"
	StageBytecodeValidated    Stage = "bytecode_validated"
	StageConstructorValidated Stage = "constructor_validated"
	StageGasEstimated         Stage = "gas_estimated"
	StageSubmitted            Stage = "submitted"
	StageAwaitingReceipt      Stage = "awaiting_receipt"
	StageCompleted            Stage = "completed"
	StageFailed               Stage = "failed"
)

// Event is one progress notification emitted during a deployment.
type Event struct {
	Stage   Stage
	Message string
	TxHash  string // set once the transaction is broadcast
}

// Observer receives progress events. Implementations must be fast; events are
// delivered synchronously from the deployment goroutine.
type Observer interface {
	OnProgress(Event)
}

// ProgressFunc adapts a plain function to the Observer interface.
type ProgressFunc func(Event)

func (f ProgressFunc) OnProgress(e Event) { f(e) }

// nopObserver is used when the caller does not care about progress.
type nopObserver struct{}

func (nopObserver) OnProgress(Event) {}
