package deploy

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/chainforge/evmdeploy/internal/chain"
	"github.com/chainforge/evmdeploy/internal/contract"
)

// Deployer runs contract deployments end to end: validation, gas planning,
// signing, broadcast, and confirmation.
type Deployer struct {
	pool      *chain.ProviderPool
	estimator *GasEstimator
	monitor   *Monitor
	observer  Observer

	// Confirmation settings applied to every deployment.
	Confirmations uint64
	PollInterval  time.Duration
	Timeout       time.Duration
}

// NewDeployer creates a deployer over the given pool. observer may be nil.
func NewDeployer(pool *chain.ProviderPool, observer Observer) *Deployer {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Deployer{
		pool:      pool,
		estimator: NewGasEstimator(pool),
		monitor:   NewMonitor(pool),
		observer:  observer,
	}
}

// Monitor exposes the deployer's transaction monitor for status queries and
// external watch sessions.
func (d *Deployer) Monitor() *Monitor {
	return d.monitor
}

// Deploy runs one deployment. It never returns a Go error: every failure is
// folded into the Result with a classified ErrorType and suggestions, so
// callers render one shape regardless of where the pipeline stopped.
func (d *Deployer) Deploy(ctx context.Context, req *Request) *Result {
	res := &Result{}

	d.emit(StageValidating, "validating deployment request", "")
	if err := req.validate(); err != nil {
		return d.fail(res, err)
	}

	client, network, err := d.pool.Get(req.Network)
	if err != nil {
		return d.fail(res, &ValidationError{Field: "network", Reason: err.Error()})
	}

	from := req.Signer.Address()
	d.emit(StageWalletReady, "deploying from "+from, "")

	balance, err := client.GetBalance(ctx, from)
	if err != nil {
		return d.fail(res, err)
	}
	if balance.Sign() == 0 {
		return d.fail(res, &InsufficientFundsError{
			Address: from,
			Detail:  "balance is zero on " + network.DisplayName,
		})
	}
	d.emit(StageBalanceChecked, fmt.Sprintf("balance %s %s", chain.WeiToNative(balance), network.NativeCurrency), "")

	// Validation already vetted the hex, so decoding cannot fail here.
	code, err := hex.DecodeString(strings.TrimPrefix(req.Bytecode, "0x"))
	if err != nil {
		return d.fail(res, &ValidationError{Field: "bytecode", Reason: err.Error()})
	}
	res.BytecodeHash = contract.CodeHash(code)
	d.emit(StageBytecodeValidated, fmt.Sprintf("creation bytecode %d bytes", len(code)), "")

	var ctorParams []contract.ABIParam
	if ctor := contract.Constructor(req.ABI); ctor != nil {
		ctorParams = ctor.Inputs
	}
	encodedArgs, err := contract.EncodeConstructorArgs(ctorParams, req.ConstructorArgs)
	if err != nil {
		return d.fail(res, &ValidationError{Field: "constructor args", Reason: err.Error()})
	}
	data := append(code, encodedArgs...)
	dataHex := "0x" + hex.EncodeToString(data)
	d.emit(StageConstructorValidated, fmt.Sprintf("%d constructor args encoded", len(req.ConstructorArgs)), "")

	gasLimit, gasPrice, baseFee, err := d.planGas(ctx, client, network, req, from, dataHex)
	if err != nil {
		return d.fail(res, err)
	}
	res.GasPriceWei = gasPrice
	feeCap := maxFeeCap(gasPrice, baseFee)
	d.emit(StageGasEstimated, fmt.Sprintf("gas limit %d at %.2f gwei", gasLimit, chain.WeiToGwei(gasPrice)), "")

	d.warnIfUnderfunded(balance, gasLimit, feeCap, req.ValueWei, network)

	nonce, err := client.GetPendingNonce(ctx, from)
	if err != nil {
		return d.fail(res, err)
	}

	predicted := crypto.CreateAddress(common.HexToAddress(from), nonce)
	value := req.ValueWei
	if value == nil {
		value = big.NewInt(0)
	}

	// EIP-1559 creation tx: tip = gas price, cap leaves room for base fee
	// bumps between estimate and inclusion.
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(network.ChainID),
		Nonce:     nonce,
		GasTipCap: gasPrice,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        nil,
		Value:     value,
		Data:      data,
	})

	raw, err := req.Signer.SignTx(tx, big.NewInt(network.ChainID))
	if err != nil {
		return d.fail(res, err)
	}

	txHash, err := client.SendRawTransaction(ctx, "0x"+hex.EncodeToString(raw))
	if err != nil {
		return d.fail(res, err)
	}
	res.TxHash = txHash
	d.emit(StageSubmitted, "predicted contract address "+predicted.Hex(), txHash)
	d.emit(StageAwaitingReceipt, "waiting for confirmations", txHash)

	status, err := d.monitor.WaitForConfirmation(ctx, req.Network, txHash, MonitorOptions{
		Confirmations: d.Confirmations,
		PollInterval:  d.PollInterval,
		Timeout:       d.Timeout,
	})
	if err != nil {
		var timeoutErr *TimeoutError
		if errors.As(err, &timeoutErr) {
			res.TimedOut = true
			res.Message = "confirmation timed out; the transaction may still succeed. Check the hash on the explorer"
		}
		return d.fail(res, err)
	}
	if status.State == StateFailed {
		return d.fail(res, &RevertError{})
	}

	res.BlockNumber = status.BlockNumber
	res.GasUsed = status.GasUsed
	res.ContractAddress = status.ContractAddress
	if status.EffectiveGasPrice != nil {
		res.GasPriceWei = status.EffectiveGasPrice
	}

	// A successful receipt is not proof of deployed code: verify the chain
	// actually has bytecode at the address.
	deployed, err := client.GetCode(ctx, status.ContractAddress)
	if err != nil {
		return d.fail(res, err)
	}
	if deployed == "" || deployed == "0x" {
		return d.fail(res, &RevertError{Reason: "no code at " + status.ContractAddress + " after deployment"})
	}

	cost := new(big.Int).Mul(new(big.Int).SetUint64(res.GasUsed), res.GasPriceWei)
	res.CostNative = chain.WeiToNative(cost)
	res.ExplorerURL = chain.ExplorerAddressURL(network, status.ContractAddress)

	return d.finalize(res)
}

// planGas resolves the gas limit, price, and base fee from explicit request
// values and the estimator.
func (d *Deployer) planGas(ctx context.Context, client *chain.EVMClient, network *chain.Network, req *Request, from, dataHex string) (uint64, *big.Int, *big.Int, error) {
	if req.GasLimit > 0 && req.GasPriceWei != nil {
		return req.GasLimit, req.GasPriceWei, nil, nil
	}

	est, err := d.estimator.estimate(ctx, client, network, from, dataHex, req.ValueWei)
	if err != nil {
		return 0, nil, nil, err
	}
	if est.UsedFallback {
		d.emit(StageGasEstimated, fmt.Sprintf("estimation failed (%s); using fallback limit %d", est.FallbackReason, est.GasLimit), "")
	}

	gasLimit := est.GasLimit
	if req.GasLimit > 0 {
		gasLimit = req.GasLimit
	}
	gasPrice := est.GasPriceWei
	if req.GasPriceWei != nil {
		gasPrice = req.GasPriceWei
	}
	return gasLimit, gasPrice, est.BaseFeeWei, nil
}

// maxFeeCap picks the EIP-1559 fee cap: twice the base fee plus the tip when
// the base fee is known, twice the gas price otherwise.
func maxFeeCap(gasPrice, baseFee *big.Int) *big.Int {
	if baseFee != nil {
		c := new(big.Int).Mul(baseFee, big.NewInt(2))
		return c.Add(c, gasPrice)
	}
	return new(big.Int).Mul(gasPrice, big.NewInt(2))
}

// warnIfUnderfunded emits a non-fatal progress note when the balance cannot
// cover the worst-case fee. The node is still asked to broadcast; it has the
// authoritative view.
func (d *Deployer) warnIfUnderfunded(balance *big.Int, gasLimit uint64, feeCap, value *big.Int, network *chain.Network) {
	maxFee := new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), feeCap)
	if value != nil {
		maxFee = maxFee.Add(maxFee, value)
	}
	if balance.Cmp(maxFee) < 0 {
		d.emit(StageBalanceChecked,
			fmt.Sprintf("warning: balance %s %s may not cover the max fee %s %s",
				chain.WeiToNative(balance), network.NativeCurrency,
				chain.WeiToNative(maxFee), network.NativeCurrency), "")
	}
}

// fail classifies err and folds it into a failure result.
func (d *Deployer) fail(res *Result, err error) *Result {
	c := Classify(err)
	res.Success = false
	res.ErrorType = c.Type
	res.Suggestions = c.Suggestions
	if res.Message == "" {
		res.Message = err.Error()
	}
	d.emit(StageFailed, res.Message, res.TxHash)
	return res
}

// finalize marks a result successful. Success is only ever set here, and only
// with both the contract address and the transaction hash present.
func (d *Deployer) finalize(res *Result) *Result {
	if res.ContractAddress == "" || res.TxHash == "" {
		return d.fail(res, fmt.Errorf("deployment finished without a contract address or hash"))
	}
	res.Success = true
	res.Message = "contract deployed at " + res.ContractAddress
	d.emit(StageCompleted, res.Message, res.TxHash)
	return res
}

func (d *Deployer) emit(stage Stage, msg, txHash string) {
	d.observer.OnProgress(Event{Stage: stage, Message: msg, TxHash: txHash})
}
