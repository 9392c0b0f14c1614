package deploy

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/chainforge/evmdeploy/internal/chain"
)

// Estimate is the gas plan for one deployment.
type Estimate struct {
	GasLimit    uint64
	GasPriceWei *big.Int
	BaseFeeWei  *big.Int // latest block base fee, nil on legacy chains

	// UsedFallback is set when the node could not estimate and the network's
	// static fallback limit was used instead. FallbackReason keeps the node's
	// original error message.
	UsedFallback   bool
	FallbackReason string
}

// GasEstimator plans gas limit and price for creation transactions.
type GasEstimator struct {
	pool *chain.ProviderPool
}

// NewGasEstimator creates an estimator over the given provider pool.
func NewGasEstimator(pool *chain.ProviderPool) *GasEstimator {
	return &GasEstimator{pool: pool}
}

// Estimate asks the node for a creation gas estimate and applies the
// network's safety buffer and floor. Estimation failures fall back to the
// network's static limit, except reverts: a constructor that reverts during
// estimation will revert on-chain too, so the deployment is aborted instead
// of burning gas.
func (g *GasEstimator) Estimate(ctx context.Context, networkKey, from, data string, value *big.Int) (*Estimate, error) {
	client, network, err := g.pool.Get(networkKey)
	if err != nil {
		return nil, err
	}
	return g.estimate(ctx, client, network, from, data, value)
}

func (g *GasEstimator) estimate(ctx context.Context, client *chain.EVMClient, network *chain.Network, from, data string, value *big.Int) (*Estimate, error) {
	est := &Estimate{}

	raw, err := client.EstimateGas(ctx, from, "", data, value)
	if err != nil {
		if revertErr := asRevert(err); revertErr != nil {
			return nil, revertErr
		}
		est.UsedFallback = true
		est.FallbackReason = err.Error()
		est.GasLimit = network.FallbackGasLimit
	} else {
		est.GasLimit = applyBuffer(raw, network.GasBufferPct())
	}

	if est.GasLimit < network.MinGasLimit {
		est.GasLimit = network.MinGasLimit
	}

	fd, err := client.GetFeeData(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching gas price: %w", err)
	}
	est.GasPriceWei = fd.GasPrice
	est.BaseFeeWei = fd.BaseFee

	return est, nil
}

// applyBuffer adds pct percent on top of a raw estimate.
func applyBuffer(gas, pct uint64) uint64 {
	return gas + gas*pct/100
}

// asRevert converts an estimation RPC error into a RevertError when the node
// reports an execution revert, nil otherwise.
func asRevert(err error) error {
	var rpcErr *chain.RPCError
	if !errors.As(err, &rpcErr) {
		return nil
	}
	if rpcErr.Code == 3 {
		return &RevertError{
			Reason: extractRevertReason(rpcErr.Data),
			Data:   rpcErr.Data,
		}
	}
	// Some nodes report reverts under the generic -32000 code.
	if strings.Contains(strings.ToLower(rpcErr.Message), "revert") {
		return &RevertError{
			Reason: extractRevertReason(rpcErr.Data),
			Data:   rpcErr.Data,
		}
	}
	return nil
}
