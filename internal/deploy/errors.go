package deploy

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/chainforge/evmdeploy/internal/chain"
)

// ErrorType is the closed set of failure classifications a deployment result
// can carry.
type ErrorType string

const (
	ErrTypeInsufficientFunds ErrorType = "insufficient_funds"
	ErrTypeGasPriceTooLow    ErrorType = "gas_price_too_low"
	ErrTypeNetworkError      ErrorType = "network_error"
	ErrTypeContractRevert    ErrorType = "contract_revert"
	ErrTypeGasError          ErrorType = "gas_error"
	ErrTypeInvalidArgument   ErrorType = "invalid_argument"
	ErrTypeUnknown           ErrorType = "unknown"
)

// ValidationError reports a request rejected before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientFundsError reports a deployer balance too low for the attempt.
type InsufficientFundsError struct {
	Address string
	Detail  string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds for %s: %s", e.Address, e.Detail)
}

// RevertError reports an execution revert, during estimation or on-chain.
type RevertError struct {
	Reason string // decoded revert reason, may be empty
	Data   string // raw revert data hex
}

func (e *RevertError) Error() string {
	if e.Reason != "" {
		return "execution reverted: " + e.Reason
	}
	return "execution reverted"
}

// TimeoutError reports a confirmation deadline expiring. The transaction may
// still confirm later.
type TimeoutError struct {
	TxHash string
	Detail string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for %s: %s", e.TxHash, e.Detail)
}

// Classification is the outcome of classifying a deployment failure.
type Classification struct {
	Type        ErrorType
	Suggestions []string
}

// Classify maps a deployment failure to an ErrorType plus user-facing
// suggestions. Typed errors and structured JSON-RPC codes are checked first;
// message substrings are the last resort for nodes that return generic codes.
func Classify(err error) Classification {
	if err == nil {
		return Classification{Type: ErrTypeUnknown}
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return Classification{
			Type: ErrTypeInvalidArgument,
			Suggestions: []string{
				"Check the " + vErr.Field + ": " + vErr.Reason,
			},
		}
	}

	var fundsErr *InsufficientFundsError
	if errors.As(err, &fundsErr) {
		return Classification{
			Type: ErrTypeInsufficientFunds,
			Suggestions: []string{
				"Fund the deployer address " + fundsErr.Address,
				"On testnets, use a faucet for the target network",
			},
		}
	}

	var revertErr *RevertError
	if errors.As(err, &revertErr) {
		s := []string{"Check the constructor logic and its require() conditions"}
		if revertErr.Reason != "" {
			s = append(s, "Revert reason: "+revertErr.Reason)
		} else {
			s = append(s, "The contract gave no revert reason; try the same deployment on a local node")
		}
		return Classification{Type: ErrTypeContractRevert, Suggestions: s}
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return Classification{
			Type: ErrTypeNetworkError,
			Suggestions: []string{
				"The transaction may still confirm; check " + timeoutErr.TxHash + " on the explorer",
				"Increase the confirmation timeout or gas price and retry",
			},
		}
	}

	var rpcErr *chain.RPCError
	if errors.As(err, &rpcErr) {
		if c, ok := classifyRPCCode(rpcErr); ok {
			return c
		}
	}

	return classifyMessage(err.Error())
}

// classifyRPCCode handles the structured JSON-RPC error codes (EIP-1474).
func classifyRPCCode(rpcErr *chain.RPCError) (Classification, bool) {
	switch rpcErr.Code {
	case 3: // execution reverted
		c := Classification{
			Type:        ErrTypeContractRevert,
			Suggestions: []string{"Check the constructor logic and its require() conditions"},
		}
		if reason := extractRevertReason(rpcErr.Data); reason != "" {
			c.Suggestions = append(c.Suggestions, "Revert reason: "+reason)
		}
		return c, true
	case -32602: // invalid params
		return Classification{
			Type:        ErrTypeInvalidArgument,
			Suggestions: []string{"One of the transaction fields was rejected by the node: " + rpcErr.Message},
		}, true
	case -32601, -32603, -32700:
		return Classification{
			Type:        ErrTypeNetworkError,
			Suggestions: []string{"The RPC endpoint misbehaved; try again or switch providers"},
		}, true
	}
	// -32000 is a grab bag (geth "server error"); fall through to the
	// message heuristics.
	return Classification{}, false
}

// classifyMessage is the substring fallback for nodes that hide everything
// behind code -32000 or plain transport errors.
func classifyMessage(msg string) Classification {
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "insufficient funds"),
		strings.Contains(lower, "insufficient balance"):
		return Classification{
			Type: ErrTypeInsufficientFunds,
			Suggestions: []string{
				"Fund the deployer address with enough native currency for gas",
				"On testnets, use a faucet for the target network",
			},
		}

	case strings.Contains(lower, "underpriced"),
		strings.Contains(lower, "fee cap less than block base fee"),
		strings.Contains(lower, "max fee per gas less than block base fee"):
		return Classification{
			Type: ErrTypeGasPriceTooLow,
			Suggestions: []string{
				"Retry without a manual gas price to use the network's current price",
				"Raise --gas-price above the pending base fee",
			},
		}

	case strings.Contains(lower, "execution reverted"),
		strings.Contains(lower, "revert"):
		return Classification{
			Type:        ErrTypeContractRevert,
			Suggestions: []string{"Check the constructor logic and its require() conditions"},
		}

	case strings.Contains(lower, "out of gas"),
		strings.Contains(lower, "intrinsic gas too low"),
		strings.Contains(lower, "exceeds block gas limit"),
		strings.Contains(lower, "gas required exceeds allowance"):
		return Classification{
			Type: ErrTypeGasError,
			Suggestions: []string{
				"Raise the gas limit with --gas",
				"Large contracts may exceed the network's block gas limit",
			},
		}

	case strings.Contains(lower, "nonce too low"),
		strings.Contains(lower, "already known"),
		strings.Contains(lower, "replacement transaction"):
		return Classification{
			Type:        ErrTypeInvalidArgument,
			Suggestions: []string{"Another transaction from this account is pending; wait for it or bump the nonce"},
		}

	case strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "timeout"),
		strings.Contains(lower, "deadline exceeded"),
		strings.Contains(lower, "no such host"),
		strings.Contains(lower, "rpc request failed"),
		strings.Contains(lower, "eof"):
		return Classification{
			Type: ErrTypeNetworkError,
			Suggestions: []string{
				"Check the RPC endpoint is reachable",
				"Configure a custom RPC for this network if the default is flaky",
			},
		}
	}

	return Classification{
		Type:        ErrTypeUnknown,
		Suggestions: []string{"Unrecognized failure: " + msg},
	}
}

// extractRevertReason decodes the reason string out of Error(string) revert
// data (selector 0x08c379a0).
func extractRevertReason(data string) string {
	hexStr := strings.TrimPrefix(strings.TrimSpace(data), "0x")
	if !strings.HasPrefix(hexStr, "08c379a0") {
		return ""
	}
	raw, err := hex.DecodeString(hexStr[8:])
	if err != nil || len(raw) < 64 {
		return ""
	}
	// offset word, then length word, then the string bytes.
	length := new(big.Int).SetBytes(raw[32:64]).Int64()
	if length < 0 || int64(len(raw)) < 64+length {
		return ""
	}
	return string(raw[64 : 64+length])
}
