package deploy

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainforge/evmdeploy/internal/chain"
)

// Error(string) revert data for revert reason "nope".
const revertDataNope = "0x08c379a0" +
	"0000000000000000000000000000000000000000000000000000000000000020" +
	"0000000000000000000000000000000000000000000000000000000000000004" +
	"6e6f706500000000000000000000000000000000000000000000000000000000"

func TestClassifyNil(t *testing.T) {
	c := Classify(nil)
	assert.Equal(t, ErrTypeUnknown, c.Type)
}

func TestClassifyValidationError(t *testing.T) {
	c := Classify(&ValidationError{Field: "bytecode", Reason: "odd-length hex"})
	assert.Equal(t, ErrTypeInvalidArgument, c.Type)
	require.NotEmpty(t, c.Suggestions)
	assert.Contains(t, c.Suggestions[0], "bytecode")
}

func TestClassifyInsufficientFundsTyped(t *testing.T) {
	c := Classify(&InsufficientFundsError{Address: "0xabc", Detail: "balance is zero"})
	assert.Equal(t, ErrTypeInsufficientFunds, c.Type)
	assert.Contains(t, c.Suggestions[0], "0xabc")
}

func TestClassifyRevertTypedWithReason(t *testing.T) {
	c := Classify(&RevertError{Reason: "Ownable: caller is not the owner"})
	assert.Equal(t, ErrTypeContractRevert, c.Type)
	found := false
	for _, s := range c.Suggestions {
		if s == "Revert reason: Ownable: caller is not the owner" {
			found = true
		}
	}
	assert.True(t, found, "revert reason should surface in suggestions")
}

func TestClassifyTimeoutTyped(t *testing.T) {
	c := Classify(&TimeoutError{TxHash: "0xdead", Detail: "deadline expired"})
	assert.Equal(t, ErrTypeNetworkError, c.Type)
	assert.Contains(t, c.Suggestions[0], "0xdead")
}

func TestClassifyWrappedTypedError(t *testing.T) {
	err := fmt.Errorf("deploying: %w", &InsufficientFundsError{Address: "0x1", Detail: "zero"})
	c := Classify(err)
	assert.Equal(t, ErrTypeInsufficientFunds, c.Type)
}

// Structured JSON-RPC codes beat message sniffing.

func TestClassifyRPCCodeRevert(t *testing.T) {
	err := &chain.RPCError{Code: 3, Message: "execution reverted", Data: revertDataNope}
	c := Classify(err)
	assert.Equal(t, ErrTypeContractRevert, c.Type)
	found := false
	for _, s := range c.Suggestions {
		if s == "Revert reason: nope" {
			found = true
		}
	}
	assert.True(t, found, "decoded reason should surface: %v", c.Suggestions)
}

func TestClassifyRPCCodeInvalidParams(t *testing.T) {
	// An -32602 with a misleading message must still classify by code.
	err := &chain.RPCError{Code: -32602, Message: "value would revert the cap"}
	c := Classify(err)
	assert.Equal(t, ErrTypeInvalidArgument, c.Type)
}

func TestClassifyRPCCodeInternalError(t *testing.T) {
	err := &chain.RPCError{Code: -32603, Message: "internal error"}
	c := Classify(err)
	assert.Equal(t, ErrTypeNetworkError, c.Type)
}

// -32000 carries no meaning, so the message decides.

func TestClassifyGenericCodeInsufficientFunds(t *testing.T) {
	err := &chain.RPCError{Code: -32000, Message: "insufficient funds for gas * price + value"}
	c := Classify(err)
	assert.Equal(t, ErrTypeInsufficientFunds, c.Type)
}

func TestClassifyGenericCodeUnderpriced(t *testing.T) {
	err := &chain.RPCError{Code: -32000, Message: "transaction underpriced"}
	c := Classify(err)
	assert.Equal(t, ErrTypeGasPriceTooLow, c.Type)
}

func TestClassifyGenericCodeBaseFee(t *testing.T) {
	err := &chain.RPCError{Code: -32000, Message: "max fee per gas less than block base fee"}
	c := Classify(err)
	assert.Equal(t, ErrTypeGasPriceTooLow, c.Type)
}

func TestClassifyGenericCodeOutOfGas(t *testing.T) {
	err := &chain.RPCError{Code: -32000, Message: "gas required exceeds allowance"}
	c := Classify(err)
	assert.Equal(t, ErrTypeGasError, c.Type)
}

func TestClassifyGenericCodeNonceTooLow(t *testing.T) {
	err := &chain.RPCError{Code: -32000, Message: "nonce too low"}
	c := Classify(err)
	assert.Equal(t, ErrTypeInvalidArgument, c.Type)
}

func TestClassifyTransportError(t *testing.T) {
	c := Classify(errors.New("RPC request failed: dial tcp: connection refused"))
	assert.Equal(t, ErrTypeNetworkError, c.Type)
}

func TestClassifyUnknown(t *testing.T) {
	c := Classify(errors.New("splines failed to reticulate"))
	assert.Equal(t, ErrTypeUnknown, c.Type)
	require.NotEmpty(t, c.Suggestions)
	assert.Contains(t, c.Suggestions[0], "splines")
}

// ---------------------------------------------------------------------------
// extractRevertReason
// ---------------------------------------------------------------------------

func TestExtractRevertReason(t *testing.T) {
	assert.Equal(t, "nope", extractRevertReason(revertDataNope))
}

func TestExtractRevertReasonWrongSelector(t *testing.T) {
	assert.Equal(t, "", extractRevertReason("0xdeadbeef"))
}

func TestExtractRevertReasonEmpty(t *testing.T) {
	assert.Equal(t, "", extractRevertReason(""))
}

func TestExtractRevertReasonTruncated(t *testing.T) {
	assert.Equal(t, "", extractRevertReason("0x08c379a000ff"))
}
