package deploy

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/chainforge/evmdeploy/internal/contract"
	"github.com/chainforge/evmdeploy/internal/wallet"
)

// minBytecodeLen is the smallest creation bytecode accepted, in bytes.
// Anything shorter cannot hold even a trivial constructor plus runtime
// return, so it is certainly a truncated or mis-copied artifact.
const minBytecodeLen = 10

// Request describes one contract deployment.
type Request struct {
	Bytecode        string              // 0x-prefixed creation bytecode
	ABI             []contract.ABIEntry // may be nil for a no-constructor deploy
	ConstructorArgs []string
	Network         string // registry key, e.g. "sepolia"
	GasLimit        uint64 // 0 = estimate
	GasPriceWei     *big.Int
	ValueWei        *big.Int
	Signer          *wallet.Signer
}

// Result is the final outcome of a deployment attempt. Exactly one of the
// success or failure field sets is populated.
type Result struct {
	Success         bool
	ContractAddress string
	TxHash          string
	GasUsed         uint64
	GasPriceWei     *big.Int
	CostNative      string // gasUsed × effective price, in native units
	BlockNumber     uint64
	ExplorerURL     string
	BytecodeHash    string

	ErrorType   ErrorType
	Suggestions []string
	Message     string
	// TimedOut distinguishes a confirmation deadline expiring (the tx may
	// still land) from a genuine network failure; both classify as
	// network_error.
	TimedOut bool
}

// ValidateBytecode checks creation bytecode before any network call.
// Odd-length hex is rejected outright, never padded: a missing nibble means
// the artifact is corrupt and padding would deploy different code than the
// caller compiled.
func ValidateBytecode(bytecode string) error {
	if bytecode == "" {
		return &ValidationError{Field: "bytecode", Reason: "empty"}
	}
	if !strings.HasPrefix(bytecode, "0x") {
		return &ValidationError{Field: "bytecode", Reason: "missing 0x prefix"}
	}
	body := bytecode[2:]
	if body == "" {
		return &ValidationError{Field: "bytecode", Reason: "empty"}
	}
	if len(body)%2 != 0 {
		return &ValidationError{Field: "bytecode", Reason: "odd-length hex"}
	}
	for _, c := range body {
		if !isHexChar(c) {
			return &ValidationError{Field: "bytecode", Reason: fmt.Sprintf("invalid hex character %q", c)}
		}
	}
	if len(body)/2 < minBytecodeLen {
		return &ValidationError{
			Field:  "bytecode",
			Reason: fmt.Sprintf("too short: %d bytes, creation code needs at least %d", len(body)/2, minBytecodeLen),
		}
	}
	return nil
}

// ValidateConstructorArgs checks the supplied args against the ABI's
// constructor before encoding. A mismatch names every expected parameter so
// the caller can see what the constructor wants.
func ValidateConstructorArgs(abi []contract.ABIEntry, args []string) error {
	ctor := contract.Constructor(abi)

	var params []contract.ABIParam
	if ctor != nil {
		params = ctor.Inputs
	}

	if len(args) == len(params) {
		return nil
	}

	if len(params) == 0 {
		return &ValidationError{
			Field:  "constructor args",
			Reason: fmt.Sprintf("contract has no constructor parameters, got %d args", len(args)),
		}
	}

	names := make([]string, len(params))
	for i, p := range params {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		names[i] = name + " " + p.Type
	}
	return &ValidationError{
		Field: "constructor args",
		Reason: fmt.Sprintf("constructor expects %d parameters (%s), got %d",
			len(params), strings.Join(names, ", "), len(args)),
	}
}

func (r *Request) validate() error {
	if r.Signer == nil {
		return &ValidationError{Field: "signer", Reason: "missing"}
	}
	if r.Network == "" {
		return &ValidationError{Field: "network", Reason: "missing"}
	}
	if err := ValidateBytecode(r.Bytecode); err != nil {
		return err
	}
	if err := ValidateConstructorArgs(r.ABI, r.ConstructorArgs); err != nil {
		return err
	}
	if r.ValueWei != nil && r.ValueWei.Sign() < 0 {
		return &ValidationError{Field: "value", Reason: "negative"}
	}
	if r.GasPriceWei != nil && r.GasPriceWei.Sign() <= 0 {
		return &ValidationError{Field: "gas price", Reason: "must be positive"}
	}
	return nil
}

func isHexChar(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
