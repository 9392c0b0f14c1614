package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ABIParam is one input or output parameter of an ABI entry.
type ABIParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ABIEntry is one entry in a contract ABI (function, event, constructor...).
type ABIEntry struct {
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	Inputs          []ABIParam `json:"inputs"`
	Outputs         []ABIParam `json:"outputs"`
	StateMutability string     `json:"stateMutability"`
}

// ParseABI parses a raw ABI JSON array.
func ParseABI(data []byte) ([]ABIEntry, error) {
	var abi []ABIEntry
	if err := json.Unmarshal(data, &abi); err != nil {
		data = bytes.TrimSpace(data)
		if len(data) > 0 && data[0] == '{' {
			return nil, fmt.Errorf("file is a JSON object, not an ABI array — if this is a Hardhat/Foundry artifact it must have an \"abi\" key")
		}
		return nil, fmt.Errorf("invalid ABI JSON: expected an array of function/event definitions, got parse error: %w", err)
	}
	return abi, nil
}

// Constructor returns the constructor entry of an ABI, or nil if the contract
// has no explicit constructor (implicit zero-arg constructor).
func Constructor(abi []ABIEntry) *ABIEntry {
	for i := range abi {
		if abi[i].Type == "constructor" {
			return &abi[i]
		}
	}
	return nil
}

// validateABI checks that the parsed ABI has at least one function, event or
// constructor entry.
func validateABI(abi []ABIEntry, path string) error {
	if len(abi) == 0 {
		return fmt.Errorf("ABI is empty (no functions or events found): %s", path)
	}
	for _, e := range abi {
		if e.Type == "function" || e.Type == "event" || e.Type == "constructor" {
			return nil
		}
	}
	return fmt.Errorf("ABI has %d entries but none are functions or events — check the file format: %s", len(abi), path)
}
