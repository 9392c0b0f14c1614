package contract

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// EncodeConstructorArgs ABI-encodes constructor arguments for appending to
// creation bytecode. Standard head/tail encoding: static params go directly
// into the head, dynamic params (string, bytes) put an offset in the head and
// their data in the tail. Arrays and tuples are not supported.
//
// Returns nil when the constructor takes no parameters.
func EncodeConstructorArgs(params []ABIParam, args []string) ([]byte, error) {
	if len(params) != len(args) {
		return nil, fmt.Errorf("constructor expects %d args, got %d", len(params), len(args))
	}
	if len(params) == 0 {
		return nil, nil
	}

	for _, p := range params {
		if strings.Contains(p.Type, "[") || strings.HasPrefix(p.Type, "tuple") {
			return nil, fmt.Errorf("parameter %q: array and tuple types are not yet supported", p.Name)
		}
	}

	headSize := len(params) * 32
	head := make([]byte, 0, headSize)
	var tail []byte

	for i, p := range params {
		if isDynamicType(p.Type) {
			// Offset from the start of the encoding to this param's data.
			head = appendUint256Big(head, big.NewInt(int64(headSize+len(tail))))
			data, err := encodeDynamicParam(p.Type, args[i])
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
			}
			tail = append(tail, data...)
		} else {
			word, err := encodeStaticParam(p.Type, args[i])
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
			}
			head = append(head, word...)
		}
	}

	return append(head, tail...), nil
}

// isDynamicType reports whether an ABI type uses tail (offset) encoding.
func isDynamicType(typ string) bool {
	return typ == "string" || typ == "bytes"
}

// encodeStaticParam encodes one static value into a 32-byte word.
func encodeStaticParam(typ, value string) ([]byte, error) {
	switch {
	case typ == "address":
		h := strings.TrimPrefix(value, "0x")
		if len(h) != 40 {
			return nil, fmt.Errorf("invalid address: %s", value)
		}
		b, err := hex.DecodeString(h)
		if err != nil {
			return nil, fmt.Errorf("invalid address: %s", value)
		}
		word := make([]byte, 32)
		copy(word[12:], b)
		return word, nil

	case strings.HasPrefix(typ, "uint"):
		n, ok := new(big.Int).SetString(value, 10)
		if !ok || n.Sign() < 0 {
			return nil, fmt.Errorf("invalid integer: %s", value)
		}
		return appendUint256Big(nil, n), nil

	case strings.HasPrefix(typ, "int"):
		n, ok := new(big.Int).SetString(value, 10)
		if !ok {
			return nil, fmt.Errorf("invalid integer: %s", value)
		}
		return padInt256(n), nil

	case typ == "bool":
		word := make([]byte, 32)
		switch strings.ToLower(value) {
		case "true", "1":
			word[31] = 1
		case "false", "0":
		default:
			return nil, fmt.Errorf("invalid bool: %s", value)
		}
		return word, nil

	case typ == "bytes32":
		h := strings.TrimPrefix(value, "0x")
		b, err := hex.DecodeString(h)
		if err != nil || len(b) > 32 {
			return nil, fmt.Errorf("invalid bytes32: %s", value)
		}
		word := make([]byte, 32)
		copy(word, b) // right-padded
		return word, nil

	default:
		return nil, fmt.Errorf("unsupported static type: %s", typ)
	}
}

// encodeDynamicParam encodes one dynamic value as length-prefixed,
// 32-byte-padded data.
func encodeDynamicParam(typ, value string) ([]byte, error) {
	switch typ {
	case "string":
		return encodeBytesData([]byte(value)), nil
	case "bytes":
		b, err := hex.DecodeString(strings.TrimPrefix(value, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid bytes hex: %s", value)
		}
		return encodeBytesData(b), nil
	default:
		return nil, fmt.Errorf("unsupported dynamic type: %s", typ)
	}
}

// encodeBytesData emits a uint256 length word followed by the data padded to
// a 32-byte boundary.
func encodeBytesData(data []byte) []byte {
	out := appendUint256Big(nil, big.NewInt(int64(len(data))))
	padded := make([]byte, roundUp32Bytes(len(data)))
	copy(padded, data)
	return append(out, padded...)
}

// appendUint256Big appends n as a 32-byte big-endian word.
func appendUint256Big(buf []byte, n *big.Int) []byte {
	word := make([]byte, 32)
	n.FillBytes(word)
	return append(buf, word...)
}

// padInt256 encodes a signed integer as a 32-byte two's-complement word.
func padInt256(n *big.Int) []byte {
	if n.Sign() >= 0 {
		word := make([]byte, 32)
		n.FillBytes(word)
		return word
	}
	mod := new(big.Int).Lsh(big.NewInt(1), 256)
	word := make([]byte, 32)
	new(big.Int).Add(mod, n).FillBytes(word)
	return word
}

// roundUp32Bytes rounds n up to the next multiple of 32.
func roundUp32Bytes(n int) int {
	return (n + 31) / 32 * 32
}
