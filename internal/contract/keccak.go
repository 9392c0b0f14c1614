package contract

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// CodeHash returns the 0x-prefixed keccak256 fingerprint of creation
// bytecode. Recorded on deployment results so identical contracts can be
// recognized across networks.
func CodeHash(bytecode []byte) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(bytecode) //nolint:errcheck
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
