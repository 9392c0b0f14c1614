package chain

import "strings"

// ExplorerTxURL builds the block-explorer URL for a transaction hash.
func ExplorerTxURL(n *Network, txHash string) string {
	if n == nil || n.ExplorerURL == "" {
		return ""
	}
	return strings.TrimRight(n.ExplorerURL, "/") + "/tx/" + txHash
}

// ExplorerAddressURL builds the block-explorer URL for an address.
func ExplorerAddressURL(n *Network, address string) string {
	if n == nil || n.ExplorerURL == "" {
		return ""
	}
	return strings.TrimRight(n.ExplorerURL, "/") + "/address/" + address
}
