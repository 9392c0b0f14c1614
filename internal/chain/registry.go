package chain

import (
	"errors"
	"strings"
)

// ErrUnsupportedNetwork is returned when a network key is not in the registry.
var ErrUnsupportedNetwork = errors.New("unsupported network")

// Network holds all metadata for a single deployment target.
type Network struct {
	Key            string `json:"key"` // slug, e.g. "sepolia"
	DisplayName    string `json:"display_name"`
	ChainID        int64  `json:"chain_id"`
	RPCURL         string `json:"rpc_url"`
	ExplorerURL    string `json:"explorer_url"`
	NativeCurrency string `json:"native_currency"`
	// L2 rollups get a larger gas safety buffer — their gas accounting
	// (L1 data fees, compression) makes estimates less predictable.
	L2 bool `json:"l2"`
	// MinGasLimit is the floor for any deployment gas limit on this network.
	MinGasLimit uint64 `json:"min_gas_limit"`
	// FallbackGasLimit is used when estimation fails for a non-revert reason.
	FallbackGasLimit uint64 `json:"fallback_gas_limit"`
}

// GasBufferPct returns the proportional safety buffer applied on top of a
// network gas estimate.
func (n *Network) GasBufferPct() uint64 {
	if n.L2 {
		return 50
	}
	return 20
}

// Registry is the static network registry. Immutable after construction.
type Registry struct {
	networks []Network
	byKey    map[string]*Network
	byID     map[int64]*Network
}

// NewRegistry creates the registry of all supported networks.
func NewRegistry() *Registry {
	networks := allNetworks()
	r := &Registry{
		networks: networks,
		byKey:    make(map[string]*Network, len(networks)),
		byID:     make(map[int64]*Network, len(networks)),
	}
	for i := range r.networks {
		n := &r.networks[i]
		r.byKey[n.Key] = n
		r.byID[n.ChainID] = n
	}
	return r
}

// All returns every network in the registry.
func (r *Registry) All() []Network {
	return r.networks
}

// Resolve finds a network by its slug key (e.g. "sepolia", "base").
func (r *Registry) Resolve(key string) (*Network, error) {
	n, ok := r.byKey[strings.ToLower(key)]
	if !ok {
		return nil, ErrUnsupportedNetwork
	}
	return n, nil
}

// ByChainID finds a network by its numeric chain ID.
func (r *Registry) ByChainID(id int64) (*Network, error) {
	n, ok := r.byID[id]
	if !ok {
		return nil, ErrUnsupportedNetwork
	}
	return n, nil
}

// --- network data ---

func allNetworks() []Network {
	return []Network{
		{
			Key: "ethereum", DisplayName: "Ethereum", ChainID: 1,
			RPCURL:         "https://ethereum-rpc.publicnode.com",
			ExplorerURL:    "https://etherscan.io",
			NativeCurrency: "ETH",
			MinGasLimit:    100_000, FallbackGasLimit: 3_000_000,
		},
		{
			Key: "sepolia", DisplayName: "Sepolia", ChainID: 11155111,
			RPCURL:         "https://ethereum-sepolia-rpc.publicnode.com",
			ExplorerURL:    "https://sepolia.etherscan.io",
			NativeCurrency: "ETH",
			MinGasLimit:    100_000, FallbackGasLimit: 3_000_000,
		},
		{
			Key: "holesky", DisplayName: "Holesky", ChainID: 17000,
			RPCURL:         "https://ethereum-holesky-rpc.publicnode.com",
			ExplorerURL:    "https://holesky.etherscan.io",
			NativeCurrency: "ETH",
			MinGasLimit:    100_000, FallbackGasLimit: 3_000_000,
		},
		{
			Key: "polygon", DisplayName: "Polygon", ChainID: 137,
			RPCURL:         "https://polygon-bor-rpc.publicnode.com",
			ExplorerURL:    "https://polygonscan.com",
			NativeCurrency: "POL",
			MinGasLimit:    100_000, FallbackGasLimit: 3_000_000,
		},
		{
			Key: "polygon-amoy", DisplayName: "Polygon Amoy", ChainID: 80002,
			RPCURL:         "https://rpc-amoy.polygon.technology",
			ExplorerURL:    "https://amoy.polygonscan.com",
			NativeCurrency: "POL",
			MinGasLimit:    100_000, FallbackGasLimit: 3_000_000,
		},
		{
			Key: "bnb", DisplayName: "BNB Chain", ChainID: 56,
			RPCURL:         "https://bsc-rpc.publicnode.com",
			ExplorerURL:    "https://bscscan.com",
			NativeCurrency: "BNB",
			MinGasLimit:    100_000, FallbackGasLimit: 3_000_000,
		},
		{
			Key: "avalanche", DisplayName: "Avalanche C-Chain", ChainID: 43114,
			RPCURL:         "https://avalanche-c-chain-rpc.publicnode.com",
			ExplorerURL:    "https://snowtrace.io",
			NativeCurrency: "AVAX",
			MinGasLimit:    100_000, FallbackGasLimit: 3_000_000,
		},
		{
			Key: "arbitrum", DisplayName: "Arbitrum One", ChainID: 42161, L2: true,
			RPCURL:         "https://arb1.arbitrum.io/rpc",
			ExplorerURL:    "https://arbiscan.io",
			NativeCurrency: "ETH",
			MinGasLimit:    200_000, FallbackGasLimit: 5_000_000,
		},
		{
			Key: "optimism", DisplayName: "OP Mainnet", ChainID: 10, L2: true,
			RPCURL:         "https://mainnet.optimism.io",
			ExplorerURL:    "https://optimistic.etherscan.io",
			NativeCurrency: "ETH",
			MinGasLimit:    200_000, FallbackGasLimit: 5_000_000,
		},
		{
			Key: "base", DisplayName: "Base", ChainID: 8453, L2: true,
			RPCURL:         "https://mainnet.base.org",
			ExplorerURL:    "https://basescan.org",
			NativeCurrency: "ETH",
			MinGasLimit:    200_000, FallbackGasLimit: 5_000_000,
		},
		{
			Key: "base-sepolia", DisplayName: "Base Sepolia", ChainID: 84532, L2: true,
			RPCURL:         "https://sepolia.base.org",
			ExplorerURL:    "https://sepolia.basescan.org",
			NativeCurrency: "ETH",
			MinGasLimit:    200_000, FallbackGasLimit: 5_000_000,
		},
		{
			Key: "scroll", DisplayName: "Scroll", ChainID: 534352, L2: true,
			RPCURL:         "https://rpc.scroll.io",
			ExplorerURL:    "https://scrollscan.com",
			NativeCurrency: "ETH",
			MinGasLimit:    200_000, FallbackGasLimit: 5_000_000,
		},
		{
			Key: "linea", DisplayName: "Linea", ChainID: 59144, L2: true,
			RPCURL:         "https://rpc.linea.build",
			ExplorerURL:    "https://lineascan.build",
			NativeCurrency: "ETH",
			MinGasLimit:    200_000, FallbackGasLimit: 5_000_000,
		},
		{
			Key: "zksync", DisplayName: "zkSync Era", ChainID: 324, L2: true,
			RPCURL:         "https://mainnet.era.zksync.io",
			ExplorerURL:    "https://explorer.zksync.io",
			NativeCurrency: "ETH",
			MinGasLimit:    200_000, FallbackGasLimit: 5_000_000,
		},
	}
}
