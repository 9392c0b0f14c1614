package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKnownNetwork(t *testing.T) {
	r := NewRegistry()
	n, err := r.Resolve("sepolia")
	require.NoError(t, err)
	assert.Equal(t, int64(11155111), n.ChainID)
	assert.Equal(t, "Sepolia", n.DisplayName)
	assert.False(t, n.L2)
}

func TestResolveCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	n, err := r.Resolve("SEPOLIA")
	require.NoError(t, err)
	assert.Equal(t, "sepolia", n.Key)
}

func TestResolveUnknownNetwork(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve("dogechain")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedNetwork)
}

func TestResolveEmptyKey(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve("")
	assert.ErrorIs(t, err, ErrUnsupportedNetwork)
}

func TestByChainID(t *testing.T) {
	r := NewRegistry()
	n, err := r.ByChainID(8453)
	require.NoError(t, err)
	assert.Equal(t, "base", n.Key)
}

func TestByChainIDUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.ByChainID(99999)
	assert.ErrorIs(t, err, ErrUnsupportedNetwork)
}

func TestAllNetworksHaveRequiredFields(t *testing.T) {
	r := NewRegistry()
	networks := r.All()
	require.NotEmpty(t, networks)
	seen := make(map[int64]bool)
	for _, n := range networks {
		assert.NotEmpty(t, n.Key, "key missing")
		assert.NotEmpty(t, n.RPCURL, "%s: rpc url missing", n.Key)
		assert.NotEmpty(t, n.ExplorerURL, "%s: explorer missing", n.Key)
		assert.NotEmpty(t, n.NativeCurrency, "%s: currency missing", n.Key)
		assert.Positive(t, n.ChainID, "%s: chain id", n.Key)
		assert.Positive(t, n.MinGasLimit, "%s: min gas limit", n.Key)
		assert.Greater(t, n.FallbackGasLimit, n.MinGasLimit, "%s: fallback below floor", n.Key)
		assert.False(t, seen[n.ChainID], "%s: duplicate chain id", n.Key)
		seen[n.ChainID] = true
	}
}

func TestGasBufferPctL1(t *testing.T) {
	r := NewRegistry()
	n, err := r.Resolve("ethereum")
	require.NoError(t, err)
	assert.Equal(t, uint64(20), n.GasBufferPct())
}

func TestGasBufferPctL2(t *testing.T) {
	r := NewRegistry()
	for _, key := range []string{"arbitrum", "optimism", "base", "scroll", "linea", "zksync"} {
		n, err := r.Resolve(key)
		require.NoError(t, err)
		assert.True(t, n.L2, "%s should be marked L2", key)
		assert.Equal(t, uint64(50), n.GasBufferPct(), key)
	}
}
