package chain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolGetCreatesClient(t *testing.T) {
	pool := NewProviderPool(NewRegistry())
	client, network, err := pool.Get("sepolia")
	require.NoError(t, err)
	assert.Equal(t, "sepolia", network.Key)
	assert.Equal(t, network.RPCURL, client.URL())
}

func TestPoolGetCachesClient(t *testing.T) {
	pool := NewProviderPool(NewRegistry())
	c1, _, err := pool.Get("base")
	require.NoError(t, err)
	c2, _, err := pool.Get("base")
	require.NoError(t, err)
	assert.Same(t, c1, c2)
}

func TestPoolGetUnknownNetwork(t *testing.T) {
	pool := NewProviderPool(NewRegistry())
	_, _, err := pool.Get("nope")
	assert.ErrorIs(t, err, ErrUnsupportedNetwork)
}

func TestPoolOverrideRPC(t *testing.T) {
	pool := NewProviderPool(NewRegistry())
	pool.SetOverride("sepolia", "http://127.0.0.1:8545")

	client, _, err := pool.Get("sepolia")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8545", client.URL())
}

func TestPoolOverrideDiscardsCachedClient(t *testing.T) {
	pool := NewProviderPool(NewRegistry())
	before, _, err := pool.Get("sepolia")
	require.NoError(t, err)

	pool.SetOverride("sepolia", "http://127.0.0.1:9999")
	after, _, err := pool.Get("sepolia")
	require.NoError(t, err)

	assert.NotSame(t, before, after)
	assert.Equal(t, "http://127.0.0.1:9999", after.URL())
}

func TestPoolConcurrentGet(t *testing.T) {
	pool := NewProviderPool(NewRegistry())
	var wg sync.WaitGroup
	clients := make([]*EVMClient, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, _, err := pool.Get("polygon")
			require.NoError(t, err)
			clients[i] = c
		}(i)
	}
	wg.Wait()
	for i := 1; i < 16; i++ {
		assert.Same(t, clients[0], clients[i])
	}
}
