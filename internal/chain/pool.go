package chain

import "sync"

// ProviderPool hands out one shared EVMClient per network key. Clients are
// created lazily on first use and cached for the life of the pool; there is
// no eviction.
type ProviderPool struct {
	registry *Registry

	mu        sync.RWMutex
	overrides map[string]string // network key -> RPC URL
	clients   map[string]*EVMClient
}

// NewProviderPool creates an empty pool over the given registry.
func NewProviderPool(registry *Registry) *ProviderPool {
	return &ProviderPool{
		registry:  registry,
		overrides: make(map[string]string),
		clients:   make(map[string]*EVMClient),
	}
}

// SetOverride points a network key at a custom RPC URL. Any cached client
// for that key is discarded so the next Get picks up the override.
func (p *ProviderPool) SetOverride(key, rpcURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.overrides[key] = rpcURL
	delete(p.clients, key)
}

// Get resolves a network key to its client and metadata. Unknown keys return
// ErrUnsupportedNetwork.
func (p *ProviderPool) Get(key string) (*EVMClient, *Network, error) {
	network, err := p.registry.Resolve(key)
	if err != nil {
		return nil, nil, err
	}

	p.mu.RLock()
	client, ok := p.clients[network.Key]
	p.mu.RUnlock()
	if ok {
		return client, network, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if client, ok := p.clients[network.Key]; ok {
		return client, network, nil
	}
	url := network.RPCURL
	if override, ok := p.overrides[network.Key]; ok {
		url = override
	}
	client = NewEVMClient(url)
	p.clients[network.Key] = client
	return client, network, nil
}
