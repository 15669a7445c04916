package service

import (
	"sync"

	"github.com/TrustArcade/trustgate/internal/config"
	"github.com/TrustArcade/trustgate/internal/model"
	"golang.org/x/time/rate"
)

// ClientManager tracks the API clients allowed to call the gateway and their
// rate limiters.
type ClientManager struct {
	mu            sync.RWMutex
	clients       map[string]*model.APIClient // Key: API key
	limiters      map[string]*rate.Limiter    // Key: client ID
	defaultClient *model.APIClient
}

func NewClientManager(cfg *config.Config) *ClientManager {
	cm := &ClientManager{
		clients:  make(map[string]*model.APIClient),
		limiters: make(map[string]*rate.Limiter),
	}

	if len(cfg.Clients) > 0 {
		for _, c := range cfg.Clients {
			cm.Register(&model.APIClient{
				ID:     c.ID,
				Name:   c.Name,
				ApiKey: c.APIKey,
				Rate:   model.RateLimitConfig{QPS: c.QPS, Burst: c.Burst},
			})
		}
		return cm
	}

	// Single-consumer mode: one default client, optionally keyed.
	if !cfg.Auth.RequireAPIKey || cfg.Auth.APIKey != "" {
		defaultClient := &model.APIClient{
			ID:     "default-client",
			Name:   "Default Consumer",
			ApiKey: cfg.Auth.APIKey,
			Rate:   model.RateLimitConfig{QPS: 50, Burst: 100},
		}
		cm.Register(defaultClient)
		cm.defaultClient = defaultClient
	}

	return cm
}

func (cm *ClientManager) Register(c *model.APIClient) {
	if c == nil {
		return
	}
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.clients[c.ApiKey] = c

	limit := rate.Limit(c.Rate.QPS)
	if limit == 0 {
		limit = rate.Inf
	}
	burst := c.Rate.Burst
	if burst == 0 {
		burst = 1
	}
	cm.limiters[c.ID] = rate.NewLimiter(limit, burst)
}

func (cm *ClientManager) GetByApiKey(apiKey string) (*model.APIClient, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	c, ok := cm.clients[apiKey]
	return c, ok
}

func (cm *ClientManager) DefaultClient() *model.APIClient {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.defaultClient
}

func (cm *ClientManager) GetLimiter(clientID string) *rate.Limiter {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.limiters[clientID]
}
