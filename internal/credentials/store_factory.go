package credentials

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis"
)

// StoreFactory is the interface for components that hand out one Store per
// browser session.
type StoreFactory interface {
	// Store returns the Store for the given session. Repeated calls with the
	// same session ID return Stores that share state.
	Store(sessionID string) Store
	// Release discards any process-local state kept for the given session.
	Release(sessionID string)
}

type memoryStoreFactory struct {
	stores map[string]Store
	mu     sync.Mutex
}

// NewMemoryStoreFactory returns a StoreFactory whose Stores live in process
// memory.
func NewMemoryStoreFactory() StoreFactory {
	return &memoryStoreFactory{
		stores: map[string]Store{},
	}
}

func (m *memoryStoreFactory) Store(sessionID string) Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	store, ok := m.stores[sessionID]
	if !ok {
		store = NewMemoryStore()
		m.stores[sessionID] = store
	}
	return store
}

func (m *memoryStoreFactory) Release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, sessionID)
}

type redisStoreFactory struct {
	redisClient *redis.Client
	prefix      string
	ttl         time.Duration
}

// NewRedisStoreFactory returns a StoreFactory whose Stores are Redis hashes
// keyed by session ID. Stores survive restarts of the process and expire
// after the given TTL without a write.
func NewRedisStoreFactory(
	redisClient *redis.Client,
	prefix string,
	ttl time.Duration,
) StoreFactory {
	return &redisStoreFactory{
		redisClient: redisClient,
		prefix:      prefix,
		ttl:         ttl,
	}
}

func (r *redisStoreFactory) Store(sessionID string) Store {
	return NewRedisStore(
		r.redisClient,
		fmt.Sprintf("%scredentials:%s", r.prefix, sessionID),
		r.ttl,
	)
}

// Release is a no-op. Redis expires abandoned hashes on its own.
func (r *redisStoreFactory) Release(string) {}
