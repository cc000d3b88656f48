package credentials

import "sync"

type memoryStore struct {
	pair Pair
	mu   sync.RWMutex
}

// NewMemoryStore returns a Store that keeps the Pair in process memory. It is
// useful for tests and for sessions that need not outlive the process.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (m *memoryStore) Read() (Pair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair, nil
}

func (m *memoryStore) Write(pair Pair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = pair
	return nil
}

func (m *memoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = Pair{}
	return nil
}
