package history

import (
	"context"
	"sort"
	"sync"

	"github.com/joescharf/cq/internal/models"
)

// MemoryStore keeps history in process memory. Each key owns its own
// lock, so appends to different artifacts never contend while appends
// to the same artifact are serialized.
type MemoryStore struct {
	cap int

	mu      sync.RWMutex
	entries map[string]*keyHistory
}

type keyHistory struct {
	mu      sync.Mutex
	results []*models.ReviewResult
}

// NewMemoryStore creates a memory store with the given per-artifact
// cap. A non-positive cap uses the default.
func NewMemoryStore(maxPerArtifact int) *MemoryStore {
	if maxPerArtifact <= 0 {
		maxPerArtifact = models.DefaultMaxHistory
	}
	return &MemoryStore{
		cap:     maxPerArtifact,
		entries: make(map[string]*keyHistory),
	}
}

func (m *MemoryStore) forKey(key string) *keyHistory {
	m.mu.RLock()
	kh, ok := m.entries[key]
	m.mu.RUnlock()
	if ok {
		return kh
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if kh, ok = m.entries[key]; !ok {
		kh = &keyHistory{}
		m.entries[key] = kh
	}
	return kh
}

// Append adds a result to the key's history, evicting the oldest entry
// once the cap is reached.
func (m *MemoryStore) Append(ctx context.Context, key string, result *models.ReviewResult) error {
	if result.ID == "" {
		result.ID = newULID()
	}

	kh := m.forKey(key)
	kh.mu.Lock()
	defer kh.mu.Unlock()

	kh.results = append(kh.results, result)
	if len(kh.results) > m.cap {
		kh.results = kh.results[len(kh.results)-m.cap:]
	}
	return nil
}

// Latest returns the most recent result for the key, or (nil, nil).
func (m *MemoryStore) Latest(ctx context.Context, key string) (*models.ReviewResult, error) {
	kh := m.forKey(key)
	kh.mu.Lock()
	defer kh.mu.Unlock()

	if len(kh.results) == 0 {
		return nil, nil
	}
	return kh.results[len(kh.results)-1], nil
}

// All returns the key's history, oldest first.
func (m *MemoryStore) All(ctx context.Context, key string) ([]*models.ReviewResult, error) {
	kh := m.forKey(key)
	kh.mu.Lock()
	defer kh.mu.Unlock()

	out := make([]*models.ReviewResult, len(kh.results))
	copy(out, kh.results)
	return out, nil
}

// Keys returns every artifact key with at least one entry, sorted.
func (m *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k, kh := range m.entries {
		kh.mu.Lock()
		n := len(kh.results)
		kh.mu.Unlock()
		if n > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error { return nil }
