package ai

import (
	"strings"
	"sync"

	"github.com/tributolabs/fiscalis/internal/types"
)

// cacheKey normalizes a prompt for cache lookup: identical text modulo case
// and whitespace hits the same entry, regardless of caller or query type.
func cacheKey(prompt string) string {
	return strings.Join(strings.Fields(strings.ToLower(prompt)), " ")
}

// resultCache is a bounded FIFO cache of gateway results. Insertion order,
// not access order, decides eviction: a hot entry still ages out.
type resultCache struct {
	mu       sync.Mutex
	capacity int
	order    []string
	entries  map[string]types.AskAiResult
}

func newResultCache(capacity int) *resultCache {
	return &resultCache{
		capacity: capacity,
		entries:  make(map[string]types.AskAiResult, capacity),
	}
}

// get returns a deep copy of the cached result so callers can annotate or
// mutate it without corrupting the cache.
func (c *resultCache) get(key string) (types.AskAiResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return types.AskAiResult{}, false
	}
	return entry.Clone(), true
}

// put stores a copy of the result, evicting the oldest insertion when the
// capacity is exceeded. Overwriting an existing key keeps its original
// position in the eviction order.
func (c *resultCache) put(key string, value types.AskAiResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = value.Clone()

	if len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// len reports the current number of cached entries.
func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
