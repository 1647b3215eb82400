package rerank

import "sync"

// chunkKeyPrefix bounds the chunk portion of a cache key. Chunks routinely
// exceed a kilobyte; the first 200 bytes identify them well enough.
const chunkKeyPrefix = 200

// scoreCache is a bounded FIFO cache of raw cross-encoder scores keyed by
// (query, chunk prefix). FIFO keeps the implementation trivial; hit rates on
// follow-up turns are what matters, not precise recency.
type scoreCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]float64
	order    []string
}

func newScoreCache(capacity int) *scoreCache {
	return &scoreCache{
		capacity: capacity,
		entries:  make(map[string]float64, capacity),
	}
}

func pairKey(query, chunkText string) string {
	if len(chunkText) > chunkKeyPrefix {
		chunkText = chunkText[:chunkKeyPrefix]
	}
	return query + "\x00" + chunkText
}

func (c *scoreCache) get(key string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	score, ok := c.entries[key]
	return score, ok
}

func (c *scoreCache) put(key string, score float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; exists {
		c.entries[key] = score
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = score
	c.order = append(c.order, key)
}

func (c *scoreCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
