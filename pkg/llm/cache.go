package llm

import (
	"container/list"
	"crypto/md5"
	"fmt"
	"sync"
)

// cacheKey derives the LRU key for one call.
func cacheKey(prompt, system string, opts Options) string {
	sum := md5.Sum(fmt.Appendf(nil, "%s|%s|%g|%d", prompt, system, opts.Temperature, opts.MaxTokens))
	return fmt.Sprintf("%x", sum)
}

// lruCache is a fixed-capacity LRU over call results. Only successful
// responses enter the cache; a hit moves the entry to the front.
type lruCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

type lruEntry struct {
	key  string
	text string
}

func newLRUCache(capacity int) *lruCache {
	return &lruCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

func (c *lruCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry).text, true
}

func (c *lruCache) put(key, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		el.Value.(*lruEntry).text = text
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&lruEntry{key: key, text: text})
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*lruEntry).key)
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
