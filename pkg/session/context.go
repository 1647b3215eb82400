// Package session keeps bounded per-conversation state: current topic and
// hotel, the last retrieved chunks, and a TTL-evicted in-memory store.
package session

import (
	"sync"
	"time"

	"github.com/seoulstay/concierge/pkg/models"
)

// Context is one conversation's state. The store owns its lifecycle; a
// request reads and updates it through these methods only.
type Context struct {
	mu sync.Mutex

	sessionID      string
	currentTopic   string
	currentHotel   string
	lastChunks     []models.Chunk
	lastQuery      string
	topicTurnCount int
	lastActive     time.Time

	maxCachedChunks int
}

func newContext(id string, maxCachedChunks int) *Context {
	return &Context{
		sessionID:       id,
		lastActive:      time.Now(),
		maxCachedChunks: maxCachedChunks,
	}
}

// ID returns the session identifier.
func (c *Context) ID() string { return c.sessionID }

// Touch advances lastActive. lastActive only ever moves forward.
func (c *Context) Touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if now := time.Now(); now.After(c.lastActive) {
		c.lastActive = now
	}
}

// LastActive returns the most recent access time.
func (c *Context) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Snapshot is a copy of the mutable state for readers.
type Snapshot struct {
	SessionID      string
	CurrentTopic   string
	CurrentHotel   string
	LastChunks     []models.Chunk
	LastQuery      string
	TopicTurnCount int
	LastActive     time.Time
}

// Snapshot returns a consistent copy of the context.
func (c *Context) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	chunks := make([]models.Chunk, len(c.lastChunks))
	copy(chunks, c.lastChunks)
	return Snapshot{
		SessionID:      c.sessionID,
		CurrentTopic:   c.currentTopic,
		CurrentHotel:   c.currentHotel,
		LastChunks:     chunks,
		LastQuery:      c.lastQuery,
		TopicTurnCount: c.topicTurnCount,
		LastActive:     c.lastActive,
	}
}

// UpdateTopic applies the follow-up recognition rule: the same topic
// increments the turn counter, a new non-empty topic replaces it and resets
// the counter, and an empty topic preserves the current one. An empty hotel
// likewise preserves the current hotel.
func (c *Context) UpdateTopic(newTopic, newHotel string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case newTopic == "":
		// preserve — this is what makes bare follow-ups stick to the topic
	case newTopic == c.currentTopic:
		c.topicTurnCount++
	default:
		c.currentTopic = newTopic
		c.topicTurnCount = 1
	}

	if newHotel != "" {
		c.currentHotel = newHotel
	}
	if now := time.Now(); now.After(c.lastActive) {
		c.lastActive = now
	}
}

// CacheChunks remembers the latest retrieval results (bounded) and query.
func (c *Context) CacheChunks(query string, chunks []models.Chunk) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(chunks)
	if c.maxCachedChunks > 0 && n > c.maxCachedChunks {
		n = c.maxCachedChunks
	}
	c.lastChunks = make([]models.Chunk, n)
	copy(c.lastChunks, chunks[:n])
	c.lastQuery = query
}
