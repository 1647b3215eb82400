package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/models"
)

func testSessionCfg() config.SessionConfig {
	cfg := config.Defaults().Session
	cfg.MaxSessions = 3
	return cfg
}

func TestStoreGetOrCreate(t *testing.T) {
	t.Run("empty id creates new session", func(t *testing.T) {
		store := NewStore(testSessionCfg())
		ctx := store.GetOrCreate("")
		assert.NotEmpty(t, ctx.ID())
		assert.Equal(t, 1, store.Len())
	})

	t.Run("same id returns same context", func(t *testing.T) {
		store := NewStore(testSessionCfg())
		a := store.GetOrCreate("s1")
		b := store.GetOrCreate("s1")
		assert.Same(t, a, b)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("expired session is replaced with a fresh one", func(t *testing.T) {
		cfg := testSessionCfg()
		cfg.TTL = 10 * time.Millisecond
		store := NewStore(cfg)

		a := store.GetOrCreate("s1")
		a.UpdateTopic("breakfast", "josun_palace")
		time.Sleep(20 * time.Millisecond)

		b := store.GetOrCreate("s1")
		assert.NotSame(t, a, b)
		assert.Empty(t, b.Snapshot().CurrentTopic)
	})

	t.Run("capacity eviction removes the oldest", func(t *testing.T) {
		store := NewStore(testSessionCfg())
		first := store.GetOrCreate("old")
		_ = first
		time.Sleep(time.Millisecond)
		store.GetOrCreate("mid")
		time.Sleep(time.Millisecond)
		store.GetOrCreate("new")
		store.GetOrCreate("overflow")

		assert.Equal(t, 3, store.Len())
		_, ok := store.Get("old")
		assert.False(t, ok)
	})
}

func TestContextUpdateTopic(t *testing.T) {
	ctx := newContext("s", 5)

	t.Run("new topic resets counter", func(t *testing.T) {
		ctx.UpdateTopic("breakfast", "josun_palace")
		snap := ctx.Snapshot()
		assert.Equal(t, "breakfast", snap.CurrentTopic)
		assert.Equal(t, 1, snap.TopicTurnCount)
		assert.Equal(t, "josun_palace", snap.CurrentHotel)
	})

	t.Run("same topic increments counter", func(t *testing.T) {
		ctx.UpdateTopic("breakfast", "")
		snap := ctx.Snapshot()
		assert.Equal(t, 2, snap.TopicTurnCount)
		assert.Equal(t, "josun_palace", snap.CurrentHotel, "empty hotel preserves")
	})

	t.Run("empty topic preserves current", func(t *testing.T) {
		ctx.UpdateTopic("", "")
		snap := ctx.Snapshot()
		assert.Equal(t, "breakfast", snap.CurrentTopic)
		assert.Equal(t, 2, snap.TopicTurnCount)
	})

	t.Run("different topic replaces and resets", func(t *testing.T) {
		ctx.UpdateTopic("pool", "")
		snap := ctx.Snapshot()
		assert.Equal(t, "pool", snap.CurrentTopic)
		assert.Equal(t, 1, snap.TopicTurnCount)
	})
}

func TestContextCacheChunks(t *testing.T) {
	ctx := newContext("s", 2)
	chunks := []models.Chunk{
		{ChunkID: "a"}, {ChunkID: "b"}, {ChunkID: "c"},
	}
	ctx.CacheChunks("조식 시간", chunks)

	snap := ctx.Snapshot()
	require.Len(t, snap.LastChunks, 2, "chunk cache is bounded")
	assert.Equal(t, "a", snap.LastChunks[0].ChunkID)
	assert.Equal(t, "조식 시간", snap.LastQuery)
}

func TestLastActiveMonotonic(t *testing.T) {
	ctx := newContext("s", 5)
	first := ctx.LastActive()
	time.Sleep(time.Millisecond)
	ctx.Touch()
	assert.True(t, ctx.LastActive().After(first))
}
