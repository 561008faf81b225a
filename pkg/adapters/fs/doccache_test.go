package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/vellum/pkg/core"
)

func TestDocCache_PinnedWhileReferenced(t *testing.T) {
	_, ns := newTestNamespace(t, func(c *Config) { c.IdleDocuments = -1 })

	doc, err := ns.Create()
	require.NoError(t, err)
	id := doc.ID()

	second, err := ns.Get(id)
	require.NoError(t, err)

	doc.Release()
	assert.True(t, ns.cache.cached(id), "entry with a live handle must stay cached")

	second.Release()
	assert.False(t, ns.cache.cached(id), "no idle capacity: last release evicts")

	third, err := ns.Get(id)
	require.NoError(t, err)
	defer third.Release()
	assert.NotSame(t, doc.entry, third.entry, "a fresh entry is materialized after eviction")
}

func TestDocCache_IdleLRU(t *testing.T) {
	_, ns := newTestNamespace(t, func(c *Config) { c.IdleDocuments = 2 })

	ids := make([]string, 3)
	for i := range ids {
		doc, err := ns.Create()
		require.NoError(t, err)
		require.NoError(t, doc.WriteField("n", core.NewInteger(int64(i))))
		ids[i] = doc.ID()
		doc.Release()
	}

	cached, idle := ns.cache.stats()
	assert.Equal(t, 2, cached)
	assert.Equal(t, 2, idle)
	assert.False(t, ns.cache.cached(ids[0]), "oldest idle entry is evicted first")
	assert.True(t, ns.cache.cached(ids[1]))
	assert.True(t, ns.cache.cached(ids[2]))

	// Touching ids[1] makes ids[2] the oldest idle entry.
	doc, err := ns.Get(ids[1])
	require.NoError(t, err)
	doc.Release()

	// Evicted documents reload from disk with identical state.
	again, err := ns.Get(ids[0])
	require.NoError(t, err)
	v, err := again.ReadField("n")
	require.NoError(t, err)
	assert.Equal(t, int64(0), v.Get())

	again.Release()
	assert.False(t, ns.cache.cached(ids[2]))
	assert.True(t, ns.cache.cached(ids[0]))
}

func TestDocCache_MissingDocument(t *testing.T) {
	_, ns := newTestNamespace(t)

	doc, err := ns.cache.getOrLoad("abcdefghijkl")
	require.NoError(t, err)
	assert.Nil(t, doc)
	assert.False(t, ns.cache.cached("abcdefghijkl"), "misses are not cached")
}

func TestNamespace_State(t *testing.T) {
	_, ns := newTestNamespace(t, func(c *Config) { c.IdleDocuments = 4 })
	doc, err := ns.Create()
	require.NoError(t, err)

	state := ns.State().(NamespaceState)
	assert.Equal(t, 1, state.Cached)
	assert.Equal(t, 0, state.Idle)
	assert.Equal(t, 4, state.IdleCap)

	doc.Release()
	state = ns.State().(NamespaceState)
	assert.Equal(t, 1, state.Idle)
	assert.Equal(t, "namespace", ns.ComponentType())
}
