package fs

import (
	"container/list"
	"fmt"
	"os"
	"sync"
)

// DefaultIdleDocuments is the number of unreferenced documents a namespace
// keeps in memory before evicting the least recently used one.
const DefaultIdleDocuments = 256

// docCache guarantees at most one in-memory entry per document id within a
// namespace. Entries with live handles are pinned; released entries move to
// a bounded idle list and are evicted oldest first.
type docCache struct {
	ns      *Namespace
	mu      sync.Mutex
	entries map[string]*docEntry
	idle    *list.List // front is most recently released
	idleCap int
}

func newDocCache(ns *Namespace, idleCap int) *docCache {
	if idleCap < 0 {
		idleCap = 0
	}
	return &docCache{
		ns:      ns,
		entries: make(map[string]*docEntry),
		idle:    list.New(),
		idleCap: idleCap,
	}
}

// getOrLoad returns a handle to the cached entry for id, materializing an
// unloaded entry when the backing file exists. It returns nil when the
// document does not exist. The existence probe runs under the cache lock so
// two callers can never construct two entries for the same id.
func (c *docCache) getOrLoad(id string) (*Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok {
		c.acquire(e)
		return newDocument(e, c), nil
	}

	path := c.ns.pathFor(id)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat document: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, nil
	}

	e := newDocEntry(id, path, c.ns)
	c.entries[id] = e
	c.acquire(e)
	return newDocument(e, c), nil
}

// register inserts a freshly created entry and returns the first handle to
// it. An existing entry for the same id is replaced.
func (c *docCache) register(e *docEntry) *Document {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[e.id]; ok && old.elem != nil {
		c.idle.Remove(old.elem)
		old.elem = nil
	}
	c.entries[e.id] = e
	c.acquire(e)
	return newDocument(e, c)
}

// acquire must be called with c.mu held.
func (c *docCache) acquire(e *docEntry) {
	if e.elem != nil {
		c.idle.Remove(e.elem)
		e.elem = nil
	}
	e.refs++
}

// release drops one reference. The last release parks the entry on the
// idle list, which may evict older idle entries.
func (c *docCache) release(e *docEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e.refs--
	if e.refs > 0 {
		return
	}
	e.elem = c.idle.PushFront(e)

	for c.idle.Len() > c.idleCap {
		oldest := c.idle.Back()
		victim := oldest.Value.(*docEntry)
		c.idle.Remove(oldest)
		victim.elem = nil
		if cur, ok := c.entries[victim.id]; ok && cur == victim {
			delete(c.entries, victim.id)
		}
		c.ns.logger.Debug("document evicted", "namespace", c.ns.name, "id", victim.id)
	}
}

// stats returns the number of cached entries and how many of them are idle.
func (c *docCache) stats() (cached, idle int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries), c.idle.Len()
}

// cached reports whether id currently has an in-memory entry.
func (c *docCache) cached(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[id]
	return ok
}
