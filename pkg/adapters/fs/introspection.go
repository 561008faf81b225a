package fs

import (
	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Root       string      `json:"root"`
	SystemDir  string      `json:"system_dir"`
	Namespaces []string    `json:"namespaces"`
	Locked     bool        `json:"locked"`
	Closed     bool        `json:"closed"`
	IDPool     IDPoolState `json:"id_pool"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	names := make([]string, 0)
	for _, ns := range s.List() {
		names = append(names, ns.name)
	}
	return StoreState{
		Root:       s.root,
		SystemDir:  s.config.SystemDir,
		Namespaces: names,
		Locked:     s.lock != nil && !s.isClosed(),
		Closed:     s.isClosed(),
		IDPool:     s.pool.State().(IDPoolState),
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

// NamespaceState exposes the document cache of one namespace.
type NamespaceState struct {
	Name    string `json:"name"`
	Dir     string `json:"dir"`
	Cached  int    `json:"cached_documents"`
	Idle    int    `json:"idle_documents"`
	IdleCap int    `json:"idle_capacity"`
	Deleted bool   `json:"deleted"`
}

// State implements introspection.Introspectable.
func (n *Namespace) State() any {
	cached, idle := n.cache.stats()

	n.life.RLock()
	deleted := n.deleted
	n.life.RUnlock()

	return NamespaceState{
		Name:    n.name,
		Dir:     n.dir,
		Cached:  cached,
		Idle:    idle,
		IdleCap: n.cache.idleCap,
		Deleted: deleted,
	}
}

// ComponentType implements introspection.Component.
func (n *Namespace) ComponentType() string {
	return "namespace"
}

var (
	_ introspection.Introspectable = (*Store)(nil)
	_ introspection.Component      = (*Store)(nil)
	_ introspection.Introspectable = (*Namespace)(nil)
	_ introspection.Component      = (*Namespace)(nil)
)
