package fs

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/vellum/pkg/core"
)

// Namespace is a directory-backed container of documents.
type Namespace struct {
	name   string
	dir    string
	store  *Store
	cache  *docCache
	logger *slog.Logger

	// life is held shared by document creation and exclusively by delete.
	life    sync.RWMutex
	deleted bool
}

func newNamespace(name, dir string, store *Store) *Namespace {
	ns := &Namespace{
		name:   name,
		dir:    dir,
		store:  store,
		logger: store.logger,
	}
	ns.cache = newDocCache(ns, store.config.IdleDocuments)
	return ns
}

// Name returns the lowercased namespace name.
func (n *Namespace) Name() string { return n.name }

// Dir returns the absolute path of the namespace directory.
func (n *Namespace) Dir() string { return n.dir }

func (n *Namespace) pathFor(id string) string {
	// Callers validate id first; ShardPath cannot fail here.
	rel, _ := ShardPath(id)
	return filepath.Join(n.dir, rel)
}

// Exists reports whether a document file for id exists in this namespace.
// It does not consult other namespaces.
func (n *Namespace) Exists(id string) bool {
	if ValidateID(id) != nil {
		return false
	}
	info, err := os.Stat(n.pathFor(id))
	return err == nil && info.Mode().IsRegular()
}

// Get returns a handle to the document with the given id. Every handle for
// the same id shares one in-memory state until all of them are released.
func (n *Namespace) Get(id string) (*Document, error) {
	if err := ValidateID(id); err != nil {
		return nil, core.NewOpError("get", n.name, id, core.ErrValidation, err)
	}
	if n.store.isClosed() {
		return nil, core.NewOpError("get", n.name, id, core.ErrClosed, nil)
	}

	n.life.RLock()
	defer n.life.RUnlock()
	if n.deleted {
		return nil, core.NewOpError("get", n.name, id, core.ErrNotFound, errors.New("namespace deleted"))
	}

	doc, err := n.cache.getOrLoad(id)
	if err != nil {
		return nil, core.NewOpError("get", n.name, id, core.ErrIO, err)
	}
	if doc == nil {
		return nil, core.NewOpError("get", n.name, id, core.ErrNotFound, nil)
	}
	return doc, nil
}

// Create allocates a fresh identifier, durably creates an empty backing
// file for it and returns a handle to the new document at version 0.
func (n *Namespace) Create() (*Document, error) {
	if n.store.isClosed() {
		return nil, core.NewOpError("create", n.name, "", core.ErrClosed, nil)
	}

	// The id is allocated before any namespace lock is held: the pool
	// probes every namespace while refilling.
	id, err := n.store.pool.Next()
	if err != nil {
		return nil, core.NewOpError("create", n.name, "", core.ErrIO, err)
	}

	n.life.RLock()
	defer n.life.RUnlock()
	if n.deleted {
		return nil, core.NewOpError("create", n.name, id, core.ErrNotFound, errors.New("namespace deleted"))
	}

	path := n.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, core.NewOpError("create", n.name, id, core.ErrIO, err)
	}
	if err := createFileDurable(path, 0o644); err != nil {
		if errors.Is(err, iofs.ErrExist) {
			return nil, core.NewOpError("create", n.name, id, core.ErrConflict, err)
		}
		return nil, core.NewOpError("create", n.name, id, core.ErrIO, err)
	}

	n.logger.Debug("document created", "namespace", n.name, "id", id)
	return n.cache.register(newDocEntry(id, path, n)), nil
}

// IDs walks the shard tree and returns the id of every document file,
// sorted.
func (n *Namespace) IDs() ([]string, error) {
	var ids []string
	err := n.walkDocuments(func(id, _ string) error {
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, core.NewOpError("ids", n.name, "", core.ErrIO, err)
	}
	sort.Strings(ids)
	return ids, nil
}

// walkDocuments calls fn for every file that sits at the shard path of its
// own id. Temp files and stray files are skipped.
func (n *Namespace) walkDocuments(fn func(id, path string) error) error {
	return filepath.WalkDir(n.dir, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			if path == n.dir && errors.Is(err, iofs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		id, ok := n.documentID(path)
		if !ok {
			return nil
		}
		return fn(id, path)
	})
}

// documentID resolves an absolute file path back to a document id.
func (n *Namespace) documentID(path string) (string, bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, TempFilePrefix) || !strings.HasSuffix(base, DocumentExt) {
		return "", false
	}
	id := strings.TrimSuffix(base, DocumentExt)
	rel, err := filepath.Rel(n.dir, path)
	if err != nil {
		return "", false
	}
	want, err := ShardPath(id)
	if err != nil || want != rel {
		return "", false
	}
	return id, true
}

// hasDocuments reports whether any *.json file remains anywhere under the
// namespace directory. Must be called with life held.
func (n *Namespace) hasDocuments() (bool, error) {
	errFound := errors.New("found")
	err := filepath.WalkDir(n.dir, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		base := d.Name()
		if !d.IsDir() && strings.HasSuffix(base, DocumentExt) && !strings.HasPrefix(base, TempFilePrefix) {
			return errFound
		}
		return nil
	})
	switch {
	case errors.Is(err, errFound):
		return true, nil
	case err != nil:
		return false, fmt.Errorf("scan namespace: %w", err)
	}
	return false, nil
}
