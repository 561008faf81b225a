package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/vellum/pkg/core"
)

// DefaultSystemDir holds engine bookkeeping such as the ownership lock.
// Dot-directories under the root are never treated as namespaces.
const DefaultSystemDir = ".vellum"

// Config holds the configuration for a filesystem store.
type Config struct {
	Path          string
	AutoInit      bool // create Path when missing
	Logger        *slog.Logger
	SystemDir     string // e.g. ".vellum"
	IDLength      int
	IDPoolMin     int
	IDPoolMax     int
	IdleDocuments int  // 0 means DefaultIdleDocuments, negative disables idle retention
	NoLock        bool // skip the root ownership lock
	VerifyWorkers int
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.SystemDir == "" {
		c.SystemDir = DefaultSystemDir
	}
	if c.IDLength <= 0 {
		c.IDLength = DefaultIDLength
	}
	if c.IDPoolMin <= 0 {
		c.IDPoolMin = DefaultIDPoolMin
	}
	if c.IDPoolMax <= c.IDPoolMin {
		c.IDPoolMax = max(DefaultIDPoolMax, c.IDPoolMin+1)
	}
	switch {
	case c.IdleDocuments == 0:
		c.IdleDocuments = DefaultIdleDocuments
	case c.IdleDocuments < 0:
		c.IdleDocuments = 0
	}
	if c.VerifyWorkers <= 0 {
		c.VerifyWorkers = DefaultVerifyWorkers
	}
	return c
}

// Store is the root of a document store: a directory whose subdirectories
// are namespaces. It owns the namespace table and the id pool.
type Store struct {
	root   string
	config Config
	logger *slog.Logger
	pool   *IDPool
	lock   *rootLock

	mu         sync.RWMutex
	namespaces map[string]*Namespace

	closed atomic.Bool
	ctx    context.Context // done once Close starts; parents background work
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Open opens the store rooted at cfg.Path, registering every existing
// subdirectory as a namespace under its lowercased name.
func Open(cfg Config) (*Store, error) {
	cfg = cfg.withDefaults()
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, core.NewOpError("open", "", "", core.ErrValidation, errors.New("blank root path"))
	}

	root, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, core.NewOpError("open", "", "", core.ErrValidation, err)
	}
	info, err := os.Stat(root)
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		if !cfg.AutoInit {
			return nil, core.NewOpError("open", "", "", core.ErrNotFound, fmt.Errorf("store root does not exist: %s", root))
		}
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, core.NewOpError("open", "", "", core.ErrIO, err)
		}
	case err != nil:
		return nil, core.NewOpError("open", "", "", core.ErrIO, err)
	case !info.IsDir():
		return nil, core.NewOpError("open", "", "", core.ErrValidation, fmt.Errorf("store root is not a directory: %s", root))
	}

	s := &Store{
		root:       root,
		config:     cfg,
		logger:     cfg.Logger,
		namespaces: make(map[string]*Namespace),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if !cfg.NoLock {
		lock, err := acquireRootLock(filepath.Join(root, cfg.SystemDir))
		if err != nil {
			s.cancel()
			if errors.Is(err, core.ErrLocked) {
				return nil, core.NewOpError("open", "", "", core.ErrLocked, err)
			}
			return nil, core.NewOpError("open", "", "", core.ErrIO, err)
		}
		s.lock = lock
	}

	if err := s.scan(); err != nil {
		s.cancel()
		_ = s.lock.release()
		return nil, core.NewOpError("open", "", "", core.ErrIO, err)
	}

	s.pool = NewIDPool(cfg.IDPoolMin, cfg.IDPoolMax, cfg.IDLength, s.globalExists, s.logger)
	s.warmUp()

	s.logger.Debug("store opened", "root", root, "namespaces", len(s.namespaces))
	return s, nil
}

// scan registers existing namespace directories.
func (s *Store) scan() error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return fmt.Errorf("read store root: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := strings.ToLower(entry.Name())
		if _, dup := s.namespaces[name]; dup {
			s.logger.Warn("skipping namespace directory with duplicate name", "dir", entry.Name(), "namespace", name)
			continue
		}
		s.namespaces[name] = newNamespace(name, filepath.Join(s.root, entry.Name()), s)
	}
	return nil
}

// warmUp fills the id pool in the background so the first Create does not
// pay for it.
func (s *Store) warmUp() {
	s.wg.Add(1)
	lifecycle.Go(s.ctx, func(ctx context.Context) error {
		defer s.wg.Done()
		return s.pool.Fill(ctx)
	}, lifecycle.WithErrorHandler(func(err error) {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("id pool warm-up failed", "error", err)
		}
	}))
}

// globalExists reports whether id names a document in any namespace.
func (s *Store) globalExists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ns := range s.namespaces {
		if ns.Exists(id) {
			return true
		}
	}
	return false
}

// Root returns the absolute store root.
func (s *Store) Root() string { return s.root }

// IDPool returns the store's identifier pool.
func (s *Store) IDPool() *IDPool { return s.pool }

func (s *Store) isClosed() bool { return s.closed.Load() }

// ValidateNamespaceName rejects names that cannot be a single directory
// under the root.
func ValidateNamespaceName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: blank namespace name", core.ErrValidation)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: namespace name %q contains a path separator", core.ErrValidation, name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: namespace name %q starts with a dot", core.ErrValidation, name)
	}
	return nil
}

// Create makes a new namespace directory named after the lowercased name.
func (s *Store) Create(name string) (*Namespace, error) {
	if err := ValidateNamespaceName(name); err != nil {
		return nil, core.NewOpError("create-namespace", name, "", core.ErrValidation, err)
	}
	if s.isClosed() {
		return nil, core.NewOpError("create-namespace", name, "", core.ErrClosed, nil)
	}
	key := strings.ToLower(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.namespaces[key]; ok {
		return nil, core.NewOpError("create-namespace", key, "", core.ErrConflict, nil)
	}
	dir := filepath.Join(s.root, key)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, iofs.ErrExist) {
			return nil, core.NewOpError("create-namespace", key, "", core.ErrConflict, err)
		}
		return nil, core.NewOpError("create-namespace", key, "", core.ErrIO, err)
	}
	if err := syncDir(s.root); err != nil {
		return nil, core.NewOpError("create-namespace", key, "", core.ErrIO, err)
	}

	ns := newNamespace(key, dir, s)
	s.namespaces[key] = ns
	s.logger.Debug("namespace created", "namespace", key)
	return ns, nil
}

// Get looks a namespace up by name, case-insensitively.
func (s *Store) Get(name string) (*Namespace, error) {
	if s.isClosed() {
		return nil, core.NewOpError("get-namespace", name, "", core.ErrClosed, nil)
	}
	key := strings.ToLower(name)

	s.mu.RLock()
	defer s.mu.RUnlock()
	ns, ok := s.namespaces[key]
	if !ok {
		return nil, core.NewOpError("get-namespace", key, "", core.ErrNotFound, nil)
	}
	return ns, nil
}

// List returns a snapshot of every namespace, sorted by name.
func (s *Store) List() []*Namespace {
	s.mu.RLock()
	out := make([]*Namespace, 0, len(s.namespaces))
	for _, ns := range s.namespaces {
		out = append(out, ns)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Match returns the namespaces whose name matches a doublestar glob
// pattern, sorted by name.
func (s *Store) Match(pattern string) ([]*Namespace, error) {
	pattern = strings.ToLower(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return nil, core.NewOpError("match", "", "", core.ErrValidation, doublestar.ErrBadPattern)
	}
	var out []*Namespace
	for _, ns := range s.List() {
		ok, err := doublestar.Match(pattern, ns.name)
		if err != nil {
			return nil, core.NewOpError("match", "", "", core.ErrValidation, err)
		}
		if ok {
			out = append(out, ns)
		}
	}
	return out, nil
}

// Delete removes an empty namespace. A namespace that still holds any
// document file is left untouched and ErrConflict is returned.
func (s *Store) Delete(name string) error {
	if s.isClosed() {
		return core.NewOpError("delete-namespace", name, "", core.ErrClosed, nil)
	}
	key := strings.ToLower(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[key]
	if !ok {
		return core.NewOpError("delete-namespace", key, "", core.ErrNotFound, nil)
	}

	ns.life.Lock()
	defer ns.life.Unlock()

	nonEmpty, err := ns.hasDocuments()
	if err != nil {
		return core.NewOpError("delete-namespace", key, "", core.ErrIO, err)
	}
	if nonEmpty {
		return core.NewOpError("delete-namespace", key, "", core.ErrConflict, errors.New("namespace is not empty"))
	}
	if err := os.RemoveAll(ns.dir); err != nil {
		return core.NewOpError("delete-namespace", key, "", core.ErrIO, err)
	}

	ns.deleted = true
	delete(s.namespaces, key)
	s.logger.Debug("namespace deleted", "namespace", key)
	return nil
}

// Close stops background work, ends every Watch started on the store and
// releases the root lock. Every later operation fails with core.ErrClosed.
// Close is idempotent.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	// Watch registers under the read lock; taking the write lock here
	// orders every registration before the Wait below.
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
	if err := s.lock.release(); err != nil {
		return core.NewOpError("close", "", "", core.ErrIO, err)
	}
	s.logger.Debug("store closed", "root", s.root)
	return nil
}
