package fs

import (
	"container/list"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/vellum/internal/metrics"
	"github.com/aretw0/vellum/pkg/core"
)

// docEntry is the single in-memory state of one document file. All handles
// for the same id share it, so its lock coordinates every caller in the
// process.
type docEntry struct {
	id   string
	path string
	ns   *Namespace

	mu     sync.RWMutex
	loadMu sync.Mutex
	state  atomic.Pointer[record] // nil until first access

	// guarded by the owning docCache's mutex
	refs int
	elem *list.Element
}

func newDocEntry(id, path string, ns *Namespace) *docEntry {
	return &docEntry{id: id, path: path, ns: ns}
}

// ensureLoaded returns the current record, reading it from disk on first
// access. Callers hold e.mu in either mode; loadMu serializes concurrent
// readers racing to load.
func (e *docEntry) ensureLoaded() (*record, error) {
	if r := e.state.Load(); r != nil {
		return r, nil
	}

	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	if r := e.state.Load(); r != nil {
		return r, nil
	}

	data, err := os.ReadFile(e.path)
	if err != nil && !os.IsNotExist(err) {
		return nil, core.NewOpError("load", e.ns.name, e.id, core.ErrIO, err)
	}
	r, err := decodeRecord(data)
	if err != nil {
		return nil, core.NewOpError("load", e.ns.name, e.id, core.ErrIntegrity, err)
	}

	e.state.Store(r)
	e.ns.logger.Debug("document loaded", "namespace", e.ns.name, "id", e.id, "version", r.Version)
	return r, nil
}

// Document is a handle to a stored document. Handles obtained for the same
// id from the same namespace share one in-memory state and one lock, so a
// write through any handle is visible through all others.
//
// Release the handle when done; a released handle fails every operation
// with core.ErrReleased.
type Document struct {
	entry    *docEntry
	cache    *docCache
	released atomic.Bool
}

func newDocument(e *docEntry, c *docCache) *Document {
	return &Document{entry: e, cache: c}
}

// Info describes a document without its fields.
type Info struct {
	ID        string     `json:"id" yaml:"id"`
	Namespace string     `json:"namespace" yaml:"namespace"`
	Path      string     `json:"path" yaml:"path"`
	Version   int64      `json:"version" yaml:"version"`
	Created   *time.Time `json:"created,omitempty" yaml:"created,omitempty"`
	Updated   *time.Time `json:"updated,omitempty" yaml:"updated,omitempty"`
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.entry.id }

// Namespace returns the name of the owning namespace.
func (d *Document) Namespace() string { return d.entry.ns.name }

// Path returns the absolute path of the backing file.
func (d *Document) Path() string { return d.entry.path }

// Release returns the handle to the cache. It is safe to call more than once.
func (d *Document) Release() {
	if d.released.CompareAndSwap(false, true) {
		d.cache.release(d.entry)
	}
}

func (d *Document) check(op string) error {
	if d.released.Load() {
		return core.NewOpError(op, d.entry.ns.name, d.entry.id, core.ErrReleased, nil)
	}
	if d.entry.ns.store.isClosed() {
		return core.NewOpError(op, d.entry.ns.name, d.entry.id, core.ErrClosed, nil)
	}
	return nil
}

// ReadField returns the value stored under name, or nil when the field is
// not defined. A defined field whose payload no longer coerces into its
// kind comes back as an absent Value of that kind.
func (d *Document) ReadField(name string) (v core.Value, err error) {
	defer func() { metrics.ObserveOp("read", err) }()

	if err := d.check("read"); err != nil {
		return nil, err
	}
	key, err := fieldKey(name)
	if err != nil {
		return nil, core.NewOpError("read", d.entry.ns.name, d.entry.id, core.ErrValidation, err)
	}

	e := d.entry
	e.mu.RLock()
	defer e.mu.RUnlock()

	r, err := e.ensureLoaded()
	if err != nil {
		return nil, err
	}
	f, ok := r.Data[key]
	if !ok || f.Type == "" {
		return nil, nil
	}
	v, err = core.Decode(f.Type, f.Value)
	if err != nil {
		return nil, core.NewOpError("read", e.ns.name, e.id, core.ErrIntegrity, err)
	}
	return v, nil
}

// WriteField stores a single field. See WriteFields.
func (d *Document) WriteField(name string, v core.Value) error {
	return d.WriteFields(map[string]core.Value{name: v})
}

// WriteFields overwrites the named fields, bumps the version and durably
// replaces the backing file before returning. Readers see either the state
// before the call or the state after it. When the write fails the version
// is not advanced, on disk or in memory.
func (d *Document) WriteFields(entries map[string]core.Value) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveWrite(start, err) }()

	if err := d.check("write"); err != nil {
		return err
	}
	fields, err := encodeFields(entries)
	if err != nil {
		return core.NewOpError("write", d.entry.ns.name, d.entry.id, core.ErrValidation, err)
	}

	e := d.entry
	e.mu.Lock()
	defer e.mu.Unlock()

	cur, err := e.ensureLoaded()
	if err != nil {
		return err
	}

	next := cur.clone()
	now := time.Now().UTC()
	if next.Timestamp.Created == nil {
		created := now
		next.Timestamp.Created = &created
	}
	for k, f := range fields {
		next.Data[k] = f
	}
	next.Version++
	next.Timestamp.Updated = &now

	data, err := encodeRecord(next)
	if err != nil {
		return core.NewOpError("write", e.ns.name, e.id, core.ErrIntegrity, err)
	}
	if err := writeFileAtomic(e.path, data, 0o644); err != nil {
		return core.NewOpError("write", e.ns.name, e.id, core.ErrIO, err)
	}

	e.state.Store(next)
	e.ns.logger.Debug("document written", "namespace", e.ns.name, "id", e.id, "version", next.Version, "fields", len(fields))
	return nil
}

// Keys returns the defined field names, sorted.
func (d *Document) Keys() ([]string, error) {
	if err := d.check("keys"); err != nil {
		return nil, err
	}

	e := d.entry
	e.mu.RLock()
	defer e.mu.RUnlock()

	r, err := e.ensureLoaded()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(r.Data))
	for k, f := range r.Data {
		if f.Type == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Info returns the document's identity, version and timestamps.
func (d *Document) Info() (Info, error) {
	if err := d.check("info"); err != nil {
		return Info{}, err
	}

	e := d.entry
	e.mu.RLock()
	defer e.mu.RUnlock()

	r, err := e.ensureLoaded()
	if err != nil {
		return Info{}, err
	}
	return Info{
		ID:        e.id,
		Namespace: e.ns.name,
		Path:      e.path,
		Version:   r.Version,
		Created:   r.Timestamp.Created,
		Updated:   r.Timestamp.Updated,
	}, nil
}

// Snapshot returns a read-only copy of the document at its current version.
func (d *Document) Snapshot() (core.Snapshot, error) {
	if err := d.check("snapshot"); err != nil {
		return core.Snapshot{}, err
	}

	e := d.entry
	e.mu.RLock()
	defer e.mu.RUnlock()

	r, err := e.ensureLoaded()
	if err != nil {
		return core.Snapshot{}, err
	}
	return snapshotOf(e.ns.name, e.id, r)
}

func snapshotOf(namespace, id string, r *record) (core.Snapshot, error) {
	snap := core.Snapshot{
		ID:        id,
		Namespace: namespace,
		Version:   r.Version,
		Created:   r.Timestamp.Created,
		Updated:   r.Timestamp.Updated,
		Fields:    make(map[string]core.FieldSnapshot, len(r.Data)),
	}
	for k, f := range r.Data {
		if f.Type == "" {
			continue
		}
		v, err := core.Decode(f.Type, f.Value)
		if err != nil {
			return core.Snapshot{}, core.NewOpError("snapshot", namespace, id, core.ErrIntegrity, err)
		}
		snap.Fields[k] = core.FieldSnapshot{Kind: f.Type, Value: v.Get()}
	}
	return snap, nil
}

// fieldKey normalizes a field name. Names are case-insensitive and stored
// lowercased.
func fieldKey(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: blank field name", core.ErrValidation)
	}
	return strings.ToLower(name), nil
}

// encodeFields validates a write and converts it to tagged records before
// any lock is taken.
func encodeFields(entries map[string]core.Value) (map[string]field, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no fields to write", core.ErrValidation)
	}
	out := make(map[string]field, len(entries))
	for name, v := range entries {
		key, err := fieldKey(name)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, fmt.Errorf("%w: field %q has no value", core.ErrValidation, name)
		}
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("%w: field %q given twice with different case", core.ErrValidation, key)
		}
		raw, err := core.Encode(v)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", core.ErrValidation, name, err)
		}
		out[key] = field{Type: v.Kind(), Value: raw}
	}
	return out, nil
}
