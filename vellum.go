package vellum

import (
	"log/slog"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/vellum/internal/platform"
	"github.com/aretw0/vellum/pkg/adapters/fs"
	lcadapter "github.com/aretw0/vellum/pkg/adapters/lifecycle"
	"github.com/aretw0/vellum/pkg/core"
)

// --- Types ---

// Store is the root of a document store.
type Store = fs.Store

// Namespace is a directory-backed container of documents.
type Namespace = fs.Namespace

// Document is a handle to a stored document.
type Document = fs.Document

// Info describes a document without its fields.
type Info = fs.Info

// VerifyReport summarizes a Store.Verify run.
type VerifyReport = fs.VerifyReport

// Value is a typed field value.
type Value = core.Value

// Event is a document change reported by Store.Watch.
type Event = core.Event

// Snapshot is a read-only copy of a document.
type Snapshot = core.Snapshot

// Config is the file and environment representation of store options.
type Config = platform.Config

// --- Configuration ---

// Option defines a functional option for configuring a store.
type Option = platform.Option

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithAutoInit creates the root directory when it does not exist.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithSystemDir allows specifying the hidden directory name (e.g. ".vellum").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithIDPool sets the low-water mark and target size of the identifier pool.
func WithIDPool(low, target int) Option {
	return platform.WithIDPool(low, target)
}

// WithIDLength sets the length of generated identifiers.
func WithIDLength(n int) Option {
	return platform.WithIDLength(n)
}

// WithIdleDocuments bounds how many released documents each namespace keeps.
func WithIdleDocuments(n int) Option {
	return platform.WithIdleDocuments(n)
}

// WithExclusiveLock controls the root ownership lock.
func WithExclusiveLock(enabled bool) Option {
	return platform.WithExclusiveLock(enabled)
}

// WithVerifyWorkers sets how many goroutines Verify uses.
func WithVerifyWorkers(n int) Option {
	return platform.WithVerifyWorkers(n)
}

// --- Factory ---

// Open opens the store rooted at path.
func Open(path string, opts ...Option) (*Store, error) {
	return platform.Open(path, opts...)
}

// LoadConfig reads an optional config file and VELLUM_* environment variables.
func LoadConfig(file string) (*Config, error) {
	return platform.LoadConfig(file)
}

// FindRoot walks upwards from dir looking for a store root.
func FindRoot(dir string) (string, error) {
	return platform.FindRoot(dir)
}

// NewEventSource bridges a Watch channel to a lifecycle.Source.
func NewEventSource(events <-chan Event) lifecycle.Source {
	return lcadapter.NewSource(events)
}

// --- Values ---

// String returns a string value.
func String(s string) Value { return core.NewString(s) }

// Integer returns an integer value.
func Integer(i int64) Value { return core.NewInteger(i) }

// Double returns a double value.
func Double(f float64) Value { return core.NewDouble(f) }

// Date returns a date value.
func Date(t time.Time) Value { return core.NewDate(t) }
