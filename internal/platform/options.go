package platform

import (
	"log/slog"
)

// options holds the internal configuration for a vellum store.
type options struct {
	logger *slog.Logger
	config map[string]any
}

// Option defines a functional option for configuring a store.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		logger: nil,
		config: make(map[string]any),
	}
}

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithAutoInit creates the root directory when it does not exist.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.config["auto_init"] = auto
	}
}

// WithSystemDir allows specifying the hidden directory name (e.g. ".vellum").
// Defaults to ".vellum" if not set (handled by adapter).
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithIDPool sets the low-water mark and target size of the identifier pool.
func WithIDPool(low, target int) Option {
	return func(o *options) {
		o.config["id_pool_min"] = low
		o.config["id_pool_max"] = target
	}
}

// WithIDLength sets the length of generated identifiers. Values below 9
// fall back to the default of 60.
func WithIDLength(n int) Option {
	return func(o *options) {
		o.config["id_length"] = n
	}
}

// WithIdleDocuments bounds how many released documents each namespace keeps
// in memory. Zero means the default; a negative value evicts a document as
// soon as its last handle is released.
func WithIdleDocuments(n int) Option {
	return func(o *options) {
		o.config["idle_documents"] = n
	}
}

// WithExclusiveLock controls the root ownership lock. It is enabled by
// default; disabling it lets a second store open the same root, which is
// only safe when neither writes.
func WithExclusiveLock(enabled bool) Option {
	return func(o *options) {
		o.config["exclusive_lock"] = enabled
	}
}

// WithVerifyWorkers sets how many goroutines Verify uses.
func WithVerifyWorkers(n int) Option {
	return func(o *options) {
		o.config["verify_workers"] = n
	}
}
