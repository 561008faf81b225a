package platform

import (
	"github.com/aretw0/vellum/pkg/adapters/fs"
)

// Open opens the store rooted at path.
//
//	store, err := platform.Open("./data", platform.WithAutoInit(true))
func Open(path string, opts ...Option) (*fs.Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return fs.Open(o.fsConfig(path))
}

// fsConfig translates options into the adapter configuration.
func (o *options) fsConfig(path string) fs.Config {
	autoInit, _ := o.config["auto_init"].(bool)
	systemDir, _ := o.config["system_dir"].(string)
	poolMin, _ := o.config["id_pool_min"].(int)
	poolMax, _ := o.config["id_pool_max"].(int)
	idLength, _ := o.config["id_length"].(int)
	idle, _ := o.config["idle_documents"].(int)
	workers, _ := o.config["verify_workers"].(int)

	// Default to locked if not explicitly set.
	exclusive := true
	if val, ok := o.config["exclusive_lock"].(bool); ok {
		exclusive = val
	}

	return fs.Config{
		Path:          path,
		AutoInit:      autoInit,
		Logger:        o.logger,
		SystemDir:     systemDir,
		IDLength:      idLength,
		IDPoolMin:     poolMin,
		IDPoolMax:     poolMax,
		IdleDocuments: idle,
		NoLock:        !exclusive,
		VerifyWorkers: workers,
	}
}
