package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/vellum/pkg/core"
)

// watchBuffer is the capacity of the channel returned by Watch.
const watchBuffer = 64

// Watch reports document changes in one namespace until ctx is done or the
// store is closed, at which point the returned channel is closed. A freshly
// created document produces EventCreate; every durable rewrite produces
// EventModify.
func (s *Store) Watch(ctx context.Context, namespace string) (<-chan core.Event, error) {
	ns, err := s.Get(namespace)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, core.NewOpError("watch", ns.name, "", core.ErrIO, fmt.Errorf("failed to create watcher: %w", err))
	}

	events := make(chan core.Event, watchBuffer)
	w := &watchWorker{
		ns:      ns,
		events:  events,
		watcher: watcher,
		known:   make(map[string]struct{}),
		logger:  s.logger,
	}
	if err := w.addTree(ns.dir, false); err != nil {
		_ = watcher.Close()
		return nil, core.NewOpError("watch", ns.name, "", core.ErrIO, err)
	}

	// Registration is ordered against Close through the table lock.
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.isClosed() {
		_ = watcher.Close()
		return nil, core.NewOpError("watch", ns.name, "", core.ErrClosed, nil)
	}

	ctx, stop := context.WithCancel(ctx)
	stopOnClose := context.AfterFunc(s.ctx, stop)
	s.wg.Add(1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer s.wg.Done()
		defer stopOnClose()
		defer stop()
		return w.run(ctx)
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("watcher stopped", "namespace", ns.name, "error", err)
	}))
	return events, nil
}

type watchWorker struct {
	ns      *Namespace
	events  chan<- core.Event
	watcher *fsnotify.Watcher
	known   map[string]struct{} // ids seen so far; owned by run
	pending []core.Event
	logger  *slog.Logger
}

// addTree watches dir and every directory below it. Document files already
// present are recorded as known; when announce is set they are also
// reported as created, which covers files written into a shard directory
// before its watch was in place.
func (w *watchWorker) addTree(dir string, announce bool) error {
	return filepath.WalkDir(dir, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, iofs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			return nil
		}
		id, ok := w.ns.documentID(path)
		if !ok {
			return nil
		}
		if _, seen := w.known[id]; seen {
			return nil
		}
		w.known[id] = struct{}{}
		if announce {
			w.emit(core.EventCreate, id)
		}
		return nil
	})
}

func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if w.logger.Enabled(ctx, slog.LevelDebug) {
				w.logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				w.logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer close(w.events)
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher events channel closed")
			}
			w.handle(event)
			if !w.flush(ctx) {
				return nil
			}

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("fsnotify error", "namespace", w.ns.name, "error", wErr)
		}
	}
}

// handle maps one filesystem event to zero or more document events.
func (w *watchWorker) handle(event fsnotify.Event) {
	w.logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name, true); err != nil {
				w.logger.Error("failed to watch new directory", "dir", event.Name, "error", err)
			}
			return
		}
	}

	id, ok := w.ns.documentID(event.Name)
	if !ok {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		// Atomic writes rename a temp file over the document, which shows up
		// as a create of a name we already know.
		if _, seen := w.known[id]; seen {
			// An empty file was already announced by addTree.
			if info, err := os.Stat(event.Name); err == nil && info.Size() == 0 {
				return
			}
			w.emit(core.EventModify, id)
			return
		}
		w.known[id] = struct{}{}
		w.emit(core.EventCreate, id)
	case event.Has(fsnotify.Write):
		w.emit(core.EventModify, id)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(w.known, id)
		w.emit(core.EventDelete, id)
	}
}

func (w *watchWorker) emit(t core.EventType, id string) {
	w.pending = append(w.pending, core.Event{
		Type:      t,
		Namespace: w.ns.name,
		ID:        id,
		Timestamp: time.Now().Unix(),
	})
}

// flush delivers pending events in order. It returns false when ctx ended
// first.
func (w *watchWorker) flush(ctx context.Context) bool {
	for len(w.pending) > 0 {
		select {
		case w.events <- w.pending[0]:
			w.pending = w.pending[1:]
		case <-ctx.Done():
			return false
		}
	}
	w.pending = nil
	return true
}
