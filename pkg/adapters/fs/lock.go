package fs

import (
	"bytes"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/vellum/pkg/core"
)

// LockFileName is the name of the ownership lock inside the system directory.
const LockFileName = "lock"

const (
	// lockAttempts bounds how often a stale lock is cleared and retried.
	lockAttempts = 3
	// lockWriteGrace is how long an unreadable lock file is assumed to be
	// in the middle of being written by its owner.
	lockWriteGrace = 10 * time.Second
)

// rootLock marks a store root as owned by one running store instance.
type rootLock struct {
	path string
}

// acquireRootLock creates the lock file exclusively. A lock left behind by
// a process that no longer runs is removed and the create retried. A live
// owner makes it fail fast with core.ErrLocked instead of waiting: a second
// store on the same root is a configuration mistake, not contention.
func acquireRootLock(sysDir string) (*rootLock, error) {
	if err := os.MkdirAll(sysDir, 0o755); err != nil {
		return nil, fmt.Errorf("create system dir: %w", err)
	}

	path := filepath.Join(sysDir, LockFileName)
	for attempt := 0; ; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, werr := f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
			cerr := f.Close()
			if err := errors.Join(werr, cerr); err != nil {
				_ = os.Remove(path)
				return nil, fmt.Errorf("write lock file: %w", err)
			}
			return &rootLock{path: path}, nil
		}
		if !errors.Is(err, iofs.ErrExist) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}

		owner, stale := inspectLock(path)
		if !stale || attempt+1 >= lockAttempts {
			return nil, fmt.Errorf("%w: %s held by pid %s", core.ErrLocked, path, owner)
		}
		if err := removeStaleLock(path, owner); err != nil {
			return nil, err
		}
	}
}

// inspectLock reads the owner pid and decides whether the lock outlived it.
func inspectLock(path string) (owner string, stale bool) {
	data, err := os.ReadFile(path)
	if errors.Is(err, iofs.ErrNotExist) {
		return "unknown", true
	}
	if err != nil {
		return "unknown", false
	}
	owner = strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(owner)
	if err != nil || pid <= 0 {
		info, serr := os.Stat(path)
		if owner == "" {
			owner = "unknown"
		}
		return owner, serr == nil && time.Since(info.ModTime()) > lockWriteGrace
	}
	return owner, !processAlive(pid)
}

// removeStaleLock deletes the lock only if it still names owner, so a lock
// freshly taken by another process is left alone.
func removeStaleLock(path, owner string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, iofs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read lock file: %w", err)
	}
	if got := string(bytes.TrimSpace(data)); got != owner && !(got == "" && owner == "unknown") {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return fmt.Errorf("remove stale lock file: %w", err)
	}
	return nil
}

func (l *rootLock) release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}
