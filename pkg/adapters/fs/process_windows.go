//go:build windows

package fs

import "os"

// processAlive reports whether pid names a running process. FindProcess
// opens a handle, which fails once the process is gone.
func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	_ = p.Release()
	return true
}
