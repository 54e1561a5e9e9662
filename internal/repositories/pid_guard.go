package repositories

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// LockSuffix is appended to the progress file path to form the lock file path.
const LockSuffix = ".lock"

// PIDGuard keeps two glx processes from mutating the same progress file.
type PIDGuard struct {
	path string
}

// NewPIDGuard creates a guard for the progress file at progressPath.
func NewPIDGuard(progressPath string) *PIDGuard {
	return &PIDGuard{path: progressPath + LockSuffix}
}

// Path returns the lock file location.
func (g *PIDGuard) Path() string {
	return g.path
}

// Check returns [*AlreadyRunningError] if a live process holds the lock.
// Stale or unreadable lock files are removed.
func (g *PIDGuard) Check() error {
	data, err := os.ReadFile(g.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read lock file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		os.Remove(g.path)
		return nil
	}

	if pid != os.Getpid() && processExists(pid) {
		return &AlreadyRunningError{PID: pid, Path: g.path}
	}

	os.Remove(g.path)
	return nil
}

// Acquire checks for a live holder and writes the current PID to the lock file.
func (g *PIDGuard) Acquire() error {
	if err := g.Check(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(g.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(g.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return &AlreadyRunningError{Path: g.path}
		}
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		return fmt.Errorf("failed to write lock file: %w", err)
	}
	return nil
}

// Release removes the lock file. Safe to call when no lock is held.
func (g *PIDGuard) Release() {
	os.Remove(g.path)
}

// AlreadyRunningError indicates another process owns the progress file.
type AlreadyRunningError struct {
	PID  int
	Path string
}

func (e *AlreadyRunningError) Error() string {
	if e.PID == 0 {
		return fmt.Sprintf("another glx run holds %s", e.Path)
	}
	return fmt.Sprintf("another glx run holds %s (pid %d)", e.Path, e.PID)
}

func processExists(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// FindProcess always succeeds on Unix; signal 0 probes for existence.
	return process.Signal(syscall.Signal(0)) == nil
}
