package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrSessionBusy reports that another live process holds the session.
var ErrSessionBusy = errors.New("session is in use by another process")

// Lock marks a session as claimed by this process. Two processes resuming
// the same session would silently overwrite each other's saved state, so a
// resume first has to win the lock file next to the session file.
type Lock struct {
	path string
	file *os.File
}

// Acquire claims exclusive use of a session. A lock file left behind by a
// process that no longer runs is reclaimed; a lock held by a live process
// fails with ErrSessionBusy.
func (m *Manager) Acquire(id string) (*Lock, error) {
	path := filepath.Join(m.dir, sanitizeID(id)+".lock")
	for attempt := 0; attempt < 2; attempt++ {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
		if err == nil {
			return claim(path, file)
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create session lock: %w", err)
		}
		holder, reclaimable := lockHolder(path)
		if !reclaimable {
			return nil, fmt.Errorf("%w: %s (remove %s if this is wrong)", ErrSessionBusy, holder, path)
		}
		m.log.Warn("reclaiming session lock %s: %s", path, holder)
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			return nil, fmt.Errorf("failed to remove stale session lock: %w", rmErr)
		}
	}
	return nil, fmt.Errorf("%w: lock contention on %s", ErrSessionBusy, path)
}

// claim stamps the freshly created lock file with the owner's identity so
// a later Acquire can tell a live holder from a leftover.
func claim(path string, file *os.File) (*Lock, error) {
	stamp := fmt.Sprintf("%d\n%s\n", os.Getpid(), time.Now().Format(time.RFC3339))
	if _, err := file.WriteString(stamp); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to stamp session lock: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to sync session lock: %w", err)
	}
	return &Lock{path: path, file: file}, nil
}

// lockHolder describes who holds an existing lock file and whether the
// lock can be reclaimed. Only a live holder keeps the lock; anything
// unreadable or dead is a leftover.
func lockHolder(path string) (holder string, reclaimable bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "lock file is unreadable", true
	}
	lines := strings.SplitN(strings.TrimSpace(string(data)), "\n", 2)
	pid, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return "lock file is malformed", true
	}
	if !processAlive(pid) {
		return fmt.Sprintf("process %d is gone", pid), true
	}
	if len(lines) == 2 {
		if started, perr := time.Parse(time.RFC3339, strings.TrimSpace(lines[1])); perr == nil {
			return fmt.Sprintf("held by process %d since %s", pid, started.Format(time.RFC3339)), false
		}
	}
	return fmt.Sprintf("held by process %d", pid), false
}

// Release drops the lock and removes its file. Releasing a nil or already
// released lock is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	if rmErr := os.Remove(l.path); rmErr != nil && !os.IsNotExist(rmErr) {
		if err != nil {
			return fmt.Errorf("%v; failed to remove session lock: %w", err, rmErr)
		}
		return fmt.Errorf("failed to remove session lock: %w", rmErr)
	}
	return err
}

// Path returns the lock file location, mostly for error messages.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}
