// Package session tracks the state one dispatcher conversation carries
// between commands: the working directory, the target platform, and the
// confirmation hook used before guarded executions.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
)

// ErrNoConfirmer is returned when a confirmation is required but no
// interactive confirmer is attached. Callers treat this as a decline.
var ErrNoConfirmer = errors.New("no confirmer attached to session")

// Confirmer asks the user to approve an action before it runs. Confirm
// returns true only on an explicit affirmative answer.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Session is the per-conversation state. Commands within one session run
// strictly sequentially; BeginExecution serializes them.
type Session struct {
	ID string

	mu         sync.RWMutex
	workingDir string
	platform   platform.Platform
	confirmer  Confirmer
	createdAt  time.Time
	updatedAt  time.Time
	dirty      bool

	// execMu is held for the full span of one command dispatch so a
	// session never interleaves two executions.
	execMu sync.Mutex
}

// New creates a session rooted at workingDir targeting p. An empty
// workingDir falls back to the process directory.
func New(workingDir string, p platform.Platform) *Session {
	if workingDir == "" {
		if wd, err := os.Getwd(); err == nil {
			workingDir = wd
		}
	}
	now := time.Now()
	return &Session{
		ID:         GenerateID(),
		workingDir: workingDir,
		platform:   p,
		createdAt:  now,
		updatedAt:  now,
		dirty:      true,
	}
}

// BeginExecution blocks until the session is free to run a command.
func (s *Session) BeginExecution() {
	s.execMu.Lock()
}

// EndExecution releases the session for the next command.
func (s *Session) EndExecution() {
	s.execMu.Unlock()
}

// WorkingDir returns the session's current working directory.
func (s *Session) WorkingDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workingDir
}

// SetWorkingDir changes the session's working directory. Relative paths
// resolve against the current working directory. The target must exist
// and be a directory.
func (s *Session) SetWorkingDir(dir string) error {
	if dir == "" {
		return errors.New("working directory cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !filepath.IsAbs(dir) {
		dir = filepath.Join(s.workingDir, dir)
	}
	dir = filepath.Clean(dir)

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot change directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}

	s.workingDir = dir
	s.updatedAt = time.Now()
	s.dirty = true
	return nil
}

// Platform returns the shell family this session targets.
func (s *Session) Platform() platform.Platform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.platform
}

// SetPlatform switches the session's target shell family.
func (s *Session) SetPlatform(p platform.Platform) error {
	if !p.Valid() {
		return fmt.Errorf("invalid execution platform %q", p)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.platform = p
	s.updatedAt = time.Now()
	s.dirty = true
	return nil
}

// SetConfirmer attaches the interactive confirmation hook.
func (s *Session) SetConfirmer(c Confirmer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmer = c
}

// Confirm asks the attached confirmer to approve prompt. Without a
// confirmer it returns ErrNoConfirmer so guarded commands stay blocked.
func (s *Session) Confirm(ctx context.Context, prompt string) (bool, error) {
	s.mu.RLock()
	c := s.confirmer
	s.mu.RUnlock()

	if c == nil {
		return false, ErrNoConfirmer
	}
	return c.Confirm(ctx, prompt)
}

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.createdAt
}

// UpdatedAt returns when the session last changed.
func (s *Session) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// IsDirty reports whether there are unsaved changes.
func (s *Session) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// MarkSaved records a successful persistence pass.
func (s *Session) MarkSaved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

// Touch marks the session as used so persistence picks up fresh activity.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updatedAt = time.Now()
	s.dirty = true
}
