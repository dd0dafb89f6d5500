package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/cnc-n3r4/Isaac-sub001/internal/logger"
	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
)

// storageVersion guards against loading session files written by an
// incompatible build.
const storageVersion = 1

// storedSession is the on-disk shape of a session.
type storedSession struct {
	Version    int       `json:"version"`
	ID         string    `json:"id"`
	WorkingDir string    `json:"working_dir"`
	Platform   string    `json:"platform"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Metadata is the lightweight listing view of a persisted session.
type Metadata struct {
	ID         string    `json:"id"`
	WorkingDir string    `json:"working_dir"`
	Platform   string    `json:"platform"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Manager persists sessions as JSON files under one directory.
type Manager struct {
	dir string
	log *logger.Logger
}

// NewManager creates the sessions directory under stateDir and returns a
// manager rooted there.
func NewManager(stateDir string) (*Manager, error) {
	dir := filepath.Join(stateDir, "sessions")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &Manager{
		dir: dir,
		log: logger.WithPrefix("session"),
	}, nil
}

// Dir returns the directory sessions are stored in.
func (m *Manager) Dir() string {
	return m.dir
}

var nonID = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// sanitizeID produces a filesystem-safe session ID. The ID is the single
// source of truth for the filename.
func sanitizeID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.ReplaceAll(id, string(os.PathSeparator), "-")
	id = nonID.ReplaceAllString(id, "-")
	id = strings.Trim(id, "-")
	if id == "" {
		id = fmt.Sprintf("session-%d", time.Now().Unix())
	}
	return id
}

func (m *Manager) path(id string) string {
	return filepath.Join(m.dir, sanitizeID(id)+".json")
}

// Save writes the session to disk. Clean sessions are skipped.
func (m *Manager) Save(s *Session) error {
	if s == nil {
		return nil
	}
	if !s.IsDirty() {
		m.log.Debug("session %s already persisted; skipping", s.ID)
		return nil
	}

	stored := storedSession{
		Version:    storageVersion,
		ID:         sanitizeID(s.ID),
		WorkingDir: s.WorkingDir(),
		Platform:   s.Platform().String(),
		CreatedAt:  s.CreatedAt(),
		UpdatedAt:  s.UpdatedAt(),
	}
	if stored.ID != s.ID {
		m.log.Warn("normalized session ID from %q to %q for storage", s.ID, stored.ID)
		s.ID = stored.ID
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	finalPath := m.path(stored.ID)
	tempPath := finalPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename session file: %w", err)
	}

	s.MarkSaved()
	m.log.Debug("saved session %s to %s", stored.ID, finalPath)
	return nil
}

// Load reads a session back from disk.
func (m *Manager) Load(id string) (*Session, error) {
	data, err := os.ReadFile(m.path(id))
	if err != nil {
		return nil, fmt.Errorf("failed to open session file: %w", err)
	}

	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if stored.Version != storageVersion {
		return nil, fmt.Errorf("session version mismatch: expected %d, got %d", storageVersion, stored.Version)
	}

	p, err := platform.Parse(stored.Platform)
	if err != nil {
		return nil, fmt.Errorf("session %s has invalid platform: %w", stored.ID, err)
	}

	s := &Session{
		ID:         stored.ID,
		workingDir: stored.WorkingDir,
		platform:   p,
		createdAt:  stored.CreatedAt,
		updatedAt:  stored.UpdatedAt,
	}
	return s, nil
}

// List returns metadata for every readable session, newest first.
// Corrupted or incompatible files are skipped rather than failing the
// whole listing.
func (m *Manager) List() ([]Metadata, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Metadata{}, nil
		}
		return nil, fmt.Errorf("failed to read session directory: %w", err)
	}

	var sessions []Metadata
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m.dir, entry.Name()))
		if err != nil {
			continue
		}
		var stored storedSession
		if err := json.Unmarshal(data, &stored); err != nil {
			continue
		}
		if stored.Version != storageVersion {
			continue
		}
		sessions = append(sessions, Metadata{
			ID:         stored.ID,
			WorkingDir: stored.WorkingDir,
			Platform:   stored.Platform,
			CreatedAt:  stored.CreatedAt,
			UpdatedAt:  stored.UpdatedAt,
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// Delete removes a session file. Deleting a missing session is not an
// error.
func (m *Manager) Delete(id string) error {
	if err := os.Remove(m.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}
