package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
)

func TestManagerSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	stateDir := t.TempDir()
	mgr, err := NewManager(stateDir)
	if err != nil {
		t.Fatalf("manager init failed: %v", err)
	}

	workDir := t.TempDir()
	s := New(workDir, platform.PowerShell)
	if err := mgr.Save(s); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if s.IsDirty() {
		t.Error("session should be clean after save")
	}

	loaded, err := mgr.Load(s.ID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.ID != s.ID {
		t.Errorf("expected ID %s, got %s", s.ID, loaded.ID)
	}
	if loaded.WorkingDir() != workDir {
		t.Errorf("expected working dir %s, got %s", workDir, loaded.WorkingDir())
	}
	if loaded.Platform() != platform.PowerShell {
		t.Errorf("expected powershell, got %s", loaded.Platform())
	}
	if loaded.IsDirty() {
		t.Error("freshly loaded session should be clean")
	}
}

func TestManagerSaveSkipsClean(t *testing.T) {
	t.Parallel()

	mgr, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	s := New(t.TempDir(), platform.Bash)
	if err := mgr.Save(s); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	// Remove the file; a clean session must not be rewritten.
	if err := os.Remove(mgr.path(s.ID)); err != nil {
		t.Fatal(err)
	}
	if err := mgr.Save(s); err != nil {
		t.Fatalf("clean save failed: %v", err)
	}
	if _, err := os.Stat(mgr.path(s.ID)); !os.IsNotExist(err) {
		t.Error("clean session was rewritten to disk")
	}

	// Touching makes it dirty again.
	s.Touch()
	if err := mgr.Save(s); err != nil {
		t.Fatalf("dirty save failed: %v", err)
	}
	if _, err := os.Stat(mgr.path(s.ID)); err != nil {
		t.Errorf("dirty session not persisted: %v", err)
	}
}

func TestManagerSaveSanitizesID(t *testing.T) {
	t.Parallel()

	mgr, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	s := New(t.TempDir(), platform.Bash)
	s.ID = "weird id/with?chars"
	if err := mgr.Save(s); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if strings.ContainsAny(s.ID, " /?") {
		t.Errorf("session ID not normalized: %q", s.ID)
	}
	if _, err := mgr.Load(s.ID); err != nil {
		t.Errorf("load by normalized ID failed: %v", err)
	}
}

func TestManagerListNewestFirst(t *testing.T) {
	t.Parallel()

	mgr, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	older := New(t.TempDir(), platform.Bash)
	if err := mgr.Save(older); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	newer := New(t.TempDir(), platform.Bash)
	if err := mgr.Save(newer); err != nil {
		t.Fatal(err)
	}

	list, err := mgr.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}
	if list[0].ID != newer.ID {
		t.Errorf("expected newest first, got %s", list[0].ID)
	}
}

func TestManagerListSkipsCorrupt(t *testing.T) {
	t.Parallel()

	mgr, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	s := New(t.TempDir(), platform.Bash)
	if err := mgr.Save(s); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(mgr.Dir(), "broken.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(mgr.Dir(), "future.json"), []byte(`{"version": 99, "id": "future"}`), 0644); err != nil {
		t.Fatal(err)
	}

	list, err := mgr.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected only the valid session, got %d", len(list))
	}
	if list[0].ID != s.ID {
		t.Errorf("expected %s, got %s", s.ID, list[0].ID)
	}
}

func TestManagerLoadVersionMismatch(t *testing.T) {
	t.Parallel()

	mgr, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(mgr.Dir(), "old.json"), []byte(`{"version": 99, "id": "old", "platform": "bash"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Load("old"); err == nil || !strings.Contains(err.Error(), "version mismatch") {
		t.Errorf("expected version mismatch error, got %v", err)
	}
}

func TestManagerDeleteMissing(t *testing.T) {
	t.Parallel()

	mgr, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := mgr.Delete("never-existed"); err != nil {
		t.Errorf("deleting a missing session should not fail: %v", err)
	}
}
