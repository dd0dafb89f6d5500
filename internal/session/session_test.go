package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
)

func TestNewSessionDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := New(dir, platform.Bash)

	if s.ID == "" {
		t.Fatal("expected a generated session ID")
	}
	if s.WorkingDir() != dir {
		t.Errorf("expected working dir %s, got %s", dir, s.WorkingDir())
	}
	if s.Platform() != platform.Bash {
		t.Errorf("expected bash platform, got %s", s.Platform())
	}
	if !s.IsDirty() {
		t.Error("new session should be dirty")
	}
}

func TestGenerateIDFormat(t *testing.T) {
	t.Parallel()

	pattern := regexp.MustCompile(`^[a-z]+-[a-z]+-[0-9a-f]{4}$`)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := GenerateID()
		if !pattern.MatchString(id) {
			t.Fatalf("unexpected ID format: %q", id)
		}
		seen[id] = true
	}
	// With a 2-byte tail, 50 draws colliding across the board would mean
	// the generator is broken, not unlucky.
	if len(seen) < 25 {
		t.Errorf("expected mostly unique IDs, got %d distinct out of 50", len(seen))
	}
}

func TestSetWorkingDir(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	sub := filepath.Join(base, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(base, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	s := New(base, platform.Bash)

	if err := s.SetWorkingDir(sub); err != nil {
		t.Fatalf("absolute dir change failed: %v", err)
	}
	if s.WorkingDir() != sub {
		t.Errorf("expected %s, got %s", sub, s.WorkingDir())
	}

	// Relative path resolves against the current working dir.
	if err := s.SetWorkingDir(".."); err != nil {
		t.Fatalf("relative dir change failed: %v", err)
	}
	if s.WorkingDir() != base {
		t.Errorf("expected %s after .., got %s", base, s.WorkingDir())
	}

	if err := s.SetWorkingDir(filepath.Join(base, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
	if err := s.SetWorkingDir(file); err == nil {
		t.Error("expected error for non-directory target")
	}
	if err := s.SetWorkingDir(""); err == nil {
		t.Error("expected error for empty directory")
	}
	// Failed changes must not move the session.
	if s.WorkingDir() != base {
		t.Errorf("working dir moved on failed change: %s", s.WorkingDir())
	}
}

func TestSetPlatform(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir(), platform.Bash)
	if err := s.SetPlatform(platform.PowerShell); err != nil {
		t.Fatalf("platform change failed: %v", err)
	}
	if s.Platform() != platform.PowerShell {
		t.Errorf("expected powershell, got %s", s.Platform())
	}
	if err := s.SetPlatform(platform.Any); err == nil {
		t.Error("expected error for wildcard platform")
	}
}

type stubConfirmer struct {
	answer  bool
	err     error
	prompts []string
}

func (c *stubConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	c.prompts = append(c.prompts, prompt)
	return c.answer, c.err
}

func TestConfirmWithoutConfirmer(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir(), platform.Bash)
	ok, err := s.Confirm(context.Background(), "run this?")
	if !errors.Is(err, ErrNoConfirmer) {
		t.Fatalf("expected ErrNoConfirmer, got %v", err)
	}
	if ok {
		t.Error("confirmation without a confirmer must not approve")
	}
}

func TestConfirmDelegates(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir(), platform.Bash)
	c := &stubConfirmer{answer: true}
	s.SetConfirmer(c)

	ok, err := s.Confirm(context.Background(), "run rm -rf build?")
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if !ok {
		t.Error("expected approval from stub confirmer")
	}
	if len(c.prompts) != 1 || !strings.Contains(c.prompts[0], "rm -rf build") {
		t.Errorf("prompt not forwarded: %v", c.prompts)
	}
}

func TestSequentialExecution(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir(), platform.Bash)

	var active, overlap int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.BeginExecution()
			defer s.EndExecution()
			if atomic.AddInt32(&active, 1) != 1 {
				atomic.StoreInt32(&overlap, 1)
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	if atomic.LoadInt32(&overlap) != 0 {
		t.Error("two commands ran concurrently within one session")
	}
}
