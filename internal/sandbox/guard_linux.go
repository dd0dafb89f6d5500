//go:build linux

package sandbox

import (
	"fmt"
	"os"
	"path/filepath"

	landlock "github.com/landlock-lsm/go-landlock/landlock"

	"github.com/cnc-n3r4/Isaac-sub001/internal/config"
	"github.com/cnc-n3r4/Isaac-sub001/internal/logger"
)

// Guard applies Landlock restrictions to the current process.
type Guard struct {
	workingDir string
	paths      []PathPermission
	enabled    bool
	applied    bool
	log        *logger.Logger
}

// NewGuard builds a guard from the sandbox settings. The working
// directory and extraWrite paths (state and config directories) are
// always writable so the dispatcher can keep persisting its own files.
func NewGuard(workingDir string, settings config.SandboxSettings, extraWrite ...string) *Guard {
	g := &Guard{
		workingDir: workingDir,
		enabled:    settings.Enabled,
		log:        logger.WithPrefix("sandbox"),
	}
	if !settings.Enabled {
		g.log.Debug("sandbox disabled via config")
		return g
	}

	g.paths = defaultPermissions()
	if workingDir != "" {
		g.addPath(workingDir, AccessReadWrite)
	}
	for _, p := range extraWrite {
		g.addPath(p, AccessReadWrite)
	}
	for _, p := range settings.ReadOnlyPaths {
		g.addPath(p, AccessReadOnly)
	}
	for _, p := range settings.ReadWritePaths {
		g.addPath(p, AccessReadWrite)
	}
	return g
}

// addPath normalizes and records a path, skipping ones that do not exist.
func (g *Guard) addPath(path string, access AccessLevel) {
	if path == "" {
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	abs = filepath.Clean(abs)

	if _, err := os.Stat(abs); err != nil {
		g.log.Debug("skipping missing sandbox path: %s", abs)
		return
	}
	for _, existing := range g.paths {
		if existing.Path == abs && existing.Access >= access {
			return
		}
	}
	g.paths = append(g.paths, PathPermission{Path: abs, Access: access})
}

// defaultPermissions covers what nearly every command needs: system
// binaries and libraries, device files, and temp space. The user's home
// is readable so commands can resolve dotfiles; writes need an explicit
// config grant.
func defaultPermissions() []PathPermission {
	var perms []PathPermission
	add := func(path string, access AccessLevel) {
		if _, err := os.Stat(path); err == nil {
			perms = append(perms, PathPermission{Path: path, Access: access})
		}
	}

	for _, p := range []string{
		"/usr", "/bin", "/sbin", "/lib", "/lib64", "/etc",
		"/usr/local/bin", "/usr/local/lib",
		"/run/current-system/sw", // NixOS
		"/nix/store",
	} {
		add(p, AccessReadOnly)
	}
	for _, p := range []string{
		"/dev/null", "/dev/zero", "/dev/random", "/dev/urandom",
		"/dev/stdin", "/dev/stdout", "/dev/stderr",
	} {
		add(p, AccessReadWrite)
	}
	add(os.TempDir(), AccessReadWrite)
	add("/tmp", AccessReadWrite)
	add("/var/tmp", AccessReadWrite)

	if home, err := os.UserHomeDir(); err == nil {
		add(home, AccessReadOnly)
	}
	return perms
}

// Enabled reports whether restrictions will be applied.
func (g *Guard) Enabled() bool {
	return g.enabled
}

// Applied reports whether restrictions are active on this process.
func (g *Guard) Applied() bool {
	return g.applied
}

// Paths returns the permission set the guard will apply.
func (g *Guard) Paths() []PathPermission {
	out := make([]PathPermission, len(g.paths))
	copy(out, g.paths)
	return out
}

// Restrict applies the Landlock ruleset to the current process. Best
// effort mode degrades gracefully on older kernels. A hard failure
// disables the guard and is reported to the caller, which logs it and
// continues unsandboxed.
func (g *Guard) Restrict() error {
	if !g.enabled || g.applied {
		return nil
	}

	// Landlock rejects directory access rights on regular files, so the
	// two need separate rule constructors.
	rules := make([]landlock.Rule, 0, len(g.paths))
	for _, perm := range g.paths {
		info, err := os.Stat(perm.Path)
		isFile := err == nil && !info.IsDir()
		switch {
		case perm.Access == AccessReadOnly && isFile:
			rules = append(rules, landlock.ROFiles(perm.Path))
		case perm.Access == AccessReadOnly:
			rules = append(rules, landlock.RODirs(perm.Path))
		case isFile:
			rules = append(rules, landlock.RWFiles(perm.Path))
		default:
			rules = append(rules, landlock.RWDirs(perm.Path))
		}
	}

	if err := landlock.V6.BestEffort().RestrictPaths(rules...); err != nil {
		g.enabled = false
		return fmt.Errorf("landlock restriction failed: %w", err)
	}

	g.applied = true
	g.log.Info("landlock restrictions applied to %d paths", len(g.paths))
	return nil
}
