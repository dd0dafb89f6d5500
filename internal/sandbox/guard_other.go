//go:build !linux

package sandbox

import (
	"github.com/cnc-n3r4/Isaac-sub001/internal/config"
	"github.com/cnc-n3r4/Isaac-sub001/internal/logger"
)

// Guard is a no-op on platforms without Landlock.
type Guard struct {
	workingDir string
	log        *logger.Logger
}

// NewGuard returns a guard that never restricts anything.
func NewGuard(workingDir string, settings config.SandboxSettings, extraWrite ...string) *Guard {
	g := &Guard{
		workingDir: workingDir,
		log:        logger.WithPrefix("sandbox"),
	}
	if settings.Enabled {
		g.log.Warn("sandbox requested but not available on this platform")
	}
	return g
}

// Enabled always reports false.
func (g *Guard) Enabled() bool {
	return false
}

// Applied always reports false.
func (g *Guard) Applied() bool {
	return false
}

// Paths returns nil.
func (g *Guard) Paths() []PathPermission {
	return nil
}

// Restrict is a no-op.
func (g *Guard) Restrict() error {
	return nil
}
