package shell

import (
	"context"
	"os/exec"

	"github.com/cnc-n3r4/Isaac-sub001/internal/logger"
	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
)

// PowerShellAdapter executes commands through pwsh when available and
// falls back to Windows PowerShell.
type PowerShellAdapter struct {
	shellPath string
	log       *logger.Logger
}

// NewPowerShellAdapter locates the shell binary once at construction.
func NewPowerShellAdapter() *PowerShellAdapter {
	path := "powershell"
	if p, err := exec.LookPath("pwsh"); err == nil {
		path = p
	}
	return &PowerShellAdapter{
		shellPath: path,
		log:       logger.WithPrefix("shell:powershell"),
	}
}

// Run executes the request non-interactively so a stray prompt can never
// hang the dispatcher.
func (a *PowerShellAdapter) Run(ctx context.Context, req ExecRequest) (*ExecResult, error) {
	args := []string{"-NoProfile", "-NonInteractive", "-Command", req.Command}
	return runCommand(ctx, a.log, a.shellPath, args, req)
}

// Platform reports powershell.
func (a *PowerShellAdapter) Platform() platform.Platform {
	return platform.PowerShell
}
