package shell

import (
	"context"
	"os/exec"

	"github.com/cnc-n3r4/Isaac-sub001/internal/logger"
	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
)

// BashAdapter executes commands through bash, falling back to sh when
// bash is not installed.
type BashAdapter struct {
	shellPath string
	log       *logger.Logger
}

// NewBashAdapter locates the shell binary once at construction.
func NewBashAdapter() *BashAdapter {
	path := "sh"
	if p, err := exec.LookPath("bash"); err == nil {
		path = p
	}
	return &BashAdapter{
		shellPath: path,
		log:       logger.WithPrefix("shell:bash"),
	}
}

// Run executes the request as `bash -c <command>`.
func (a *BashAdapter) Run(ctx context.Context, req ExecRequest) (*ExecResult, error) {
	return runCommand(ctx, a.log, a.shellPath, []string{"-c", req.Command}, req)
}

// Platform reports bash.
func (a *BashAdapter) Platform() platform.Platform {
	return platform.Bash
}
