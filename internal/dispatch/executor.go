package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cnc-n3r4/Isaac-sub001/internal/alias"
	"github.com/cnc-n3r4/Isaac-sub001/internal/consts"
	"github.com/cnc-n3r4/Isaac-sub001/internal/logger"
	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
	"github.com/cnc-n3r4/Isaac-sub001/internal/shell"
	"github.com/cnc-n3r4/Isaac-sub001/internal/tier"
)

// executor spawns gated commands through the platform adapters. Both the
// tier strategy and the force strategy end here once their gates are done.
type executor struct {
	adapters map[platform.Platform]shell.Adapter
	timeout  time.Duration
	log      *logger.Logger
}

func newExecutor(adapters map[platform.Platform]shell.Adapter, timeout time.Duration) *executor {
	if timeout <= 0 {
		timeout = consts.DefaultShellTimeout
	}
	return &executor{
		adapters: adapters,
		timeout:  timeout,
		log:      logger.WithPrefix("dispatch"),
	}
}

// run executes command on the context's platform and folds the shell result
// into a CommandResult. Alias translation to the native shell vocabulary
// happens here, after every gate has seen the canonical text.
func (e *executor) run(ctx context.Context, c *Context, command, strategy string, t tier.Tier) *CommandResult {
	adapter, ok := e.adapters[c.Platform]
	if adapter == nil || !ok {
		return rejected(strategy, t, "no shell adapter for platform %s", c.Platform)
	}

	native := alias.Native(command, c.Platform)
	if native != command {
		e.log.Debug("translated %q to native %q", command, native)
	}

	req := shell.ExecRequest{
		Command:    native,
		WorkingDir: c.workingDir(),
		Stdin:      c.Stdin,
		Timeout:    e.timeout,
	}

	res, err := adapter.Run(ctx, req)
	if err != nil {
		out := &CommandResult{
			Success:      false,
			Error:        err.Error(),
			ExitCode:     -1,
			TierApplied:  t,
			StrategyUsed: strategy,
		}
		// A timeout still carries the output produced before the kill.
		if errors.Is(err, shell.ErrTimeout) && res != nil {
			out.Output = res.Stdout
			out.Duration = res.Duration
		}
		return out
	}

	result := &CommandResult{
		Success:      res.ExitCode == 0,
		Output:       res.Stdout,
		ExitCode:     res.ExitCode,
		Duration:     res.Duration,
		TierApplied:  t,
		StrategyUsed: strategy,
	}
	if res.ExitCode != 0 {
		result.Error = res.Stderr
		if result.Error == "" {
			result.Error = fmt.Sprintf("exit status %d", res.ExitCode)
		}
	}
	return result
}
