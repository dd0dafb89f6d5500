package dispatch

import (
	"fmt"
	"time"

	"github.com/cnc-n3r4/Isaac-sub001/internal/advisor"
	"github.com/cnc-n3r4/Isaac-sub001/internal/tier"
)

// CommandResult is the single outcome of one routed invocation. Pipe
// segments each produce their own result; the pipe strategy folds them into
// one result for the whole line. Once returned a result is never mutated.
type CommandResult struct {
	Success  bool
	Output   string
	Error    string
	ExitCode int
	Duration time.Duration

	// TierApplied is the tier the command was gated at, or tier.None when
	// classification never happened (meta commands, queries, cd).
	TierApplied tier.Tier

	// StrategyUsed names the strategy that resolved the invocation.
	StrategyUsed string

	// AICorrected holds the substituted command text when an advisor
	// correction was applied, empty otherwise.
	AICorrected string

	// AIValidation carries the advisor verdict for tier 3 commands.
	AIValidation *advisor.Verdict
}

// rejected builds a refusal result. Nothing was executed, so the exit code
// is -1 rather than a shell status.
func rejected(strategy string, t tier.Tier, format string, args ...interface{}) *CommandResult {
	return &CommandResult{
		Success:      false,
		Error:        fmt.Sprintf(format, args...),
		ExitCode:     -1,
		TierApplied:  t,
		StrategyUsed: strategy,
	}
}

// infoResult builds a successful informational result for strategies that
// answer without spawning a process.
func infoResult(strategy, output string) *CommandResult {
	return &CommandResult{
		Success:      true,
		Output:       output,
		StrategyUsed: strategy,
	}
}
