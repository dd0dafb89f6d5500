// Package dispatch routes one input line to the strategy that handles it and
// gates execution by safety tier. Strategy order is fixed: pipes split
// first, then device routing, force bypass, meta commands, queries, cd, and
// finally tier-gated execution, which claims everything left. Each top-level
// invocation holds its session's execution lock for the whole route and
// resolves to exactly one CommandResult.
package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/cnc-n3r4/Isaac-sub001/internal/advisor"
	"github.com/cnc-n3r4/Isaac-sub001/internal/audit"
	"github.com/cnc-n3r4/Isaac-sub001/internal/config"
	"github.com/cnc-n3r4/Isaac-sub001/internal/consts"
	"github.com/cnc-n3r4/Isaac-sub001/internal/logger"
	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
	"github.com/cnc-n3r4/Isaac-sub001/internal/shell"
	"github.com/cnc-n3r4/Isaac-sub001/internal/tier"
)

// Options configures a Router. Classifier is required; everything else
// degrades to a sensible default or to a refusal at dispatch time.
type Options struct {
	// Classifier assigns safety tiers. Required.
	Classifier *tier.Classifier

	// Source persists tier overrides for the "tiers set" meta command.
	// Nil disables persistence but not classification.
	Source *tier.Source

	// Gate corrects tier 2 commands and validates tier 3 commands. Nil
	// means corrections are skipped and tier 3 commands are refused as
	// validation unavailable.
	Gate advisor.Gate

	// Adapters maps platforms to shells. Defaults to the local bash and
	// powershell adapters.
	Adapters map[platform.Platform]shell.Adapter

	// Config supplies device definitions and the "config show" output.
	Config *config.Config

	// Audit records one row per top-level invocation. Nil disables the
	// journal.
	Audit *audit.Log

	// Queries answers "?", "task:" and "agent:" inputs. Nil refuses them.
	Queries QueryHandler

	// ShellTimeout bounds each spawned command. Zero means the default.
	ShellTimeout time.Duration
}

// Router dispatches input lines. Safe for concurrent use; per-session
// ordering is enforced through the session's execution lock.
type Router struct {
	strategies []Strategy
	audit      *audit.Log
	log        *logger.Logger
}

// NewRouter wires the strategy chain in precedence order.
func NewRouter(opts Options) *Router {
	adapters := opts.Adapters
	if adapters == nil {
		adapters = localAdapters()
	}
	exec := newExecutor(adapters, opts.ShellTimeout)

	r := &Router{
		audit: opts.Audit,
		log:   logger.WithPrefix("dispatch"),
	}
	r.strategies = []Strategy{
		newPipeStrategy(r.reenter),
		newDeviceStrategy(opts.Config, r.reenter),
		newForceStrategy(opts.Classifier, exec),
		newMetaStrategy(opts.Config, opts.Classifier, opts.Source, opts.Audit),
		newQueryStrategy(opts.Queries),
		newCdStrategy(),
		newTierStrategy(opts.Classifier, opts.Gate, exec),
	}
	return r
}

// localAdapters builds the loopback adapter set. A platform whose shell is
// not installed still gets an adapter; it fails with ErrSpawn at run time.
func localAdapters() map[platform.Platform]shell.Adapter {
	return map[platform.Platform]shell.Adapter{
		platform.Bash:       shell.NewBashAdapter(),
		platform.PowerShell: shell.NewPowerShellAdapter(),
	}
}

// Route resolves one top-level invocation. It serializes against other
// invocations on the same session, never lets a panic escape, and writes
// the audit row for the final result. Re-entrant strategies call reenter
// instead, so nested segments neither deadlock nor double-journal.
func (r *Router) Route(ctx context.Context, c *Context) (result *CommandResult) {
	if c == nil {
		return rejected("", tier.None, "nil dispatch context")
	}
	if c.Session != nil {
		c.Session.BeginExecution()
		defer c.Session.EndExecution()
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("panic while dispatching %q: %v", c.RawInput, rec)
			result = rejected("", tier.None, "internal dispatch failure: %v", rec)
		}
		r.record(c, result)
	}()

	result = r.reenter(ctx, c)
	return result
}

// reenter runs the strategy chain without touching the session lock or the
// audit journal. Pipe segments and device hops come back through here.
func (r *Router) reenter(ctx context.Context, c *Context) *CommandResult {
	if c.Depth > consts.MaxRouteDepth {
		return rejected("", tier.None, "%v: routing depth exceeds %d", ErrClassification, consts.MaxRouteDepth)
	}
	if strings.TrimSpace(c.RawInput) == "" {
		return rejected("", tier.None, "%v: empty input", ErrClassification)
	}
	for _, s := range r.strategies {
		if !s.Matches(c) {
			continue
		}
		r.log.Debug("strategy %s claims %q (depth %d)", s.Name(), c.RawInput, c.Depth)
		return s.Execute(ctx, c)
	}
	return rejected("", tier.None, "%v: no strategy for %q", ErrClassification, c.RawInput)
}

// record writes the audit row for a top-level invocation.
func (r *Router) record(c *Context, res *CommandResult) {
	if r.audit == nil || res == nil {
		return
	}
	sessionID := ""
	if c.Session != nil {
		sessionID = c.Session.ID
	}
	rec := &audit.Record{
		SessionID: sessionID,
		Platform:  c.Platform.String(),
		Input:     c.RawInput,
		Strategy:  res.StrategyUsed,
		Tier:      res.TierApplied.String(),
		Success:   res.Success,
		ExitCode:  res.ExitCode,
		Corrected: res.AICorrected,
		Error:     res.Error,
	}
	if err := r.audit.Record(rec); err != nil {
		r.log.Warn("audit write failed: %v", err)
	}
}
