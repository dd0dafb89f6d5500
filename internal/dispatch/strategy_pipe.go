package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/cnc-n3r4/Isaac-sub001/internal/consts"
	"github.com/cnc-n3r4/Isaac-sub001/internal/tier"
)

type reentry func(ctx context.Context, c *Context) *CommandResult

// pipeStrategy splits a line on unquoted pipes and routes every segment as
// its own invocation, so each one is classified and gated on its own. Stdout
// of a segment becomes stdin of the next; the first failure stops the chain.
type pipeStrategy struct {
	reenter reentry
}

func newPipeStrategy(reenter reentry) *pipeStrategy {
	return &pipeStrategy{reenter: reenter}
}

func (s *pipeStrategy) Name() string { return "pipe" }

func (s *pipeStrategy) Matches(c *Context) bool {
	return len(splitPipeline(c.RawInput)) > 1
}

func (s *pipeStrategy) Execute(ctx context.Context, c *Context) *CommandResult {
	segments := splitPipeline(c.RawInput)
	if len(segments) > consts.MaxPipeSegments {
		return rejected(s.Name(), tier.None, "%v: pipeline has %d segments, limit is %d",
			ErrClassification, len(segments), consts.MaxPipeSegments)
	}

	// Vet the whole line before the first segment runs. A malformed tail
	// must not leave the head already executed.
	for i, seg := range segments {
		segments[i] = strings.TrimSpace(seg)
		if segments[i] == "" {
			return rejected(s.Name(), tier.None, "%v: pipe segment %d is empty", ErrClassification, i+1)
		}
	}

	stdin := c.Stdin
	var last *CommandResult
	var highest tier.Tier
	for i, text := range segments {
		res := s.reenter(ctx, c.child(text, stdin))
		if res.TierApplied > highest {
			highest = res.TierApplied
		}
		if !res.Success {
			folded := *res
			folded.StrategyUsed = s.Name()
			folded.TierApplied = highest
			folded.Error = fmt.Sprintf("pipe segment %d/%d: %s", i+1, len(segments), res.Error)
			return &folded
		}
		stdin = res.Output
		last = res
	}

	folded := *last
	folded.StrategyUsed = s.Name()
	folded.TierApplied = highest
	return &folded
}

// splitPipeline splits on pipes outside quotes. "||" and "|&" are shell
// operators, not chain separators, and never split. A line without an
// unquoted pipe comes back as a single segment.
func splitPipeline(raw string) []string {
	var (
		segments           []string
		start              int
		inSingle, inDouble bool
	)
	for i := 0; i < len(raw); i++ {
		switch ch := raw[i]; {
		case ch == '\\' && !inSingle:
			i++
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
		case ch == '"' && !inSingle:
			inDouble = !inDouble
		case ch == '|' && !inSingle && !inDouble:
			if i+1 < len(raw) && (raw[i+1] == '|' || raw[i+1] == '&') {
				i++
				continue
			}
			segments = append(segments, raw[start:i])
			start = i + 1
		}
	}
	return append(segments, raw[start:])
}
