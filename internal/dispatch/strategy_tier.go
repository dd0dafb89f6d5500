package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/cnc-n3r4/Isaac-sub001/internal/advisor"
	"github.com/cnc-n3r4/Isaac-sub001/internal/consts"
	"github.com/cnc-n3r4/Isaac-sub001/internal/logger"
	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
	"github.com/cnc-n3r4/Isaac-sub001/internal/syntax"
	"github.com/cnc-n3r4/Isaac-sub001/internal/tier"
)

// tierStrategy is the catch-all: classify the command and walk it through
// the gates its tier demands.
//
//	tier 1    run immediately
//	tier 2    auto-correct, then run
//	tier 2.5  auto-correct, confirm, then run
//	tier 3    advisor must judge it safe, then run
//	tier 4    never run
//
// A failed or unavailable correction degrades to the original text; a
// failed or unavailable validation refuses. Correction may soften, never
// weaken, which is why a corrected command still runs under its original
// tier's remaining gates.
type tierStrategy struct {
	classifier *tier.Classifier
	gate       advisor.Gate
	exec       *executor
	vet        *syntax.Validator
	log        *logger.Logger
}

func newTierStrategy(classifier *tier.Classifier, gate advisor.Gate, exec *executor) *tierStrategy {
	return &tierStrategy{
		classifier: classifier,
		gate:       gate,
		exec:       exec,
		vet:        syntax.NewValidator(),
		log:        logger.WithPrefix("dispatch:tier"),
	}
}

func (s *tierStrategy) Name() string { return "tier_execution" }

// Matches claims everything. The tier strategy is last in the chain.
func (s *tierStrategy) Matches(*Context) bool { return true }

func (s *tierStrategy) Execute(ctx context.Context, c *Context) *CommandResult {
	if s.classifier == nil {
		return rejected(s.Name(), tier.None, "no tier classifier configured")
	}
	command := strings.TrimSpace(c.RawInput)
	cls := s.classifier.Classify(command, c.Platform)

	switch cls.Tier {
	case tier.Tier1:
		return s.exec.run(ctx, c, command, s.Name(), cls.Tier)

	case tier.Tier2:
		final, corrected := s.correct(ctx, command, c.Platform)
		res := s.exec.run(ctx, c, final, s.Name(), cls.Tier)
		res.AICorrected = corrected
		return res

	case tier.Tier25:
		return s.confirmAndRun(ctx, c, command, cls.Tier)

	case tier.Tier3:
		return s.validateAndRun(ctx, c, command, cls.Tier)

	case tier.Tier4:
		return rejected(s.Name(), cls.Tier,
			"tier 4 lockdown: %q is never executed", cls.Name)
	}
	return rejected(s.Name(), cls.Tier, "%v: unhandled tier %s", ErrClassification, cls.Tier)
}

// correct asks the advisor for a typo fix and decides whether to trust it.
// The original text wins on any doubt: advisor errors, low confidence, an
// unparseable suggestion. Returns the command to execute and, when a
// substitution happened, the corrected text for the result.
func (s *tierStrategy) correct(ctx context.Context, command string, p platform.Platform) (final, corrected string) {
	if s.gate == nil {
		return command, ""
	}
	corr, err := s.gate.Correct(ctx, command, p)
	if err != nil {
		s.log.Debug("correction unavailable for %q: %v", command, err)
		return command, ""
	}
	if corr == nil {
		return command, ""
	}
	fixed := strings.TrimSpace(corr.Corrected)
	if fixed == "" || fixed == command {
		return command, ""
	}
	if corr.Confidence < consts.MinCorrectionConfidence {
		s.log.Debug("discarding correction %q (confidence %.2f)", fixed, corr.Confidence)
		return command, ""
	}
	if p == platform.Bash && s.vet != nil {
		res, err := s.vet.Validate(fixed, "bash")
		if err != nil || res == nil || !res.Valid {
			s.log.Debug("discarding correction %q: does not parse", fixed)
			return command, ""
		}
	}
	s.log.Info("auto-corrected %q to %q", command, fixed)
	return fixed, fixed
}

// confirmAndRun handles tier 2.5: correct, show the user what would run,
// and execute only on an affirmative answer. No answer means no execution,
// whatever the reason.
func (s *tierStrategy) confirmAndRun(ctx context.Context, c *Context, command string, t tier.Tier) *CommandResult {
	final, corrected := s.correct(ctx, command, c.Platform)
	if c.Session == nil {
		return rejected(s.Name(), t, "%v: tier %s requires confirmation and there is no session", ErrConfirmationDeclined, t)
	}

	prompt := fmt.Sprintf("execute %q on %s?", final, c.Platform)
	if corrected != "" {
		prompt = fmt.Sprintf("execute %q (corrected from %q) on %s?", final, command, c.Platform)
	}
	ok, err := c.Session.Confirm(ctx, prompt)
	if err != nil {
		return rejected(s.Name(), t, "%v: %v", ErrConfirmationDeclined, err)
	}
	if !ok {
		return rejected(s.Name(), t, "%v: %q was not executed", ErrConfirmationDeclined, final)
	}

	res := s.exec.run(ctx, c, final, s.Name(), t)
	res.AICorrected = corrected
	return res
}

// validateAndRun handles tier 3. The advisor has to say safe out loud; an
// error, a timeout or a missing gate all refuse. There is no fail-open
// path here.
func (s *tierStrategy) validateAndRun(ctx context.Context, c *Context, command string, t tier.Tier) *CommandResult {
	if s.gate == nil {
		return rejected(s.Name(), t, "validation unavailable: no advisor configured")
	}
	verdict, err := s.gate.Validate(ctx, command, c.Platform, t)
	if err != nil {
		return rejected(s.Name(), t, "validation unavailable: %v", err)
	}
	if verdict == nil {
		return rejected(s.Name(), t, "validation unavailable: advisor returned no verdict")
	}
	if !verdict.Safe {
		res := rejected(s.Name(), t, "%s", refusalText(verdict))
		res.AIValidation = verdict
		return res
	}

	if len(verdict.Warnings) > 0 {
		s.log.Warn("advisor warnings for %q: %s", command, strings.Join(verdict.Warnings, "; "))
	}
	res := s.exec.run(ctx, c, command, s.Name(), t)
	res.AIValidation = verdict
	return res
}

func refusalText(v *advisor.Verdict) string {
	var b strings.Builder
	b.WriteString("rejected by validation")
	if v.Reason != "" {
		b.WriteString(": ")
		b.WriteString(v.Reason)
	}
	for _, w := range v.Warnings {
		b.WriteString("\nwarning: ")
		b.WriteString(w)
	}
	if v.Suggestion != "" {
		b.WriteString("\nsuggestion: ")
		b.WriteString(v.Suggestion)
	}
	return b.String()
}
