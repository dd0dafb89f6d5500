package dispatch

import (
	"context"
	"strings"

	"github.com/cnc-n3r4/Isaac-sub001/internal/logger"
	"github.com/cnc-n3r4/Isaac-sub001/internal/tier"
)

// forceStrategy executes "!command" (or the force flag) without correction,
// confirmation or validation. The one gate it cannot bypass is tier 4: a
// lockdown command is refused even when forced.
type forceStrategy struct {
	classifier *tier.Classifier
	exec       *executor
	log        *logger.Logger
}

func newForceStrategy(classifier *tier.Classifier, exec *executor) *forceStrategy {
	return &forceStrategy{
		classifier: classifier,
		exec:       exec,
		log:        logger.WithPrefix("dispatch:force"),
	}
}

func (s *forceStrategy) Name() string { return "force_execution" }

func (s *forceStrategy) Matches(c *Context) bool {
	return c.Force || strings.HasPrefix(strings.TrimSpace(c.RawInput), "!")
}

func (s *forceStrategy) Execute(ctx context.Context, c *Context) *CommandResult {
	command := strings.TrimSpace(c.RawInput)
	command = strings.TrimSpace(strings.TrimPrefix(command, "!"))
	if command == "" {
		return rejected(s.Name(), tier.None, "%v: nothing to force", ErrClassification)
	}
	if s.classifier == nil {
		return rejected(s.Name(), tier.None, "no tier classifier configured")
	}

	cls := s.classifier.Classify(command, c.Platform)
	if cls.Tier == tier.Tier4 {
		return rejected(s.Name(), cls.Tier,
			"tier 4 lockdown: %q is never executed, force cannot bypass it", cls.Name)
	}

	s.log.Warn("force bypass: running %q on %s without tier %s safeguards",
		command, c.Platform, cls.Tier)
	return s.exec.run(ctx, c, command, s.Name(), cls.Tier)
}
