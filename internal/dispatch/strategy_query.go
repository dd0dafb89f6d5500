package dispatch

import (
	"context"
	"strings"

	"github.com/cnc-n3r4/Isaac-sub001/internal/tier"
)

// queryStrategy hands "?", "task:" and "agent:" inputs to the configured
// QueryHandler. The router never treats these as commands, so they bypass
// classification entirely and nothing is spawned here.
type queryStrategy struct {
	handler QueryHandler
}

func newQueryStrategy(handler QueryHandler) *queryStrategy {
	return &queryStrategy{handler: handler}
}

func (s *queryStrategy) Name() string { return QueryNaturalLanguage }

func (s *queryStrategy) Matches(c *Context) bool {
	kind, _ := splitQuery(c.RawInput)
	return kind != ""
}

func (s *queryStrategy) Execute(ctx context.Context, c *Context) *CommandResult {
	kind, query := splitQuery(c.RawInput)
	if query == "" {
		return rejected(kind, tier.None, "%v: empty query", ErrClassification)
	}
	if s.handler == nil {
		return rejected(kind, tier.None,
			"no assistant is configured; run the command directly or set up a provider")
	}

	answer, err := s.handler.Handle(ctx, kind, query)
	if err != nil {
		return rejected(kind, tier.None, "query failed: %v", err)
	}
	return infoResult(kind, answer)
}

// splitQuery recognizes the query prefixes and returns the kind plus the
// stripped query text. kind is "" for plain command input.
func splitQuery(raw string) (kind, query string) {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(trimmed, "?"):
		return QueryNaturalLanguage, strings.TrimSpace(trimmed[1:])
	case strings.HasPrefix(lower, "task:"):
		return QueryTask, strings.TrimSpace(trimmed[len("task:"):])
	case strings.HasPrefix(lower, "agent:"):
		return QueryAgentic, strings.TrimSpace(trimmed[len("agent:"):])
	}
	return "", ""
}
