package dispatch

import "context"

// Strategy handles one class of input. The router walks its strategies in a
// fixed order and hands the context to the first one that matches, so a
// strategy's Matches must be cheap and side-effect free.
type Strategy interface {
	// Name is the identifier recorded as CommandResult.StrategyUsed.
	Name() string

	// Matches reports whether this strategy claims the input.
	Matches(c *Context) bool

	// Execute resolves the invocation to exactly one result.
	Execute(ctx context.Context, c *Context) *CommandResult
}

// QueryHandler answers the non-command inputs: natural language questions,
// task requests and agentic requests. Implementations live outside the
// router; without one the query strategies refuse.
type QueryHandler interface {
	// Handle answers the query and returns the text to show the user.
	// kind is one of QueryNaturalLanguage, QueryTask or QueryAgentic.
	Handle(ctx context.Context, kind, query string) (string, error)
}

// Query kinds passed to a QueryHandler, also recorded as the strategy name.
const (
	QueryNaturalLanguage = "natural_language"
	QueryTask            = "task"
	QueryAgentic         = "agentic"
)
