package consts

import "time"

// Buffer sizes for process output capture
const (
	// BufferSize4KB is 4 kilobytes
	BufferSize4KB = 4 * 1024
	// BufferSize64KB is 64 kilobytes
	BufferSize64KB = 64 * 1024
	// BufferSize1MB is 1 megabyte, the cap for a single captured output stream
	BufferSize1MB = 1024 * 1024
)

// Timeouts for various operations
const (
	// Timeout1Second is a 1 second timeout
	Timeout1Second = 1 * time.Second
	// Timeout5Seconds is a 5 second timeout
	Timeout5Seconds = 5 * time.Second
	// Timeout10Seconds is a 10 second timeout
	Timeout10Seconds = 10 * time.Second
	// Timeout30Seconds is a 30 second timeout
	Timeout30Seconds = 30 * time.Second
)

// DefaultShellTimeout bounds a single command execution before the
// process group is killed.
const DefaultShellTimeout = Timeout30Seconds

// Advisory service defaults
const (
	// DefaultMaxTokens is the maximum tokens requested for advisory responses
	DefaultMaxTokens = 512
	// DefaultValidationTimeout bounds one validation attempt
	DefaultValidationTimeout = Timeout10Seconds
	// DefaultCorrectionTimeout bounds one correction attempt
	DefaultCorrectionTimeout = Timeout5Seconds
	// MaxAdvisoryAttempts is the total attempts per advisory call (one retry)
	MaxAdvisoryAttempts = 2
	// MinCorrectionConfidence is the threshold below which a suggested
	// correction is discarded in favor of the original command
	MinCorrectionConfidence = 0.8
	// DefaultPromptTokenBudget caps the command text embedded in an
	// advisory prompt
	DefaultPromptTokenBudget = 2048
	// MaxVerdictReasonWords caps the reason text surfaced from a verdict
	MaxVerdictReasonWords = 50
)

// Dispatch limits
const (
	// MaxPipeSegments bounds how many pipe segments one input may expand to
	MaxPipeSegments = 16
	// MaxRouteDepth bounds recursive re-entry into the router
	MaxRouteDepth = 8
)

// Verdict cache defaults
const (
	// DefaultVerdictCacheTTL is how long a cached advisory result is served
	DefaultVerdictCacheTTL = 10 * time.Minute
	// DefaultVerdictCacheSize caps the number of cached advisory results
	DefaultVerdictCacheSize = 512
)

// DefaultHistoryLimit is the number of audit rows shown by the history
// meta-command when no count is given.
const DefaultHistoryLimit = 20
