// Package advisor runs LLM-backed review of shell commands: a validation
// gate for risky tiers and a correction pass for typo-prone ones. Validation
// never fails open; any failure surfaces as an error the dispatcher turns
// into a rejection.
package advisor

import (
	"context"
	"errors"

	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
	"github.com/cnc-n3r4/Isaac-sub001/internal/tier"
)

// Verdict is the structured outcome of a safety validation.
type Verdict struct {
	Safe       bool     `json:"safe"`
	Reason     string   `json:"reason"`
	Warnings   []string `json:"warnings,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Correction is the outcome of an auto-correction pass.
type Correction struct {
	Corrected  string  `json:"corrected"`
	Confidence float64 `json:"confidence"`
}

// Gate reviews commands before execution.
type Gate interface {
	// Validate asks whether the command is safe to run. Errors mean the
	// answer could not be obtained, not that the command is safe.
	Validate(ctx context.Context, command string, p platform.Platform, t tier.Tier) (*Verdict, error)
	// Correct proposes a fixed-up version of the command. Errors mean the
	// original command should be used unchanged.
	Correct(ctx context.Context, command string, p platform.Platform) (*Correction, error)
}

var (
	// ErrValidationTimeout is returned when the model does not answer in time.
	ErrValidationTimeout = errors.New("validation timed out")
	// ErrValidationParse is returned when the model response deviates from the expected JSON.
	ErrValidationParse = errors.New("validation response malformed")
	// ErrUnavailable is returned when no model is configured or the transport fails.
	ErrUnavailable = errors.New("advisor unavailable")
)

func (v *Verdict) clone() *Verdict {
	if v == nil {
		return nil
	}
	out := *v
	if v.Warnings != nil {
		out.Warnings = append([]string(nil), v.Warnings...)
	}
	return &out
}
