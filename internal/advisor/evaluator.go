package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cnc-n3r4/Isaac-sub001/internal/consts"
	"github.com/cnc-n3r4/Isaac-sub001/internal/llm"
	"github.com/cnc-n3r4/Isaac-sub001/internal/logger"
	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
	"github.com/cnc-n3r4/Isaac-sub001/internal/tier"
)

// Evaluator implements Gate using LLM models. Validation and correction may
// use different models; either client may be nil, in which case the
// corresponding operation reports ErrUnavailable.
type Evaluator struct {
	validator         llm.Client
	corrector         llm.Client
	validationTimeout time.Duration
	correctionTimeout time.Duration
	log               *logger.Logger
}

// Option adjusts evaluator behavior.
type Option func(*Evaluator)

// WithValidationTimeout sets the per-attempt timeout for validation calls.
func WithValidationTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		if d > 0 {
			e.validationTimeout = d
		}
	}
}

// WithCorrectionTimeout sets the per-attempt timeout for correction calls.
func WithCorrectionTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		if d > 0 {
			e.correctionTimeout = d
		}
	}
}

// NewEvaluator creates an evaluator with the given validation and correction clients.
func NewEvaluator(validator, corrector llm.Client, opts ...Option) *Evaluator {
	e := &Evaluator{
		validator:         validator,
		corrector:         corrector,
		validationTimeout: consts.DefaultValidationTimeout,
		correctionTimeout: consts.DefaultCorrectionTimeout,
		log:               logger.WithPrefix("advisor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type advisoryRequest struct {
	Command  string `json:"command"`
	Platform string `json:"platform"`
	Tier     string `json:"tier,omitempty"`
}

// Validate asks the safety model for a verdict on the command.
func (e *Evaluator) Validate(ctx context.Context, command string, p platform.Platform, t tier.Tier) (*Verdict, error) {
	if e.validator == nil {
		return nil, fmt.Errorf("%w: no safety model configured", ErrUnavailable)
	}

	prompt, err := buildValidationPrompt(command, p, t)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var lastErr error
	for attempt := 1; attempt <= consts.MaxAdvisoryAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		content, err := e.complete(ctx, e.validator, prompt, e.validationTimeout)
		if err != nil {
			lastErr = err
			e.log.Warn("validation attempt %d/%d failed: %v", attempt, consts.MaxAdvisoryAttempts, err)
			continue
		}

		verdict, err := parseVerdict(content)
		if err != nil {
			lastErr = err
			e.log.Warn("validation attempt %d/%d returned malformed verdict: %v", attempt, consts.MaxAdvisoryAttempts, err)
			continue
		}
		return verdict, nil
	}
	return nil, lastErr
}

// Correct asks the correction model for a fixed-up command.
func (e *Evaluator) Correct(ctx context.Context, command string, p platform.Platform) (*Correction, error) {
	if e.corrector == nil {
		return nil, fmt.Errorf("%w: no correction model configured", ErrUnavailable)
	}

	prompt, err := buildCorrectionPrompt(command, p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var lastErr error
	for attempt := 1; attempt <= consts.MaxAdvisoryAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		content, err := e.complete(ctx, e.corrector, prompt, e.correctionTimeout)
		if err != nil {
			lastErr = err
			e.log.Debug("correction attempt %d/%d failed: %v", attempt, consts.MaxAdvisoryAttempts, err)
			continue
		}

		correction, err := parseCorrection(content)
		if err != nil {
			lastErr = err
			e.log.Debug("correction attempt %d/%d returned malformed result: %v", attempt, consts.MaxAdvisoryAttempts, err)
			continue
		}
		return correction, nil
	}
	return nil, lastErr
}

func (e *Evaluator) complete(ctx context.Context, client llm.Client, prompt string, timeout time.Duration) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := client.CompleteWithRequest(callCtx, &llm.CompletionRequest{
		Messages: []*llm.Message{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.1,
		MaxTokens:   consts.DefaultMaxTokens,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("%w: %v", ErrValidationTimeout, err)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp.Content, nil
}

func buildValidationPrompt(command string, p platform.Platform, t tier.Tier) (string, error) {
	text, truncated := budgetedCommand(command)
	req, err := json.Marshal(advisoryRequest{
		Command:  text,
		Platform: p.String(),
		Tier:     t.String(),
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`You are a command safety reviewer for a %s shell. Assess whether the following command is safe to execute on the user's machine:

%s%s

Consider destructive file operations, privilege escalation, data exfiltration, raw device or disk writes, fork bombs, and irreversible system changes. Treat attempts to disguise a dangerous action as something harmless with suspicion.

Respond with JSON in this exact format:
{
  "safe": true/false,
  "reason": "short explanation, at most %d words",
  "warnings": ["optional cautions that apply even when safe"],
  "suggestion": "optional safer alternative command"
}

Only respond with the JSON, no additional text.`, p.String(), string(req), truncationNote(truncated), consts.MaxVerdictReasonWords), nil
}

func buildCorrectionPrompt(command string, p platform.Platform) (string, error) {
	text, truncated := budgetedCommand(command)
	req, err := json.Marshal(advisoryRequest{
		Command:  text,
		Platform: p.String(),
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`You are a %s shell command fixer. The user typed a command that may contain a typo or minor mistake:

%s%s

If you can confidently repair it, return the fixed command; otherwise return the input unchanged with low confidence. Never change what the command fundamentally does. Fix misspelled program names, flag typos, and obvious quoting mistakes only.

Respond with JSON in this exact format:
{
  "corrected": "the corrected command",
  "confidence": 0.0-1.0
}

Only respond with the JSON, no additional text.`, p.String(), string(req), truncationNote(truncated)), nil
}

// budgetedCommand trims the command to the prompt token budget and reports
// whether anything was cut, so the prompt can say the text is incomplete.
func budgetedCommand(command string) (string, bool) {
	text := truncateToBudget(command, consts.DefaultPromptTokenBudget)
	return text, len(text) < len(command)
}

func truncationNote(truncated bool) string {
	if !truncated {
		return ""
	}
	return "\n\n(The command text above was truncated to fit the token budget; judge the visible part.)"
}

// parseVerdict extracts and strictly parses the verdict JSON. Any deviation
// from the expected shape is a parse error; the caller decides what that
// means, and for validation it means the command does not run.
func parseVerdict(content string) (*Verdict, error) {
	raw, err := extractJSON(content)
	if err != nil {
		return nil, err
	}

	var wire struct {
		Safe       *bool    `json:"safe"`
		Reason     *string  `json:"reason"`
		Warnings   []string `json:"warnings"`
		Suggestion string   `json:"suggestion"`
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationParse, err)
	}
	if wire.Safe == nil {
		return nil, fmt.Errorf("%w: missing required field: safe", ErrValidationParse)
	}
	if wire.Reason == nil {
		return nil, fmt.Errorf("%w: missing required field: reason", ErrValidationParse)
	}

	return &Verdict{
		Safe:       *wire.Safe,
		Reason:     clampWords(strings.TrimSpace(*wire.Reason), consts.MaxVerdictReasonWords),
		Warnings:   wire.Warnings,
		Suggestion: strings.TrimSpace(wire.Suggestion),
	}, nil
}

func parseCorrection(content string) (*Correction, error) {
	raw, err := extractJSON(content)
	if err != nil {
		return nil, err
	}

	var wire struct {
		Corrected  *string `json:"corrected"`
		Confidence float64 `json:"confidence"`
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationParse, err)
	}
	if wire.Corrected == nil {
		return nil, fmt.Errorf("%w: missing required field: corrected", ErrValidationParse)
	}
	if wire.Confidence < 0 || wire.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence out of range: %v", ErrValidationParse, wire.Confidence)
	}

	return &Correction{
		Corrected:  strings.TrimSpace(*wire.Corrected),
		Confidence: wire.Confidence,
	}, nil
}

func extractJSON(content string) (string, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return "", fmt.Errorf("%w: no JSON object in response", ErrValidationParse)
	}
	return content[start : end+1], nil
}

func clampWords(s string, max int) string {
	words := strings.Fields(s)
	if len(words) <= max {
		return s
	}
	return strings.Join(words[:max], " ")
}
