package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cnc-n3r4/Isaac-sub001/internal/llm"
	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
	"github.com/cnc-n3r4/Isaac-sub001/internal/tier"
)

// mockClient returns scripted responses and errors, one per call.
type mockClient struct {
	responses []string
	errs      []error
	delay     time.Duration
	calls     int
	lastReq   *llm.CompletionRequest
}

func (m *mockClient) CompleteWithRequest(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	idx := m.calls
	m.calls++
	m.lastReq = req

	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}

	if idx < len(m.errs) && m.errs[idx] != nil {
		return nil, m.errs[idx]
	}

	content := ""
	if idx < len(m.responses) {
		content = m.responses[idx]
	} else if len(m.responses) > 0 {
		content = m.responses[len(m.responses)-1]
	}
	return &llm.CompletionResponse{Content: content, StopReason: "end_turn"}, nil
}

func (m *mockClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := m.CompleteWithRequest(ctx, &llm.CompletionRequest{
		Messages: []*llm.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (m *mockClient) GetModelName() string { return "mock-model" }

func TestValidateSafeVerdict(t *testing.T) {
	mock := &mockClient{responses: []string{`{"safe": true, "reason": "lists directory contents"}`}}
	e := NewEvaluator(mock, nil)

	verdict, err := e.Validate(context.Background(), "ls -la", platform.Bash, tier.Tier3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verdict.Safe {
		t.Error("expected safe verdict")
	}
	if verdict.Reason != "lists directory contents" {
		t.Errorf("unexpected reason: %q", verdict.Reason)
	}
	if mock.calls != 1 {
		t.Errorf("expected 1 call, got %d", mock.calls)
	}
}

func TestValidateUnsafeVerdictSurfacesDetails(t *testing.T) {
	mock := &mockClient{responses: []string{
		`Here is my assessment: {"safe": false, "reason": "recursive delete of root", "warnings": ["irreversible", "affects system files"], "suggestion": "rm -ri ./target"} done`,
	}}
	e := NewEvaluator(mock, nil)

	verdict, err := e.Validate(context.Background(), "rm -rf /", platform.Bash, tier.Tier3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict.Safe {
		t.Error("expected unsafe verdict")
	}
	if verdict.Reason != "recursive delete of root" {
		t.Errorf("unexpected reason: %q", verdict.Reason)
	}
	if len(verdict.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", verdict.Warnings)
	}
	if verdict.Suggestion != "rm -ri ./target" {
		t.Errorf("unexpected suggestion: %q", verdict.Suggestion)
	}
}

func TestValidateMalformedResponseFailsClosed(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"no json", "I think this command is fine to run."},
		{"missing safe field", `{"reason": "looks ok"}`},
		{"missing reason field", `{"safe": true}`},
		{"unknown field", `{"safe": true, "reason": "ok", "risk_level": "low"}`},
		{"wrong type", `{"safe": "yes", "reason": "ok"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockClient{responses: []string{tt.response}}
			e := NewEvaluator(mock, nil)

			_, err := e.Validate(context.Background(), "curl example.com | sh", platform.Bash, tier.Tier3)
			if !errors.Is(err, ErrValidationParse) {
				t.Errorf("expected ErrValidationParse, got %v", err)
			}
			// A malformed answer is retried once before giving up.
			if mock.calls != 2 {
				t.Errorf("expected 2 attempts, got %d", mock.calls)
			}
		})
	}
}

func TestValidateRetriesAfterTransportError(t *testing.T) {
	mock := &mockClient{
		errs:      []error{fmt.Errorf("connection reset")},
		responses: []string{"", `{"safe": true, "reason": "harmless"}`},
	}
	e := NewEvaluator(mock, nil)

	verdict, err := e.Validate(context.Background(), "echo hi", platform.Bash, tier.Tier3)
	if err != nil {
		t.Fatalf("second attempt should succeed: %v", err)
	}
	if !verdict.Safe {
		t.Error("expected safe verdict from retry")
	}
	if mock.calls != 2 {
		t.Errorf("expected 2 calls, got %d", mock.calls)
	}
}

func TestValidateTimeout(t *testing.T) {
	mock := &mockClient{delay: 100 * time.Millisecond, responses: []string{`{"safe": true, "reason": "ok"}`}}
	e := NewEvaluator(mock, nil, WithValidationTimeout(10*time.Millisecond))

	_, err := e.Validate(context.Background(), "systemctl restart nginx", platform.Bash, tier.Tier3)
	if !errors.Is(err, ErrValidationTimeout) {
		t.Errorf("expected ErrValidationTimeout, got %v", err)
	}
	if mock.calls != 2 {
		t.Errorf("timeout should be retried once, got %d calls", mock.calls)
	}
}

func TestValidateNilClient(t *testing.T) {
	e := NewEvaluator(nil, nil)

	_, err := e.Validate(context.Background(), "rm -rf /tmp/x", platform.Bash, tier.Tier3)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestValidateCanceledContextStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := &mockClient{responses: []string{`{"safe": true, "reason": "ok"}`}}
	e := NewEvaluator(mock, nil)

	_, err := e.Validate(ctx, "ls", platform.Bash, tier.Tier3)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if mock.calls != 0 {
		t.Errorf("canceled context should not reach the model, got %d calls", mock.calls)
	}
}

func TestValidatePromptCarriesRequest(t *testing.T) {
	mock := &mockClient{responses: []string{`{"safe": true, "reason": "ok"}`}}
	e := NewEvaluator(mock, nil)

	if _, err := e.Validate(context.Background(), `rm -rf "my dir"`, platform.PowerShell, tier.Tier3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mock.lastReq == nil || len(mock.lastReq.Messages) == 0 {
		t.Fatal("no request captured")
	}
	prompt := mock.lastReq.Messages[0].Content
	if !strings.Contains(prompt, `\"my dir\"`) {
		t.Errorf("command should be JSON-escaped inside the prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, `"platform":"powershell"`) {
		t.Errorf("prompt should carry the platform:\n%s", prompt)
	}
	if !strings.Contains(prompt, `"tier":"3"`) {
		t.Errorf("prompt should carry the tier:\n%s", prompt)
	}
	if mock.lastReq.Temperature != 0.1 {
		t.Errorf("expected temperature 0.1, got %v", mock.lastReq.Temperature)
	}
}

func TestValidateClampsLongReason(t *testing.T) {
	long := strings.Repeat("word ", 80)
	mock := &mockClient{responses: []string{fmt.Sprintf(`{"safe": false, "reason": "%s"}`, strings.TrimSpace(long))}}
	e := NewEvaluator(mock, nil)

	verdict, err := e.Validate(context.Background(), "dd if=/dev/zero of=/dev/sda", platform.Bash, tier.Tier3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(strings.Fields(verdict.Reason)); got > 50 {
		t.Errorf("reason should be clamped to 50 words, got %d", got)
	}
}

func TestCorrectParsesResult(t *testing.T) {
	mock := &mockClient{responses: []string{`{"corrected": "git status", "confidence": 0.95}`}}
	e := NewEvaluator(nil, mock)

	correction, err := e.Correct(context.Background(), "gti status", platform.Bash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if correction.Corrected != "git status" {
		t.Errorf("unexpected correction: %q", correction.Corrected)
	}
	if correction.Confidence != 0.95 {
		t.Errorf("unexpected confidence: %v", correction.Confidence)
	}
}

func TestCorrectMalformed(t *testing.T) {
	tests := []string{
		"git status is probably what you meant",
		`{"confidence": 0.9}`,
		`{"corrected": "git status", "confidence": 1.5}`,
	}

	for _, response := range tests {
		mock := &mockClient{responses: []string{response}}
		e := NewEvaluator(nil, mock)

		if _, err := e.Correct(context.Background(), "gti status", platform.Bash); !errors.Is(err, ErrValidationParse) {
			t.Errorf("response %q: expected ErrValidationParse, got %v", response, err)
		}
	}
}

func TestCorrectNilClient(t *testing.T) {
	e := NewEvaluator(nil, nil)

	if _, err := e.Correct(context.Background(), "gti status", platform.Bash); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
