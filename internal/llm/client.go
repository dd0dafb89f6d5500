// Package llm provides thin clients over the official Anthropic, OpenAI and
// Google GenAI SDKs. The dispatcher only ever needs single-shot completions,
// so the interface stays deliberately small.
package llm

import (
	"context"
	"strings"
)

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest represents a completion request
type CompletionRequest struct {
	Messages     []*Message `json:"messages"`
	SystemPrompt string     `json:"system_prompt,omitempty"`
	Temperature  float64    `json:"temperature"`
	MaxTokens    int        `json:"max_tokens,omitempty"`
}

// CompletionResponse represents a completion response
type CompletionResponse struct {
	Content    string `json:"content"`
	StopReason string `json:"stop_reason"`
}

// Client is the interface for LLM clients
type Client interface {
	// CompleteWithRequest sends a completion request and returns the response
	CompleteWithRequest(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
	// Complete is a simplified version for a single prompt
	Complete(ctx context.Context, prompt string) (string, error)
	// GetModelName returns the model name
	GetModelName() string
}

func normalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "assistant", "model":
		return "assistant"
	case "system":
		return "system"
	default:
		return "user"
	}
}
