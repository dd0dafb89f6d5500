package llm

import (
	"fmt"
	"strings"
)

// NewClient builds a client for the named provider. The base URL is only
// honored by OpenAI-compatible providers.
func NewClient(provider, apiKey, modelName, baseURL string) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "anthropic":
		return NewAnthropicClient(apiKey, modelName)
	case "openai":
		return NewOpenAIClient(apiKey, modelName, baseURL)
	case "google", "gemini":
		return NewGoogleAIClient(apiKey, modelName)
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", provider)
	}
}
