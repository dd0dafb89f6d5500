package llm

import (
	"context"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

const (
	defaultGoogleModel     = "gemini-2.0-flash"
	defaultGoogleMaxTokens = 1024
)

// GoogleGenAIClient implements the Client interface using the official Google GenAI SDK.
type GoogleGenAIClient struct {
	modelName string
	client    *genai.Client
}

// NewGoogleAIClient creates a Google GenAI client for the provided model.
func NewGoogleAIClient(apiKey, modelName string) (Client, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, fmt.Errorf("google genai client requires an API key")
	}

	model := strings.TrimSpace(modelName)
	if model == "" {
		model = defaultGoogleModel
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Google GenAI client: %w", err)
	}

	return &GoogleGenAIClient{
		modelName: model,
		client:    client,
	}, nil
}

func (c *GoogleGenAIClient) GetModelName() string {
	return c.modelName
}

func (c *GoogleGenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.CompleteWithRequest(ctx, &CompletionRequest{
		Messages: []*Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (c *GoogleGenAIClient) CompleteWithRequest(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("google genai completion request cannot be nil")
	}

	contents := convertMessagesToGenAI(req.Messages)
	if len(contents) == 0 {
		return nil, fmt.Errorf("google genai completion requires at least one message")
	}

	cfg := buildGenAIGenerationConfig(req)

	resp, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("google genai completion failed: %w", err)
	}

	return buildGenAICompletionResponse(resp), nil
}

func buildGenAIGenerationConfig(req *CompletionRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	if sys := strings.TrimSpace(req.SystemPrompt); sys != "" {
		cfg.SystemInstruction = genai.NewContentFromText(sys, genai.RoleUser)
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		cfg.Temperature = &temp
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultGoogleMaxTokens
	}
	cfg.MaxOutputTokens = int32(maxTokens)

	return cfg
}

func buildGenAICompletionResponse(resp *genai.GenerateContentResponse) *CompletionResponse {
	if resp == nil || len(resp.Candidates) == 0 {
		stop := ""
		if resp != nil && resp.PromptFeedback != nil {
			stop = string(resp.PromptFeedback.BlockReason)
		}
		return &CompletionResponse{StopReason: stop}
	}

	candidate := resp.Candidates[0]
	var sb strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}

	return &CompletionResponse{
		Content:    sb.String(),
		StopReason: string(candidate.FinishReason),
	}
}

func convertMessagesToGenAI(messages []*Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		if msg == nil || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		role := genai.Role(genai.RoleUser)
		if normalizeRole(msg.Role) == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return contents
}
