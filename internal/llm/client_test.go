package llm

import (
	"testing"
)

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"user", "user"},
		{"USER", "user"},
		{"assistant", "assistant"},
		{"Assistant", "assistant"},
		{"model", "assistant"},
		{"system", "system"},
		{"", "user"},
		{"tool", "user"},
	}

	for _, tt := range tests {
		if got := normalizeRole(tt.in); got != tt.want {
			t.Errorf("normalizeRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewClientUnknownProvider(t *testing.T) {
	if _, err := NewClient("frobnicator", "key", "model", ""); err == nil {
		t.Error("unknown provider should error")
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	for _, provider := range []string{"anthropic", "openai", "google"} {
		if _, err := NewClient(provider, "  ", "model", ""); err == nil {
			t.Errorf("%s client should require an API key", provider)
		}
	}
}

func TestNewClientModelDefaults(t *testing.T) {
	client, err := NewAnthropicClient("test-key", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.GetModelName() == "" {
		t.Error("client should fall back to a default model name")
	}

	named, err := NewAnthropicClient("test-key", "claude-sonnet-4-20250514")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if named.GetModelName() != "claude-sonnet-4-20250514" {
		t.Errorf("expected explicit model name, got %s", named.GetModelName())
	}
}

func TestConvertMessagesToAnthropic(t *testing.T) {
	system, chat := convertMessagesToAnthropic("be terse", []*Message{
		{Role: "system", Content: "extra system"},
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
		nil,
		{Role: "user", Content: "   "},
	})

	if len(system) != 2 {
		t.Errorf("expected 2 system blocks, got %d", len(system))
	}
	if len(chat) != 2 {
		t.Errorf("expected 2 chat messages, got %d", len(chat))
	}
}

func TestConvertMessagesToOpenAI(t *testing.T) {
	converted := convertMessagesToOpenAI("sys", []*Message{
		{Role: "user", Content: "hello"},
		nil,
		{Role: "assistant", Content: "hi"},
	})
	if len(converted) != 3 {
		t.Errorf("expected system + 2 chat messages, got %d", len(converted))
	}
}

func TestConvertMessagesToGenAI(t *testing.T) {
	contents := convertMessagesToGenAI([]*Message{
		{Role: "user", Content: "hello"},
		{Role: "model", Content: "hi"},
		{Role: "", Content: ""},
	})
	if len(contents) != 2 {
		t.Errorf("expected 2 contents, got %d", len(contents))
	}
}
