package secrets

import (
	"errors"
	"strings"
	"testing"
)

func TestEncryptDecryptRoundtrip(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"api key", "sk-ant-api03-abcdef123456"},
		{"short", "x"},
		{"unicode", "pässwörd-日本語"},
		{"whitespace", "  value with spaces  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encrypted, err := EncryptString(tt.value, "correct-horse")
			if err != nil {
				t.Fatalf("encrypt: %v", err)
			}
			if !strings.HasPrefix(encrypted, SecretPrefix) {
				t.Errorf("encrypted value missing prefix: %q", encrypted)
			}
			if strings.Contains(encrypted, tt.value) {
				t.Error("encrypted value leaks plaintext")
			}

			decrypted, wasEncrypted, err := DecryptString(encrypted, "correct-horse")
			if err != nil {
				t.Fatalf("decrypt: %v", err)
			}
			if !wasEncrypted {
				t.Error("expected wasEncrypted to be true")
			}
			if decrypted != tt.value {
				t.Errorf("expected %q, got %q", tt.value, decrypted)
			}
		})
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	encrypted, err := EncryptString("secret-value", "right-password")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	_, wasEncrypted, err := DecryptString(encrypted, "wrong-password")
	if !wasEncrypted {
		t.Error("expected wasEncrypted to be true")
	}
	if !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestDecryptPlainValuePassthrough(t *testing.T) {
	value, wasEncrypted, err := DecryptString("plain-api-key", "any-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wasEncrypted {
		t.Error("plain value should not report as encrypted")
	}
	if value != "plain-api-key" {
		t.Errorf("plain value should pass through, got %q", value)
	}
}

func TestDecryptEmptyValue(t *testing.T) {
	value, wasEncrypted, err := DecryptString("", "password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wasEncrypted || value != "" {
		t.Errorf("empty value should pass through, got %q (encrypted=%v)", value, wasEncrypted)
	}
}

func TestEncryptEmptyValue(t *testing.T) {
	encrypted, err := EncryptString("", "password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if encrypted != "" {
		t.Errorf("empty value should stay empty, got %q", encrypted)
	}
}

func TestDecryptMalformedPayload(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"bad base64", SecretPrefix + "not-valid-base64!!!"},
		{"bad json", SecretPrefix + "bm90IGpzb24="},
		{"empty payload", SecretPrefix + "e30="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, wasEncrypted, err := DecryptString(tt.value, "password")
			if !wasEncrypted {
				t.Error("prefixed value should report as encrypted")
			}
			if !errors.Is(err, ErrInvalidPayload) {
				t.Errorf("expected ErrInvalidPayload, got %v", err)
			}
		})
	}
}

func TestDecryptBytesNilPayload(t *testing.T) {
	_, err := DecryptBytes(nil, "password")
	if !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestEncryptProducesUniquePayloads(t *testing.T) {
	a, err := EncryptString("same-value", "password")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	b, err := EncryptString("same-value", "password")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if a == b {
		t.Error("two encryptions of the same value should differ (random salt and nonce)")
	}
}
