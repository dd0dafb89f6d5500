//go:build cgo

package syntax

import (
	"strings"
	"testing"
)

func TestValidateAcceptsWellFormedBash(t *testing.T) {
	v := NewValidator()

	commands := []string{
		"ls -la",
		"grep -r 'pattern' . | sort | uniq -c",
		`echo "hello world"`,
		"for f in *.txt; do cat \"$f\"; done",
		"rm -rf ./build && make all",
		"find . -name '*.go' -exec wc -l {} +",
	}

	for _, cmd := range commands {
		result, err := v.Validate(cmd, "bash")
		if err != nil {
			t.Errorf("%q: unexpected error: %v", cmd, err)
			continue
		}
		if !result.Valid {
			t.Errorf("%q should be valid, got errors: %v", cmd, result.Errors)
		}
		if result.ParsedBytes != len(cmd) {
			t.Errorf("%q: parsed bytes %d, want %d", cmd, result.ParsedBytes, len(cmd))
		}
	}
}

func TestValidateRejectsBrokenBash(t *testing.T) {
	v := NewValidator()

	commands := []string{
		`echo "unclosed quote`,
		"(echo unbalanced",
		"for f in *.txt; do cat $f",
	}

	for _, cmd := range commands {
		result, err := v.Validate(cmd, "bash")
		if err != nil {
			t.Errorf("%q: unexpected error: %v", cmd, err)
			continue
		}
		if result.Valid {
			t.Errorf("%q should be invalid", cmd)
		}
		if len(result.Errors) == 0 {
			t.Errorf("%q: invalid result should carry at least one error", cmd)
		}
		for _, e := range result.Errors {
			if e.Line < 1 || e.Column < 1 {
				t.Errorf("%q: error positions should be 1-based, got %d:%d", cmd, e.Line, e.Column)
			}
		}
	}
}

func TestValidateEmptyInput(t *testing.T) {
	v := NewValidator()

	result, err := v.Validate("   \n  ", "bash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Valid {
		t.Error("whitespace-only input should be valid")
	}
	if result.ParsedBytes != 0 {
		t.Errorf("expected 0 parsed bytes, got %d", result.ParsedBytes)
	}
}

func TestValidateUnsupportedLanguage(t *testing.T) {
	v := NewValidator()

	_, err := v.Validate("Get-ChildItem", "powershell")
	if err == nil {
		t.Fatal("powershell has no grammar and should error")
	}
	if !strings.Contains(err.Error(), "not supported") {
		t.Errorf("error should mention unsupported language: %v", err)
	}
}

func TestSupportsLanguage(t *testing.T) {
	v := NewValidator()

	for _, lang := range []string{"bash", "sh", "shell", "Bash", " SH "} {
		if !v.SupportsLanguage(lang) {
			t.Errorf("%q should be supported", lang)
		}
	}
	for _, lang := range []string{"powershell", "python", "go", ""} {
		if v.SupportsLanguage(lang) {
			t.Errorf("%q should not be supported", lang)
		}
	}
}
