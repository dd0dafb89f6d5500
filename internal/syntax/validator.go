//go:build cgo

// Package syntax validates shell text with tree-sitter. The dispatcher uses
// it to reject auto-corrected commands that do not parse, so a bad model
// suggestion can never replace what the user typed.
package syntax

import (
	"fmt"
	"strings"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_bash "github.com/tree-sitter/tree-sitter-bash/bindings/go"
)

// Validator provides syntax validation for shell text using tree-sitter.
type Validator struct {
	languages map[string]unsafe.Pointer
}

// SyntaxError represents a single syntax error found during validation.
type SyntaxError struct {
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	Message   string `json:"message"`
	ErrorNode string `json:"error_node"` // Type of error node (e.g., "ERROR", "MISSING")
}

// ValidationResult contains the results of syntax validation.
type ValidationResult struct {
	Valid       bool          `json:"valid"`
	Errors      []SyntaxError `json:"errors,omitempty"`
	Language    string        `json:"language"`
	ParsedBytes int           `json:"parsed_bytes"`
}

// NewValidator creates a new syntax validator. Only the bash grammar ships;
// PowerShell text is vetted by the confidence threshold alone.
func NewValidator() *Validator {
	return &Validator{
		languages: map[string]unsafe.Pointer{
			"bash":  tree_sitter_bash.Language(),
			"sh":    tree_sitter_bash.Language(),
			"shell": tree_sitter_bash.Language(),
		},
	}
}

// Validate validates shell text using tree-sitter.
// Returns a ValidationResult with syntax errors, if any.
func (v *Validator) Validate(code string, language string) (*ValidationResult, error) {
	// Normalize language name
	language = strings.ToLower(strings.TrimSpace(language))

	// Handle empty or whitespace-only input
	if strings.TrimSpace(code) == "" {
		return &ValidationResult{
			Valid:       true,
			Errors:      nil,
			Language:    language,
			ParsedBytes: 0,
		}, nil
	}

	// Get the language grammar
	lang, ok := v.languages[language]
	if !ok {
		return nil, fmt.Errorf("language not supported for validation: %s (supported: %s)",
			language, strings.Join(SupportedValidationLanguages(), ", "))
	}

	// Create parser
	parser := tree_sitter.NewParser()
	defer parser.Close()

	// Set language
	if err := parser.SetLanguage(tree_sitter.NewLanguage(lang)); err != nil {
		return nil, fmt.Errorf("failed to set parser language: %w", err)
	}

	// Parse code
	sourceBytes := []byte(code)
	tree := parser.Parse(sourceBytes, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse code: parser returned nil tree")
	}
	defer tree.Close()

	// Get root node
	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("failed to get root node from parsed tree")
	}

	// Check if tree has errors
	if !root.HasError() {
		return &ValidationResult{
			Valid:       true,
			Errors:      nil,
			Language:    language,
			ParsedBytes: len(sourceBytes),
		}, nil
	}

	// Tree has errors - collect them
	errors := v.findErrorNodes(root, sourceBytes)

	return &ValidationResult{
		Valid:       len(errors) == 0,
		Errors:      errors,
		Language:    language,
		ParsedBytes: len(sourceBytes),
	}, nil
}

// SupportsLanguage checks if the validator supports a given language.
func (v *Validator) SupportsLanguage(language string) bool {
	language = strings.ToLower(strings.TrimSpace(language))
	_, ok := v.languages[language]
	return ok
}

// findErrorNodes recursively traverses the syntax tree to find all ERROR and MISSING nodes.
func (v *Validator) findErrorNodes(node *tree_sitter.Node, source []byte) []SyntaxError {
	var errors []SyntaxError

	if node == nil {
		return errors
	}

	var traverse func(*tree_sitter.Node)
	traverse = func(n *tree_sitter.Node) {
		if n == nil {
			return
		}

		nodeType := n.Kind()

		if nodeType == "ERROR" || strings.Contains(nodeType, "MISSING") || strings.Contains(nodeType, "ERROR") {
			// Tree-sitter uses 0-based rows and columns
			startPos := n.StartPosition()
			line := int(startPos.Row) + 1
			column := int(startPos.Column) + 1

			message := v.generateErrorMessage(n, source, nodeType)

			errors = append(errors, SyntaxError{
				Line:      line,
				Column:    column,
				Message:   message,
				ErrorNode: nodeType,
			})
		}

		childCount := n.ChildCount()
		for i := uint(0); i < childCount; i++ {
			child := n.Child(i)
			if child != nil {
				traverse(child)
			}
		}
	}

	traverse(node)

	// The tree can report an error without surfacing an ERROR node when
	// recovery swallowed it; report a general error in that case.
	if node.HasError() && len(errors) == 0 {
		rootPos := node.StartPosition()
		errors = append(errors, SyntaxError{
			Line:      int(rootPos.Row) + 1,
			Column:    int(rootPos.Column) + 1,
			Message:   "syntax error: parsing failed with error recovery",
			ErrorNode: "ERROR",
		})
	}

	return errors
}

// generateErrorMessage creates a human-readable error message for an error node.
func (v *Validator) generateErrorMessage(node *tree_sitter.Node, source []byte, nodeType string) string {
	startByte := node.StartByte()
	endByte := node.EndByte()

	var errorText string
	if startByte < endByte && endByte <= uint(len(source)) {
		errorText = string(source[startByte:endByte])
		if len(errorText) > 50 {
			errorText = errorText[:50] + "..."
		}
		errorText = strings.ReplaceAll(errorText, "\n", "\\n")
	}

	switch {
	case nodeType == "ERROR":
		if errorText != "" {
			return fmt.Sprintf("syntax error near '%s'", errorText)
		}
		return "syntax error"
	case strings.Contains(nodeType, "MISSING"):
		missing := strings.TrimPrefix(nodeType, "MISSING")
		missing = strings.Trim(missing, " _")
		if missing != "" {
			return fmt.Sprintf("missing %s", missing)
		}
		return "syntax error: missing token"
	default:
		return fmt.Sprintf("unexpected %s", nodeType)
	}
}
