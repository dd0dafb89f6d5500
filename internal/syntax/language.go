package syntax

// SupportedValidationLanguages returns the language names accepted by Validate.
func SupportedValidationLanguages() []string {
	return []string{"bash", "sh", "shell"}
}

// IsValidationSupported reports whether the language has a grammar.
func IsValidationSupported(language string) bool {
	for _, l := range SupportedValidationLanguages() {
		if l == language {
			return true
		}
	}
	return false
}
