package advisor

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

func tokenEncoding() *tiktoken.Tiktoken {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoding = enc
		}
	})
	return encoding
}

// CountTokens returns the token count for text under the cl100k_base
// encoding, falling back to a character heuristic when the encoding
// cannot be loaded.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}

	if enc := tokenEncoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}

	runes := utf8.RuneCountInString(text)
	if runes == 0 {
		return 0
	}

	// Rough heuristic: 1 token ~ 4 characters
	return (runes + 3) / 4
}

// truncateToBudget trims text so its token count stays within budget. Token
// counts grow with prefix length, so a binary search over rune prefixes finds
// the longest fitting cut.
func truncateToBudget(text string, budget int) string {
	if budget <= 0 || CountTokens(text) <= budget {
		return text
	}

	runes := []rune(text)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if CountTokens(string(runes[:mid])) <= budget {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return string(runes[:lo])
}
