package tier

import (
	"fmt"
	"strconv"
	"strings"
)

// Tier is the safety classification of a command, ordered strictly by
// caution. Values are scaled by ten so tier 2.5 stays representable and
// ordering is plain integer comparison.
type Tier int

const (
	// None marks a result that never went through tier classification.
	None Tier = 0
	// Tier1 commands execute instantly, unmodified.
	Tier1 Tier = 10
	// Tier2 commands are auto-corrected before execution.
	Tier2 Tier = 20
	// Tier25 commands are auto-corrected and require confirmation.
	Tier25 Tier = 25
	// Tier3 commands require an external safety verdict. This is also
	// the fail-safe default for anything unknown.
	Tier3 Tier = 30
	// Tier4 commands are locked down and never execute.
	Tier4 Tier = 40
)

// String renders the user-facing tier number.
func (t Tier) String() string {
	switch t {
	case None:
		return "none"
	case Tier1:
		return "1"
	case Tier2:
		return "2"
	case Tier25:
		return "2.5"
	case Tier3:
		return "3"
	case Tier4:
		return "4"
	default:
		return fmt.Sprintf("invalid(%d)", int(t))
	}
}

// Valid reports whether t is one of the five defined tiers.
func (t Tier) Valid() bool {
	switch t {
	case Tier1, Tier2, Tier25, Tier3, Tier4:
		return true
	}
	return false
}

// Parse reads a tier from its user-facing form ("1", "2.5", "4").
func Parse(s string) (Tier, error) {
	switch strings.TrimSpace(s) {
	case "1":
		return Tier1, nil
	case "2":
		return Tier2, nil
	case "2.5":
		return Tier25, nil
	case "3":
		return Tier3, nil
	case "4":
		return Tier4, nil
	default:
		return None, fmt.Errorf("invalid tier %q (expected 1, 2, 2.5, 3 or 4)", s)
	}
}

// MarshalJSON writes the tier as a JSON number (2.5 for Tier25).
func (t Tier) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid tier %d", int(t))
	}
	if t == Tier25 {
		return []byte("2.5"), nil
	}
	return []byte(strconv.Itoa(int(t) / 10)), nil
}

// UnmarshalJSON accepts both number and string forms: 2.5, "2.5", 3, "3".
func (t *Tier) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}

	parsed, err := Parse(raw)
	if err != nil {
		// Accept float spellings like 1.0 or 2.50.
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return err
		}
		parsed = Tier(int(f * 10))
		if !parsed.Valid() {
			return err
		}
	}

	*t = parsed
	return nil
}
