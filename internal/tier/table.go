package tier

import (
	"sort"
	"strings"

	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
)

type ruleKey struct {
	command  string
	platform platform.Platform
}

// Table is an immutable tier snapshot. It is built once, shared by
// value of its pointer, and never mutated: updates build a new Table.
type Table struct {
	base      map[ruleKey]Tier
	overrides map[ruleKey]Tier
}

// NewTable builds a snapshot from base rules and overrides. Within each
// partition a later rule for the same (command, platform) key wins.
func NewTable(base, overrides []Rule) (*Table, error) {
	t := &Table{
		base:      make(map[ruleKey]Tier, len(base)),
		overrides: make(map[ruleKey]Tier, len(overrides)),
	}
	for _, r := range base {
		r, err := r.normalize()
		if err != nil {
			return nil, err
		}
		t.base[ruleKey{r.Command, r.Platform}] = r.Tier
	}
	for _, r := range overrides {
		r, err := r.normalize()
		if err != nil {
			return nil, err
		}
		t.overrides[ruleKey{r.Command, r.Platform}] = r.Tier
	}
	return t, nil
}

// Lookup resolves a canonical command name on a platform. Precedence:
// platform override > any-platform override > platform base rule >
// any-platform base rule. Absent entries resolve to Tier 3, never
// Tier 1.
func (t *Table) Lookup(command string, p platform.Platform) Tier {
	command = strings.ToLower(command)
	if command == "" {
		return Tier3
	}

	if tier, ok := t.overrides[ruleKey{command, p}]; ok {
		return tier
	}
	if tier, ok := t.overrides[ruleKey{command, platform.Any}]; ok {
		return tier
	}
	if tier, ok := t.base[ruleKey{command, p}]; ok {
		return tier
	}
	if tier, ok := t.base[ruleKey{command, platform.Any}]; ok {
		return tier
	}
	return Tier3
}

// WithOverride returns a new snapshot with one override added or
// replaced. The receiver is unchanged.
func (t *Table) WithOverride(rule Rule) (*Table, error) {
	rule, err := rule.normalize()
	if err != nil {
		return nil, err
	}
	clone := t.clone()
	clone.overrides[ruleKey{rule.Command, rule.Platform}] = rule.Tier
	return clone, nil
}

// WithoutOverride returns a new snapshot with one override removed.
func (t *Table) WithoutOverride(command string, p platform.Platform) *Table {
	if p == "" {
		p = platform.Any
	}
	clone := t.clone()
	delete(clone.overrides, ruleKey{strings.ToLower(strings.TrimSpace(command)), p})
	return clone
}

func (t *Table) clone() *Table {
	clone := &Table{
		base:      make(map[ruleKey]Tier, len(t.base)),
		overrides: make(map[ruleKey]Tier, len(t.overrides)),
	}
	for k, v := range t.base {
		clone.base[k] = v
	}
	for k, v := range t.overrides {
		clone.overrides[k] = v
	}
	return clone
}

// Len returns the number of base rules and overrides.
func (t *Table) Len() (int, int) {
	return len(t.base), len(t.overrides)
}

// Rules returns all entries sorted for display, overrides flagged.
func (t *Table) Rules() []DisplayRule {
	out := make([]DisplayRule, 0, len(t.base)+len(t.overrides))
	for k, v := range t.base {
		out = append(out, DisplayRule{Rule: Rule{Command: k.command, Platform: k.platform, Tier: v}})
	}
	for k, v := range t.overrides {
		out = append(out, DisplayRule{Rule: Rule{Command: k.command, Platform: k.platform, Tier: v}, Override: true})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Command != out[j].Command {
			return out[i].Command < out[j].Command
		}
		if out[i].Platform != out[j].Platform {
			return out[i].Platform < out[j].Platform
		}
		return !out[i].Override
	})
	return out
}

// DisplayRule is a rule with its partition, for the tiers meta-command.
type DisplayRule struct {
	Rule
	Override bool
}
