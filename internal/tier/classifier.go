package tier

import (
	"strings"
	"sync/atomic"

	"github.com/cnc-n3r4/Isaac-sub001/internal/alias"
	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
)

// Classifier maps raw input to a safety tier against the current table
// snapshot. Classification itself is pure: the only state is which
// snapshot is installed, and that is swapped atomically as a whole.
type Classifier struct {
	table atomic.Pointer[Table]
}

// Classification is the outcome of classifying one input line.
type Classification struct {
	// Tier is the safety tier the command resolved to.
	Tier Tier
	// Name is the canonical command name used for the lookup, empty
	// for blank input.
	Name string
}

// NewClassifier creates a classifier over an initial snapshot.
func NewClassifier(table *Table) *Classifier {
	c := &Classifier{}
	c.table.Store(table)
	return c
}

// Classify resolves the tier for one input line on one platform. The
// command name is the first whitespace-delimited token, lowercased and
// alias-canonicalized; arguments never affect the result. Blank input
// resolves to Tier 3.
func (c *Classifier) Classify(input string, p platform.Platform) Classification {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return Classification{Tier: Tier3}
	}

	name := alias.Canonical(fields[0], p)
	if name == "" {
		return Classification{Tier: Tier3}
	}

	return Classification{
		Tier: c.table.Load().Lookup(name, p),
		Name: name,
	}
}

// Table returns the installed snapshot.
func (c *Classifier) Table() *Table {
	return c.table.Load()
}

// SetTable atomically installs a new snapshot. There is no partial
// visibility: every classification sees either the old table or the
// new one.
func (c *Classifier) SetTable(table *Table) {
	if table == nil {
		return
	}
	c.table.Store(table)
}

// ApplyOverride builds a new snapshot with the override applied and
// installs it atomically.
func (c *Classifier) ApplyOverride(rule Rule) error {
	next, err := c.table.Load().WithOverride(rule)
	if err != nil {
		return err
	}
	c.table.Store(next)
	return nil
}

// RemoveOverride builds a new snapshot without the override and
// installs it atomically.
func (c *Classifier) RemoveOverride(command string, p platform.Platform) {
	c.table.Store(c.table.Load().WithoutOverride(command, p))
}
