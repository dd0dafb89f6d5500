package dispatch

import (
	"context"
	"os"

	"github.com/cnc-n3r4/Isaac-sub001/internal/alias"
	"github.com/cnc-n3r4/Isaac-sub001/internal/tier"
)

// cdStrategy changes the session working directory without spawning a
// shell. A spawned "cd" would change only the child's directory and be lost
// on exit, so the dispatcher owns this one verb itself. Set-Location and
// its powershell aliases land here through the canonical name.
type cdStrategy struct{}

func newCdStrategy() *cdStrategy { return &cdStrategy{} }

func (s *cdStrategy) Name() string { return "cd" }

func (s *cdStrategy) Matches(c *Context) bool {
	return alias.Canonical(c.firstToken(), c.Platform) == "cd"
}

func (s *cdStrategy) Execute(_ context.Context, c *Context) *CommandResult {
	if c.Session == nil {
		return rejected(s.Name(), tier.None, "cd needs a session")
	}

	target := unquote(c.rest())
	if target == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return rejected(s.Name(), tier.None, "resolving home directory: %v", err)
		}
		target = home
	}

	if err := c.Session.SetWorkingDir(target); err != nil {
		return rejected(s.Name(), tier.None, "cd: %v", err)
	}
	return infoResult(s.Name(), c.Session.WorkingDir())
}

// unquote strips one level of matching quotes so "cd 'My Projects'" works.
func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
