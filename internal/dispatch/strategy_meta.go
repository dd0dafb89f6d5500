package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cnc-n3r4/Isaac-sub001/internal/alias"
	"github.com/cnc-n3r4/Isaac-sub001/internal/audit"
	"github.com/cnc-n3r4/Isaac-sub001/internal/config"
	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
	"github.com/cnc-n3r4/Isaac-sub001/internal/tier"
)

const metaUsage = `meta commands:
  config show                         print the active configuration
  tiers show                          print the tier table
  tiers set <command> <tier> [platform]   persist a tier override
  tiers unset <command> [platform]    remove a tier override
  aliases                             print cross-shell alias mappings
  history [n]                         print the last n audit entries`

// metaStrategy answers the dispatcher's own vocabulary: config, tiers,
// aliases and history. Nothing here spawns a shell. Tier overrides are
// persisted before the in-memory table is swapped, so a crash between the
// two steps can never leave the file behind the running classifier.
type metaStrategy struct {
	cfg        *config.Config
	classifier *tier.Classifier
	source     *tier.Source
	journal    *audit.Log
}

func newMetaStrategy(cfg *config.Config, classifier *tier.Classifier, source *tier.Source, journal *audit.Log) *metaStrategy {
	return &metaStrategy{cfg: cfg, classifier: classifier, source: source, journal: journal}
}

func (s *metaStrategy) Name() string { return "config" }

func (s *metaStrategy) Matches(c *Context) bool {
	switch c.firstToken() {
	case "config", "tiers", "aliases", "history":
		return true
	}
	return false
}

func (s *metaStrategy) Execute(_ context.Context, c *Context) *CommandResult {
	args := strings.Fields(c.rest())
	switch c.firstToken() {
	case "config":
		return s.showConfig(args)
	case "tiers":
		return s.tiers(args)
	case "aliases":
		return s.aliases()
	case "history":
		return s.history(args, c)
	}
	return rejected(s.Name(), tier.None, "unknown meta command")
}

func (s *metaStrategy) showConfig(args []string) *CommandResult {
	if len(args) > 0 && strings.ToLower(args[0]) != "show" {
		return rejected(s.Name(), tier.None, "unknown config subcommand %q\n%s", args[0], metaUsage)
	}
	if s.cfg == nil {
		return rejected(s.Name(), tier.None, "no configuration loaded")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "working_dir:         %s\n", s.cfg.WorkingDir)
	fmt.Fprintf(&b, "log_level:           %s\n", s.cfg.LogLevel)
	fmt.Fprintf(&b, "tier_rules:          %s\n", orDefault(s.cfg.TierRulesPath, "builtin defaults"))
	fmt.Fprintf(&b, "audit_db:            %s\n", orDefault(s.cfg.AuditDBPath, "disabled"))
	fmt.Fprintf(&b, "shell_timeout:       %ds\n", s.cfg.ShellTimeout)
	fmt.Fprintf(&b, "validation_timeout:  %ds\n", s.cfg.ValidationTimeout)
	fmt.Fprintf(&b, "history_limit:       %d\n", s.cfg.HistoryLimit)
	fmt.Fprintf(&b, "sandbox:             %s\n", map[bool]string{true: "enabled", false: "disabled"}[s.cfg.Sandbox.Enabled])
	if len(s.cfg.Devices) > 0 {
		fmt.Fprintf(&b, "devices:\n")
		for name, dev := range s.cfg.Devices {
			fmt.Fprintf(&b, "  @%-16s %-12s %s\n", name, dev.Platform, dev.Description)
		}
	}
	return infoResult(s.Name(), strings.TrimRight(b.String(), "\n"))
}

func (s *metaStrategy) tiers(args []string) *CommandResult {
	if s.classifier == nil {
		return rejected(s.Name(), tier.None, "no tier classifier configured")
	}
	sub := "show"
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
		args = args[1:]
	}
	switch sub {
	case "show":
		return s.showTiers()
	case "set":
		return s.setTier(args)
	case "unset":
		return s.unsetTier(args)
	}
	return rejected(s.Name(), tier.None, "unknown tiers subcommand %q\n%s", sub, metaUsage)
}

func (s *metaStrategy) showTiers() *CommandResult {
	rules := s.classifier.Table().Rules()
	var b strings.Builder
	fmt.Fprintf(&b, "%-24s %-12s %-6s\n", "COMMAND", "PLATFORM", "TIER")
	for _, r := range rules {
		mark := ""
		if r.Override {
			mark = "  (override)"
		}
		fmt.Fprintf(&b, "%-24s %-12s %-6s%s\n", r.Command, r.Platform, r.Tier, mark)
	}
	return infoResult(s.Name(), strings.TrimRight(b.String(), "\n"))
}

func (s *metaStrategy) setTier(args []string) *CommandResult {
	if len(args) < 2 || len(args) > 3 {
		return rejected(s.Name(), tier.None, "usage: tiers set <command> <tier> [platform]")
	}
	t, err := tier.Parse(args[1])
	if err != nil {
		return rejected(s.Name(), tier.None, "invalid tier %q: %v", args[1], err)
	}
	p := platform.Any
	if len(args) == 3 {
		parsed, err := platform.Parse(args[2])
		if err != nil {
			return rejected(s.Name(), tier.None, "invalid platform %q: %v", args[2], err)
		}
		p = parsed
	}

	rule := tier.Rule{Command: strings.ToLower(args[0]), Platform: p, Tier: t}
	persisted := false
	if s.source != nil {
		if err := s.source.SaveOverride(rule); err != nil {
			return rejected(s.Name(), tier.None, "saving tier override: %v", err)
		}
		persisted = true
	}
	if err := s.classifier.ApplyOverride(rule); err != nil {
		return rejected(s.Name(), tier.None, "applying tier override: %v", err)
	}

	out := fmt.Sprintf("tier override set: %s -> %s (%s)", rule.Command, rule.Tier, rule.Platform)
	if !persisted {
		out += "\nwarning: no rules file configured, the override is lost on restart"
	}
	return infoResult(s.Name(), out)
}

func (s *metaStrategy) unsetTier(args []string) *CommandResult {
	if len(args) < 1 || len(args) > 2 {
		return rejected(s.Name(), tier.None, "usage: tiers unset <command> [platform]")
	}
	command := strings.ToLower(args[0])
	p := platform.Any
	if len(args) == 2 {
		parsed, err := platform.Parse(args[1])
		if err != nil {
			return rejected(s.Name(), tier.None, "invalid platform %q: %v", args[1], err)
		}
		p = parsed
	}

	if s.source != nil {
		if err := s.source.RemoveOverride(command, p); err != nil {
			return rejected(s.Name(), tier.None, "removing tier override: %v", err)
		}
	}
	s.classifier.RemoveOverride(command, p)
	return infoResult(s.Name(), fmt.Sprintf("tier override removed: %s (%s)", command, p))
}

func (s *metaStrategy) aliases() *CommandResult {
	pairs := alias.Table()
	var b strings.Builder
	fmt.Fprintf(&b, "%-18s %-22s %s\n", "ALIAS", "CANONICAL", "PLATFORM")
	for _, pair := range pairs {
		fmt.Fprintf(&b, "%-18s %-22s %s\n", pair.Alias, pair.Canonical, pair.Platform)
	}
	return infoResult(s.Name(), strings.TrimRight(b.String(), "\n"))
}

func (s *metaStrategy) history(args []string, c *Context) *CommandResult {
	if s.journal == nil {
		return rejected(s.Name(), tier.None, "history unavailable: no audit journal")
	}
	n := 0
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed < 1 {
			return rejected(s.Name(), tier.None, "usage: history [n]")
		}
		n = parsed
	}
	if s.cfg != nil && n == 0 {
		n = s.cfg.HistoryLimit
	}

	var (
		records []audit.Record
		err     error
	)
	if c.Session != nil {
		records, err = s.journal.SessionTail(c.Session.ID, n)
	} else {
		records, err = s.journal.Tail(n)
	}
	if err != nil {
		return rejected(s.Name(), tier.None, "reading history: %v", err)
	}
	if len(records) == 0 {
		return infoResult(s.Name(), "history is empty")
	}

	var b strings.Builder
	for _, rec := range records {
		status := "ok"
		if !rec.Success {
			status = fmt.Sprintf("fail(%d)", rec.ExitCode)
		}
		fmt.Fprintf(&b, "%s  %-8s tier=%-4s %-16s %s\n",
			rec.CreatedAt.Format(time.RFC3339), status, rec.Tier, rec.Strategy, rec.Input)
	}
	return infoResult(s.Name(), strings.TrimRight(b.String(), "\n"))
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
