package tier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
)

// Rule binds one command name, on one platform or on any, to a tier.
// Command names are stored lowercase and matched against the canonical
// name of the input's first token.
type Rule struct {
	Command  string            `json:"command"`
	Platform platform.Platform `json:"platform,omitempty"`
	Tier     Tier              `json:"tier"`
}

func (r Rule) normalize() (Rule, error) {
	r.Command = strings.ToLower(strings.TrimSpace(r.Command))
	if r.Command == "" {
		return r, errors.New("rule is missing a command name")
	}
	if strings.ContainsAny(r.Command, " \t") {
		return r, fmt.Errorf("rule command %q must be a single token", r.Command)
	}
	if r.Platform == "" {
		r.Platform = platform.Any
	}
	if r.Platform != platform.Any && !r.Platform.Valid() {
		return r, fmt.Errorf("rule for %q has unknown platform %q", r.Command, r.Platform)
	}
	if !r.Tier.Valid() {
		return r, fmt.Errorf("rule for %q has invalid tier", r.Command)
	}
	return r, nil
}

// rulesFile is the on-disk JSON shape: a base section and an overrides
// section that wins over everything else.
type rulesFile struct {
	Rules     []Rule `json:"rules"`
	Overrides []Rule `json:"overrides"`
}

// Source loads and persists the tier rules file. A missing file is not
// an error: builtin defaults still apply. A present but unreadable or
// invalid file is an error, fatal at boot.
type Source struct {
	path string
}

// NewSource creates a rules source for the given path. An empty path
// means builtin defaults only.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// Path returns the rules file path, empty when defaults-only.
func (s *Source) Path() string {
	return s.path
}

// Load builds a fresh immutable table from the builtin defaults merged
// with the file's rules and overrides.
func (s *Source) Load() (*Table, error) {
	base := DefaultRules()

	var overrides []Rule
	if s.path != "" {
		data, err := os.ReadFile(s.path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Defaults only.
		case err != nil:
			return nil, fmt.Errorf("failed to read tier rules %s: %w", s.path, err)
		default:
			var file rulesFile
			if err := json.Unmarshal(data, &file); err != nil {
				return nil, fmt.Errorf("failed to parse tier rules %s: %w", s.path, err)
			}
			base = append(base, file.Rules...)
			overrides = file.Overrides
		}
	}

	table, err := NewTable(base, overrides)
	if err != nil {
		return nil, fmt.Errorf("invalid tier rules in %s: %w", s.path, err)
	}
	return table, nil
}

// SaveOverride appends or updates one override in the rules file,
// creating the file if needed. The base rules section is preserved.
func (s *Source) SaveOverride(rule Rule) error {
	if s.path == "" {
		return errors.New("no tier rules file configured")
	}

	rule, err := rule.normalize()
	if err != nil {
		return err
	}

	file, err := s.readFile()
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range file.Overrides {
		if strings.EqualFold(existing.Command, rule.Command) && existing.Platform == rule.Platform {
			file.Overrides[i] = rule
			replaced = true
			break
		}
	}
	if !replaced {
		file.Overrides = append(file.Overrides, rule)
	}

	return s.writeFile(file)
}

// RemoveOverride deletes one override from the rules file. Removing an
// override that does not exist is not an error.
func (s *Source) RemoveOverride(command string, p platform.Platform) error {
	if s.path == "" {
		return errors.New("no tier rules file configured")
	}
	if p == "" {
		p = platform.Any
	}
	command = strings.ToLower(strings.TrimSpace(command))

	file, err := s.readFile()
	if err != nil {
		return err
	}

	kept := file.Overrides[:0]
	for _, existing := range file.Overrides {
		if strings.EqualFold(existing.Command, command) && existing.Platform == p {
			continue
		}
		kept = append(kept, existing)
	}
	file.Overrides = kept

	return s.writeFile(file)
}

func (s *Source) readFile() (*rulesFile, error) {
	file := &rulesFile{}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return file, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tier rules %s: %w", s.path, err)
	}
	if err := json.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("failed to parse tier rules %s: %w", s.path, err)
	}
	return file, nil
}

func (s *Source) writeFile(file *rulesFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create tier rules directory: %w", err)
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tier rules: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write tier rules %s: %w", s.path, err)
	}
	return nil
}

// DefaultRules returns the builtin base rules. Commands are keyed by
// canonical name, so one entry covers every platform spelling.
func DefaultRules() []Rule {
	tiers := map[Tier][]string{
		Tier1: {
			"ls", "pwd", "echo", "whoami", "date", "cat", "head", "tail",
			"wc", "which", "hostname", "uname", "id", "env", "printenv",
			"df", "du", "free", "uptime", "ps", "man", "clear", "true",
			"false", "printf", "basename", "dirname", "file", "stat",
		},
		Tier2: {
			"git", "grep", "find", "awk", "sed", "sort", "uniq", "cut",
			"tr", "diff", "tar", "ping", "npm", "yarn", "pip", "pip3",
			"cargo", "go", "make", "python", "python3", "node", "jq",
		},
		Tier25: {
			"mkdir", "touch", "cp", "mv", "ln", "rmdir", "unzip", "zip",
		},
		Tier3: {
			"rm", "chmod", "chown", "chgrp", "curl", "wget", "ssh", "scp",
			"rsync", "kill", "pkill", "killall", "systemctl", "service",
			"apt", "apt-get", "yum", "dnf", "pacman", "brew", "docker",
			"mount", "umount", "crontab", "sudo", "su", "tee", "start",
		},
		Tier4: {
			"dd", "mkfs", "fdisk", "parted", "shutdown", "reboot", "halt",
			"poweroff", "init",
		},
	}

	var rules []Rule
	for t, names := range tiers {
		for _, name := range names {
			rules = append(rules, Rule{Command: name, Platform: platform.Any, Tier: t})
		}
	}

	// PowerShell-only names with no canonical unix equivalent.
	rules = append(rules,
		Rule{Command: "format", Platform: platform.PowerShell, Tier: Tier4},
		Rule{Command: "diskpart", Platform: platform.PowerShell, Tier: Tier4},
		Rule{Command: "set-executionpolicy", Platform: platform.PowerShell, Tier: Tier3},
	)

	return rules
}
