package alias

import (
	"sort"
	"strings"

	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
)

// The tables below keep tier classification consistent across shells:
// every spelling of the same operation resolves to one canonical name,
// so a rule written once applies to "rm", "del" and "Remove-Item" alike.

// sharedAliases apply on every platform.
var sharedAliases = map[string]string{
	"dir": "ls",
}

// powershellAliases cover cmdlets and the built-in aliases PowerShell
// ships that shadow unix names. Keys are lowercase.
var powershellAliases = map[string]string{
	"get-childitem":     "ls",
	"gci":               "ls",
	"get-location":      "pwd",
	"gl":                "pwd",
	"set-location":      "cd",
	"sl":                "cd",
	"chdir":             "cd",
	"get-content":       "cat",
	"gc":                "cat",
	"type":              "cat",
	"copy-item":         "cp",
	"copy":              "cp",
	"cpi":               "cp",
	"move-item":         "mv",
	"move":              "mv",
	"mi":                "mv",
	"remove-item":       "rm",
	"del":               "rm",
	"erase":             "rm",
	"rd":                "rmdir",
	"ri":                "rm",
	"new-item":          "touch",
	"ni":                "touch",
	"md":                "mkdir",
	"get-process":       "ps",
	"gps":               "ps",
	"stop-process":      "kill",
	"spps":              "kill",
	"write-output":      "echo",
	"write-host":        "echo",
	"select-string":     "grep",
	"sls":               "grep",
	"get-help":          "man",
	"invoke-webrequest": "curl",
	"iwr":               "curl",
	"wget":              "curl",
	"invoke-restmethod": "curl",
	"irm":               "curl",
	"get-date":          "date",
	"clear-host":        "clear",
	"cls":               "clear",
	"get-command":       "which",
	"gcm":               "which",
	"start-process":     "start",
	"saps":              "start",
	"restart-computer":  "reboot",
	"stop-computer":     "shutdown",
	"format-volume":     "mkfs",
	"clear-disk":        "dd",
}

// nativePowerShell maps canonical names back to the cmdlet spelling used
// when a command is handed to a PowerShell target. Arguments are never
// rewritten; anything absent here passes through unchanged.
var nativePowerShell = map[string]string{
	"ls":       "Get-ChildItem",
	"pwd":      "Get-Location",
	"cat":      "Get-Content",
	"cp":       "Copy-Item",
	"mv":       "Move-Item",
	"rm":       "Remove-Item",
	"touch":    "New-Item",
	"ps":       "Get-Process",
	"kill":     "Stop-Process",
	"echo":     "Write-Output",
	"grep":     "Select-String",
	"curl":     "Invoke-WebRequest",
	"man":      "Get-Help",
	"date":     "Get-Date",
	"which":    "Get-Command",
	"clear":    "Clear-Host",
	"reboot":   "Restart-Computer",
	"shutdown": "Stop-Computer",
}

// Canonical resolves a command token to its canonical name for tier
// lookup on the given platform. Unknown names are returned lowercased.
func Canonical(name string, p platform.Platform) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	if lowered == "" {
		return ""
	}
	if p == platform.PowerShell {
		if canonical, ok := powershellAliases[lowered]; ok {
			return canonical
		}
	}
	if canonical, ok := sharedAliases[lowered]; ok {
		return canonical
	}
	return lowered
}

// Native rewrites the first token of command into the target platform's
// native spelling. Arguments are left untouched; on bash the canonical
// names already are the native ones.
func Native(command string, target platform.Platform) string {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" || target != platform.PowerShell {
		return command
	}

	name := trimmed
	rest := ""
	if idx := strings.IndexAny(trimmed, " \t"); idx >= 0 {
		name = trimmed[:idx]
		rest = trimmed[idx:]
	}

	canonical := Canonical(name, target)
	native, ok := nativePowerShell[canonical]
	if !ok {
		return command
	}
	return native + rest
}

// Pair is one canonical-name mapping, for display.
type Pair struct {
	Alias     string
	Canonical string
	Platform  platform.Platform
}

// Table returns the full alias table sorted by alias name.
func Table() []Pair {
	pairs := make([]Pair, 0, len(sharedAliases)+len(powershellAliases))
	for a, c := range sharedAliases {
		pairs = append(pairs, Pair{Alias: a, Canonical: c, Platform: platform.Any})
	}
	for a, c := range powershellAliases {
		pairs = append(pairs, Pair{Alias: a, Canonical: c, Platform: platform.PowerShell})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Alias == pairs[j].Alias {
			return pairs[i].Platform < pairs[j].Platform
		}
		return pairs[i].Alias < pairs[j].Alias
	})
	return pairs
}
