package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform identifies the shell family a command line is written for.
type Platform string

const (
	// Bash covers POSIX-ish shells on Linux and macOS.
	Bash Platform = "bash"
	// PowerShell covers Windows PowerShell and pwsh.
	PowerShell Platform = "powershell"
	// Any is the wildcard used by tier rules that apply everywhere.
	// It is never a valid execution target.
	Any Platform = "any"
)

// String returns the canonical lowercase name.
func (p Platform) String() string {
	return string(p)
}

// Valid reports whether p is a concrete, executable platform.
func (p Platform) Valid() bool {
	return p == Bash || p == PowerShell
}

// Detect returns the native platform of the host.
func Detect() Platform {
	if runtime.GOOS == "windows" {
		return PowerShell
	}
	return Bash
}

// Parse normalizes a user-supplied platform name. An empty string or
// "auto" resolves to the host platform.
func Parse(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Detect(), nil
	case "bash", "sh", "shell", "unix", "linux", "darwin", "macos":
		return Bash, nil
	case "powershell", "pwsh", "ps", "windows":
		return PowerShell, nil
	case "any", "*":
		return Any, nil
	default:
		return "", fmt.Errorf("unknown platform %q", s)
	}
}
