package dispatch

import (
	"strings"

	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
	"github.com/cnc-n3r4/Isaac-sub001/internal/session"
)

// Context carries one input line through the router. Strategies treat it as
// read-only; re-entry (pipes, device routing) builds a child context instead
// of mutating the parent.
type Context struct {
	// RawInput is the line as the user typed it, before any strategy
	// stripped its prefix.
	RawInput string

	// Platform selects the shell the command is classified and executed
	// for.
	Platform platform.Platform

	// Force marks the invocation as a deliberate gate bypass, the flag
	// form of a "!" prefix.
	Force bool

	// DeviceTarget routes the command to a named device without the "@"
	// prefix. Consumed by the device strategy.
	DeviceTarget string

	// Session supplies working directory, confirmation and the execution
	// lock. May be nil for fire-and-forget invocations.
	Session *session.Session

	// Stdin is piped input from the previous pipe segment.
	Stdin string

	// Depth counts router re-entries. Zero for a top-level invocation.
	Depth int
}

// child derives a re-entry context for the given input, one level deeper.
func (c *Context) child(raw, stdin string) *Context {
	next := *c
	next.RawInput = raw
	next.Stdin = stdin
	next.Depth = c.Depth + 1
	return &next
}

// childFor derives a re-entry context targeting another platform. The device
// name is consumed so the child cannot route again on the same flag.
func (c *Context) childFor(raw string, p platform.Platform) *Context {
	next := c.child(raw, c.Stdin)
	next.Platform = p
	next.DeviceTarget = ""
	return next
}

// firstToken returns the first whitespace-separated word of the input,
// lowercased, or "" for blank input.
func (c *Context) firstToken() string {
	fields := strings.Fields(c.RawInput)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// rest returns the input with its first token removed.
func (c *Context) rest() string {
	trimmed := strings.TrimSpace(c.RawInput)
	i := strings.IndexFunc(trimmed, func(r rune) bool { return r == ' ' || r == '\t' })
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(trimmed[i:])
}

func (c *Context) workingDir() string {
	if c.Session == nil {
		return ""
	}
	return c.Session.WorkingDir()
}
