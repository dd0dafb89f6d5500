// Package sandbox confines the dispatcher's filesystem reach using Linux
// Landlock (kernel 5.13+). Restrictions are applied to the dispatcher
// process before the first command runs and are inherited by every shell
// it spawns. On other systems, or when Landlock is unavailable, commands
// run unconfined and a warning is logged.
package sandbox

// AccessLevel is the kind of filesystem access granted to a path.
type AccessLevel int

const (
	// AccessReadOnly grants reading files and listing directories.
	AccessReadOnly AccessLevel = iota
	// AccessReadWrite additionally grants writes.
	AccessReadWrite
)

// PathPermission pairs a path with its granted access.
type PathPermission struct {
	Path   string
	Access AccessLevel
}
