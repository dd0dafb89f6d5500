//go:build windows

package shell

import "os/exec"

// Process groups are handled differently on Windows. The command
// configuration is left untouched.
func configureProcessGroup(cmd *exec.Cmd) {
	_ = cmd
}

// killProcessTree kills the direct process. Children spawned by the shell
// are reaped by the OS when the console session ends.
func killProcessTree(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
