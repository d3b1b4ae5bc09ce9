//go:build windows

package runtime

import "os/exec"

// killProcess terminates cmd's process directly, mirroring the original
// runtime's cancel_workflow: a single immediate kill, no escalation.
func killProcess(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
