//go:build !windows

package runtime

import "os/exec"

// killProcess terminates cmd's process directly, mirroring the original
// runtime's cancel_workflow: a single immediate kill, no process group, no
// signal escalation. It does not call cmd.Wait — the supervisor's own Wait
// goroutine owns that, and calling it twice races and can block forever.
func killProcess(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
