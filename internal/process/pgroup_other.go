//go:build !unix

package process

import "os/exec"

// Process groups are unix-only; elsewhere termination targets the process
// itself and graceful and forceful stops are the same operation.
func setProcessGroup(cmd *exec.Cmd) {}

func terminateProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

func killProcess(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
