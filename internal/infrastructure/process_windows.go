//go:build windows

package infrastructure

import (
	"errors"
	"os/exec"
	"syscall"
)

func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// suspendProcess is a no-op on Windows: a paused reader stops draining the
// output pipe, which stalls the engine once the pipe buffer fills
func suspendProcess(cmd *exec.Cmd) error {
	return nil
}

func resumeProcess(cmd *exec.Cmd) error {
	return nil
}

func terminateProcess(cmd *exec.Cmd) error {
	return killProcess(cmd)
}

func killProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return errors.New("process not started")
	}
	return cmd.Process.Kill()
}
