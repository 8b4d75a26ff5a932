//go:build !windows

package controller

import (
	"os/exec"
	"syscall"
)

// setProcGroupAttr puts the controller in its own process group, so that an interrupt aimed at
// the harness's terminal does not reach the controller before the harness has torn it down.
func setProcGroupAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}
