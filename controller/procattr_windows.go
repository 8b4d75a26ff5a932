//go:build windows

package controller

import "os/exec"

func setProcGroupAttr(cmd *exec.Cmd) {}
