//go:build !windows

package fetch

import "os/exec"

func shellCommand(command string) *exec.Cmd {
	return exec.Command("sh", "-c", command)
}
