//go:build windows

package host

import (
	"fmt"
	"os/exec"
	"strings"
)

// Running reports whether a process with the given image name exists.
func Running(image string) bool {
	out, err := exec.Command("tasklist", "/NH", "/FI", "IMAGENAME eq "+image).Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), image)
}

// Terminate force-kills every process with the given image name together
// with its child process tree.
func Terminate(image string) error {
	if err := exec.Command("taskkill", "/F", "/T", "/IM", image).Run(); err != nil {
		return fmt.Errorf("taskkill %s: %w", image, err)
	}
	return nil
}
