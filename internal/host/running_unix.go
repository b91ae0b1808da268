//go:build !windows

package host

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Running reports whether a process with the given image name exists.
func Running(image string) bool {
	return exec.Command("pgrep", "-x", processName(image)).Run() == nil
}

// Terminate kills every process with the given image name.
func Terminate(image string) error {
	err := exec.Command("pkill", "-x", processName(image)).Run()
	var exit *exec.ExitError
	if errors.As(err, &exit) && exit.ExitCode() == 1 {
		// pkill exits 1 when nothing matched, which is the state we want.
		return nil
	}
	if err != nil {
		return fmt.Errorf("pkill %s: %w", image, err)
	}
	return nil
}

// processName strips the Windows-style .exe suffix so one configured image
// name works on every platform.
func processName(image string) string {
	return strings.TrimSuffix(image, ".exe")
}
