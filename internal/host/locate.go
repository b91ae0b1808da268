package host

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"howett.net/plist"
)

// executableFromCommand extracts the executable path from a shell open
// command: the quoted first argument, or the first bare token when the
// command is unquoted.
func executableFromCommand(command string) string {
	command = strings.TrimSpace(command)
	if command == "" {
		return ""
	}
	if command[0] == '"' {
		if end := strings.IndexByte(command[1:], '"'); end >= 0 {
			return command[1 : 1+end]
		}
		return ""
	}
	if i := strings.IndexAny(command, " \t"); i >= 0 {
		return command[:i]
	}
	return command
}

// bundleExecutable resolves the executable inside a macOS application
// bundle from the CFBundleExecutable entry of its Info.plist.
func bundleExecutable(bundle string) (string, error) {
	f, err := os.Open(filepath.Join(bundle, "Contents", "Info.plist"))
	if err != nil {
		return "", fmt.Errorf("open bundle manifest: %w", err)
	}
	defer f.Close()

	var manifest struct {
		CFBundleExecutable string `plist:"CFBundleExecutable"`
	}
	if err := plist.NewDecoder(f).Decode(&manifest); err != nil {
		return "", fmt.Errorf("decode bundle manifest: %w", err)
	}
	if manifest.CFBundleExecutable == "" {
		return "", fmt.Errorf("bundle %s declares no executable", bundle)
	}
	return filepath.Join(bundle, "Contents", "MacOS", manifest.CFBundleExecutable), nil
}
