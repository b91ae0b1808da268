//go:build windows

package host

import (
	"fmt"

	"golang.org/x/sys/windows/registry"
)

// Locate resolves the host executable from the URL scheme handler the
// application registers at install time.
func Locate(scheme, _ string) (string, error) {
	key, err := registry.OpenKey(registry.CLASSES_ROOT, scheme+`\shell\open\command`, registry.QUERY_VALUE)
	if err != nil {
		return "", fmt.Errorf("open scheme handler %s: %w", scheme, err)
	}
	defer key.Close()

	command, _, err := key.GetStringValue("")
	if err != nil {
		return "", fmt.Errorf("read scheme handler %s: %w", scheme, err)
	}
	path := executableFromCommand(command)
	if path == "" {
		return "", fmt.Errorf("scheme handler %s has no executable: %q", scheme, command)
	}
	return path, nil
}
