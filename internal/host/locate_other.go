//go:build !windows && !darwin

package host

import "errors"

// Locate has no lookup source here: scheme handlers live in the Windows
// registry and application bundles are a macOS notion. Pass the executable
// path explicitly instead.
func Locate(_, _ string) (string, error) {
	return "", errors.New("host executable lookup is not supported on this platform")
}
