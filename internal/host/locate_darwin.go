//go:build darwin

package host

// Locate resolves the host executable inside the configured application
// bundle.
func Locate(_, bundle string) (string, error) {
	return bundleExecutable(bundle)
}
