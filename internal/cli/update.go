package cli

import (
	"encoding/json"
	"fmt"
)

// UpdateCmd shows how to upgrade ecw.
type UpdateCmd struct{}

type updateInfo struct {
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	Homebrew    string `json:"homebrew"`
	GoInstall   string `json:"go_install"`
	ReleasesURL string `json:"releases_url"`
}

const (
	homebrewCmd  = "brew update && brew upgrade ecw"
	goInstallCmd = "go install github.com/vburojevic/ecw/cmd/ecw@latest"
	releasesURL  = "https://github.com/vburojevic/ecw/releases"
)

// Run executes the update command.
func (c *UpdateCmd) Run(globals *Globals) error {
	if globals.JSON {
		return json.NewEncoder(globals.Stdout).Encode(updateInfo{
			Version:     Version,
			Commit:      Commit,
			Homebrew:    homebrewCmd,
			GoInstall:   goInstallCmd,
			ReleasesURL: releasesURL,
		})
	}

	fmt.Fprintln(globals.Stdout, "ecw update instructions")
	fmt.Fprintln(globals.Stdout)
	fmt.Fprintf(globals.Stdout, "Current version: %s (%s)\n", Version, Commit)
	fmt.Fprintln(globals.Stdout)
	fmt.Fprintln(globals.Stdout, "To upgrade via Homebrew:")
	fmt.Fprintf(globals.Stdout, "  %s\n", homebrewCmd)
	fmt.Fprintln(globals.Stdout)
	fmt.Fprintln(globals.Stdout, "To upgrade via Go:")
	fmt.Fprintf(globals.Stdout, "  %s\n", goInstallCmd)
	fmt.Fprintln(globals.Stdout)
	fmt.Fprintln(globals.Stdout, "For release notes, see:")
	fmt.Fprintf(globals.Stdout, "  %s\n", releasesURL)

	return nil
}
