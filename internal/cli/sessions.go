package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"

	"github.com/vburojevic/ecw/internal/cdp"
)

// SessionsCmd lists the sessions a debugging endpoint currently exposes.
type SessionsCmd struct {
	Port int `short:"p" required:"" help:"Debugging port to query."`
}

// Run executes the sessions command.
func (c *SessionsCmd) Run(globals *Globals) error {
	cfg := globals.Config
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.Timeout)
	defer cancel()

	directory := cdp.NewDirectory(cfg.Debug.Host, c.Port, cfg.HTTP.Timeout)
	sessions, err := directory.List(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	if globals.JSON {
		return json.NewEncoder(globals.Stdout).Encode(sessions)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(globals.Stdout, "No sessions.")
		return nil
	}
	if !terminal(globals.Stdout) {
		for _, s := range sessions {
			fmt.Fprintf(globals.Stdout, "%s\t%s\t%s\n", s.ID, s.Type, s.URL)
		}
		return nil
	}

	table := tablewriter.NewWriter(globals.Stdout)
	table.Header("ID", "Type", "Title", "URL")
	for _, s := range sessions {
		if err := table.Append(s.ID, s.Type, s.Title, s.URL); err != nil {
			return err
		}
	}
	return table.Render()
}

func terminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
