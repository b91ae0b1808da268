package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vburojevic/ecw/internal/filter"
	"github.com/vburojevic/ecw/internal/host"
)

// AttachCmd watches a host that is already running, provided it was started
// with its remote debugging port open.
type AttachCmd struct {
	Port    int    `short:"p" required:"" help:"Debugging port the host was started with."`
	Pattern string `short:"P" help:"Only relay console lines matching this regex."`
	Exclude string `short:"x" help:"Drop console lines matching this regex."`
}

// Run executes the attach command.
func (c *AttachCmd) Run(globals *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lines, err := filter.New(c.Pattern, c.Exclude)
	if err != nil {
		return err
	}

	if !host.Running(globals.Config.App.Image) {
		return fmt.Errorf("host process %s is not running", globals.Config.App.Image)
	}
	return watchSessions(ctx, globals, c.Port, lines)
}
