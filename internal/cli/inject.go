package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/vburojevic/ecw/internal/cdp"
	"github.com/vburojevic/ecw/internal/inject"
)

// InjectCmd runs one injection pass over the sessions a debugging endpoint
// currently exposes, without watching for new ones.
type InjectCmd struct {
	Port    int    `short:"p" required:"" help:"Debugging port to query."`
	Session string `short:"s" help:"Only inject into this session id."`
}

type injectResult struct {
	Session string `json:"session"`
	URL     string `json:"url"`
	Outcome string `json:"outcome"`
}

// Run executes the inject command.
func (c *InjectCmd) Run(globals *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := globals.Config
	client := cdp.NewClient(cfg.WS.Timeout, globals.Logger)
	directory := cdp.NewDirectory(cfg.Debug.Host, c.Port, cfg.HTTP.Timeout)
	orchestrator := inject.NewOrchestrator(client, payloadFiles(cfg), inject.Options{
		PageSuffix: cfg.Inject.PageSuffix,
		Frames:     cfg.Inject.Frames,
		Attempts:   cfg.Wait.Attempts,
		Interval:   cfg.Wait.Interval,
		Logger:     globals.Logger,
	})

	sessions, err := directory.List(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if c.Session != "" {
		i := slices.IndexFunc(sessions, func(s cdp.Session) bool { return s.ID == c.Session })
		if i < 0 {
			return fmt.Errorf("session %s not found", c.Session)
		}
		sessions = sessions[i : i+1]
	}
	if len(sessions) == 0 {
		fmt.Fprintln(globals.Stdout, "No sessions.")
		return nil
	}

	// Sessions are independent pages, so the passes run concurrently; the
	// limit keeps a window-heavy host from taking a connection storm.
	results := make([]injectResult, len(sessions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, s := range sessions {
		i, s := i, s // per-iteration copies: module targets go 1.21 (pre-1.22 loop semantics)
		g.Go(func() error {
			outcome := orchestrator.Inject(gctx, s.Address)
			results[i] = injectResult{Session: s.ID, URL: s.URL, Outcome: outcome.String()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if globals.JSON {
		if err := json.NewEncoder(globals.Stdout).Encode(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			fmt.Fprintf(globals.Stdout, "%s\t%s\t%s\n", r.Session, r.Outcome, r.URL)
		}
	}

	failed := 0
	for _, r := range results {
		if r.Outcome == inject.Failed.String() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("injection failed for %d of %d sessions", failed, len(sessions))
	}
	return nil
}
