package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/vburojevic/ecw/internal/cdp"
	"github.com/vburojevic/ecw/internal/config"
	"github.com/vburojevic/ecw/internal/console"
	"github.com/vburojevic/ecw/internal/filter"
	"github.com/vburojevic/ecw/internal/host"
	"github.com/vburojevic/ecw/internal/inject"
	"github.com/vburojevic/ecw/internal/monitor"
	"github.com/vburojevic/ecw/internal/reconcile"
	"github.com/vburojevic/ecw/internal/wait"
)

// WatchCmd starts the application with a debugging endpoint and watches it
// until it exits: new viewer sessions get the payloads injected, and every
// session's console output is relayed into the log.
type WatchCmd struct {
	App     string `short:"a" help:"Host executable path, bypassing the platform lookup." type:"path"`
	Port    int    `short:"p" help:"Debugging port. 0 picks a free one."`
	Pattern string `short:"P" help:"Only relay console lines matching this regex."`
	Exclude string `short:"x" help:"Drop console lines matching this regex."`
}

// Run executes the watch command.
func (c *WatchCmd) Run(globals *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lines, err := filter.New(c.Pattern, c.Exclude)
	if err != nil {
		return err
	}

	cfg := globals.Config
	log := globals.Logger

	port := cfg.Debug.Port
	if c.Port > 0 {
		port = c.Port
	}
	if port == 0 {
		if port, err = host.FreePort(); err != nil {
			return err
		}
	}
	log.Info("debugging endpoint", zap.String("host", cfg.Debug.Host), zap.Int("port", port))

	// An instance started without the debugging port is useless to us, so
	// any running host gets terminated before the fresh launch.
	if host.Running(cfg.App.Image) {
		log.Info("host process already running, terminating it", zap.String("image", cfg.App.Image))
		if err := host.Terminate(cfg.App.Image); err != nil {
			return fmt.Errorf("terminate existing host process: %w", err)
		}
		gone := wait.Until(ctx, clock.New(), cfg.Wait.Attempts, cfg.Wait.Interval, func(context.Context) (bool, error) {
			return !host.Running(cfg.App.Image), nil
		})
		if !gone {
			return errors.New("existing host process did not terminate")
		}
	}

	path := c.App
	if path == "" {
		if path, err = host.Locate(cfg.App.Scheme, cfg.App.Bundle); err != nil {
			return fmt.Errorf("locate host executable: %w", err)
		}
	}
	log.Info("host executable", zap.String("path", path))

	proc, err := host.Launch(ctx, host.Options{
		Path:   path,
		Image:  cfg.App.Image,
		Port:   port,
		Logger: log,
	})
	if err != nil {
		return err
	}
	defer proc.Stop()

	started := wait.Until(ctx, clock.New(), cfg.Wait.Attempts, cfg.Wait.Interval, func(context.Context) (bool, error) {
		return host.Running(cfg.App.Image), nil
	})
	if !started {
		return errors.New("host process did not start")
	}
	log.Info("host process started", zap.String("image", cfg.App.Image))

	return watchSessions(ctx, globals, port, lines)
}

// watchSessions runs the session monitor and the reconciler against the
// debugging endpoint until the host process exits or ctx is cancelled.
func watchSessions(ctx context.Context, globals *Globals, port int, lines *filter.Lines) error {
	cfg := globals.Config
	log := globals.Logger

	client := cdp.NewClient(cfg.WS.Timeout, log)
	directory := cdp.NewDirectory(cfg.Debug.Host, port, cfg.HTTP.Timeout)
	collector := console.NewCollector(client, log)
	orchestrator := inject.NewOrchestrator(client, payloadFiles(cfg), inject.Options{
		PageSuffix: cfg.Inject.PageSuffix,
		Frames:     cfg.Inject.Frames,
		Attempts:   cfg.Wait.Attempts,
		Interval:   cfg.Wait.Interval,
		Logger:     log,
	})

	alive := func() bool { return host.Running(cfg.App.Image) }

	mon := monitor.New(directory, collector, monitor.Options{
		Interval: cfg.Poll.MonitorInterval,
		Alive:    alive,
		Filter:   lines,
		Logger:   log,
	})
	mon.Start(ctx)
	defer mon.Stop()

	rec := reconcile.New(directory, client, orchestrator, reconcile.Options{
		Interval: cfg.Poll.DirectoryInterval,
		Alive:    alive,
		Logger:   log,
	})
	if err := rec.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("interrupted")
			return nil
		}
		return err
	}
	return nil
}

func payloadFiles(cfg *config.Config) *inject.Files {
	return inject.NewFiles(cfg.Inject.Dir, cfg.Inject.Library, cfg.Inject.Main)
}
