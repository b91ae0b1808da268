// Package cli wires the watcher together behind the ecw command tree.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/vburojevic/ecw/internal/config"
	"github.com/vburojevic/ecw/internal/logging"
)

// Version and Commit are stamped at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
)

// CLI is the top-level command tree.
type CLI struct {
	Config   string           `help:"Path to a configuration file." type:"path" placeholder:"PATH"`
	LogLevel string           `help:"Log level: debug, info, warn, or error." placeholder:"LEVEL"`
	LogFile  string           `help:"Write logs as JSON to this file in addition to stderr." type:"path" placeholder:"PATH"`
	JSON     bool             `help:"Emit machine-readable JSON where a command supports it."`
	Version  kong.VersionFlag `help:"Print version and quit."`

	Watch    WatchCmd    `cmd:"" help:"Launch the application and watch its viewer sessions."`
	Attach   AttachCmd   `cmd:"" help:"Watch an already-running application with an open debugging port."`
	Sessions SessionsCmd `cmd:"" help:"List the sessions a debugging endpoint exposes."`
	Inject   InjectCmd   `cmd:"" help:"Inject the payloads into currently listed viewer sessions."`
	Update   UpdateCmd   `cmd:"" help:"Show how to upgrade ecw."`
}

// Globals is the runtime context every command runs with.
type Globals struct {
	Config *config.Config
	Logger *zap.Logger
	JSON   bool
	Stdout io.Writer
	Stderr io.Writer
}

// NewGlobals loads configuration, applies flag overrides, and builds the
// logger the commands share.
func NewGlobals(c *CLI) (*Globals, error) {
	var cfg *config.Config
	var err error
	if c.Config != "" {
		cfg, err = config.LoadFromFile(c.Config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.LogFile != "" {
		cfg.Log.File = c.LogFile
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, err
	}

	return &Globals{
		Config: cfg,
		Logger: logger,
		JSON:   c.JSON,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}, nil
}

// Close flushes the logger. Sync failures on terminal streams are expected
// and ignored.
func (g *Globals) Close() {
	_ = g.Logger.Sync()
}
