// Package console installs and drains the in-page console collector: a
// small injected script that shadows the page's logging entry points and
// buffers everything they emit until the next poll reads it back.
package console

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vburojevic/ecw/internal/cdp"
)

// Evaluator runs an expression in the session behind address.
type Evaluator interface {
	Evaluate(ctx context.Context, address, expression string) cdp.Result
}

// Buffer identifies one of the collector's in-page output buffers.
type Buffer int

const (
	Messages Buffer = iota
	Errors
	Warnings
)

func (b Buffer) String() string {
	switch b {
	case Messages:
		return "messages"
	case Errors:
		return "errors"
	case Warnings:
		return "warnings"
	default:
		return "unknown"
	}
}

// global is the window property holding the buffer's entries.
func (b Buffer) global() string {
	switch b {
	case Messages:
		return "__ecw_consoleMessages"
	case Errors:
		return "__ecw_consoleErrors"
	case Warnings:
		return "__ecw_consoleWarnings"
	default:
		return ""
	}
}

// InstallState reports what EnsureInstalled found on the page.
type InstallState int

const (
	// Installed means this call put the hooks in place.
	Installed InstallState = iota
	// AlreadyInstalled means a previous call already did.
	AlreadyInstalled
)

const (
	sentinelInstalled = "setup-complete"
	sentinelAlready   = "already-setup"
)

// installScript hooks console.log/error/warn and uncaught errors. The setup
// flag makes it a no-op on re-evaluation, so polling loops can send it
// unconditionally. Forwarding to the real console is gated by the
// page-controlled __ecw_consoleEcho flag and stays silent by default.
const installScript = `
(function() {
    if (window.__ecw_consoleCollectorSetup) return "` + sentinelAlready + `";

    window.__ecw_consoleMessages = [];
    window.__ecw_consoleErrors = [];
    window.__ecw_consoleWarnings = [];

    const originalConsoleLog = console.log;
    const originalConsoleError = console.error;
    const originalConsoleWarn = console.warn;

    const format = function(args) {
        return Array.from(args).map(arg => String(arg)).join(" ");
    };

    console.log = function() {
        window.__ecw_consoleMessages.push(format(arguments));
        if (window.__ecw_consoleEcho) {
            return originalConsoleLog.apply(this, arguments);
        }
    };

    console.error = function() {
        window.__ecw_consoleErrors.push(format(arguments));
        if (window.__ecw_consoleEcho) {
            return originalConsoleError.apply(this, arguments);
        }
    };

    console.warn = function() {
        window.__ecw_consoleWarnings.push(format(arguments));
        if (window.__ecw_consoleEcho) {
            return originalConsoleWarn.apply(this, arguments);
        }
    };

    window.addEventListener("error", function(event) {
        window.__ecw_consoleErrors.push(
            "UNCAUGHT: " + event.message + " at " + event.filename + ":" + event.lineno
        );
    });

    window.__ecw_consoleCollectorSetup = true;
    return "` + sentinelInstalled + `";
})();
`

// drainScript reads and resets one buffer in a single evaluation, so no
// entry written between read and reset can be lost.
const drainScript = `
(function() {
    const entries = window.%[1]s || [];
    window.%[1]s = [];
    return entries;
})()
`

// Collector speaks the collector script protocol against sessions.
type Collector struct {
	client Evaluator
	log    *zap.Logger
}

// NewCollector returns a collector evaluating through client.
func NewCollector(client Evaluator, log *zap.Logger) *Collector {
	return &Collector{client: client, log: log}
}

// EnsureInstalled puts the console hooks in place if they are not already.
// A failed evaluation or an unrecognized sentinel is an error; the caller
// decides whether to give up on the session.
func (c *Collector) EnsureInstalled(ctx context.Context, address string) (InstallState, error) {
	res := c.client.Evaluate(ctx, address, installScript)
	sentinel, ok := res.AsString()
	if !ok {
		return 0, fmt.Errorf("install console hooks: evaluation failed")
	}
	switch sentinel {
	case sentinelInstalled:
		c.log.Debug("console hooks installed", zap.String("address", address))
		return Installed, nil
	case sentinelAlready:
		return AlreadyInstalled, nil
	default:
		return 0, fmt.Errorf("install console hooks: unexpected sentinel %q", sentinel)
	}
}

// Drain returns and clears the named buffer's entries, oldest first.
func (c *Collector) Drain(ctx context.Context, address string, buffer Buffer) ([]string, error) {
	res := c.client.Evaluate(ctx, address, fmt.Sprintf(drainScript, buffer.global()))
	entries, ok := res.AsStrings()
	if !ok {
		return nil, fmt.Errorf("drain %s buffer: evaluation failed", buffer)
	}
	return entries, nil
}
