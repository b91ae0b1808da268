package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/vburojevic/ecw/internal/cli"
)

const quickStart = `ecw - console watcher and script injector for the Ridibooks desktop app

Quick start:
  ecw watch                     Launch the app and watch its viewer sessions
  ecw sessions -p PORT          List sessions on a debugging endpoint
  ecw inject -p PORT            One injection pass over current sessions

For help:
  ecw --help                    All commands and flags
`

func main() {
	// Bare invocation gets the quick start instead of a usage error.
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	var c cli.CLI
	kctx := kong.Parse(&c,
		kong.Name("ecw"),
		kong.Description("Electron Console Watcher: watches Ridibooks viewer sessions over the DevTools protocol, relays their console output, and injects instrumentation scripts."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{"version": cli.Version},
	)

	globals, err := cli.NewGlobals(&c)
	kctx.FatalIfErrorf(err)
	defer globals.Close()

	kctx.FatalIfErrorf(kctx.Run(globals))
}
