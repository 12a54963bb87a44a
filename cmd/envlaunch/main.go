// cmd/envlaunch/main.go
//
// This is the entry point for the envlaunch launcher. Drop the binary next
// to a config.toml and double-click it (or run it from a terminal).
//
// Flow:
// 1. Read config.toml from the executable's directory
// 2. Resolve the project directory it names
// 3. Create, update, then activate the conda environment and start Streamlit

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kingrea/envlaunch/internal/commands"
	"github.com/kingrea/envlaunch/internal/console"
	"github.com/kingrea/envlaunch/internal/launcher"
	"github.com/kingrea/envlaunch/internal/logbook"
	"github.com/kingrea/envlaunch/internal/logging"
)

// Log sink modes.
const (
	logModeNone    = "none"
	logModePlain   = "plain"
	logModeLeveled = "leveled"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run holds the whole program so tests can drive it without exiting.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("envlaunch", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprint(stderr, `envlaunch - create, update and start a conda-backed Streamlit app.

Usage:
  envlaunch [options]

On Unix, conda is started directly for create and update. If conda_path does
not point at a conda installation the launch stops there with exit code 6
instead of going on to the run step.

Options:
`)
		flags.PrintDefaults()
	}

	configPath := flags.StringP("config", "c", "", "path to config.toml (default: next to the executable)")
	logMode := flags.String("log-mode", logModeLeveled, "log sink: none, plain or leveled")
	logFile := flags.String("log-file", "", "log file path (default: app.log or script_log.txt next to the executable)")
	platformName := flags.String("platform", "auto", "command syntax: auto, unix or windows")
	printCommands := flags.Bool("print-commands", false, "print the commands without running them")
	quiet := flags.BoolP("quiet", "q", false, "do not echo progress to stderr")
	sets := keyValueFlag{}
	flags.Var(&sets, "set", "config override (key=value, repeatable)")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return launcher.ExitOK
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return launcher.ExitUsage
	}
	if flags.NArg() > 0 {
		fmt.Fprintf(stderr, "error: unexpected arguments: %s\n", strings.Join(flags.Args(), " "))
		return launcher.ExitUsage
	}
	platform, err := commands.ParsePlatform(*platformName)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return launcher.ExitUsage
	}
	sink, err := openSink(*logMode, *logFile, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return launcher.ExitUsage
	}

	con := console.New(stdin, stdout, stderr, *quiet)
	reporter := logging.Tee{sink, con}
	defer reporter.Close()

	result := launcher.New(launcher.Options{
		ConfigPath: *configPath,
		Overrides:  sets,
		Platform:   platform,
		DryRun:     *printCommands,
		Reporter:   reporter,
		Console:    con,
	}).Run(context.Background())
	return result.Code
}

// openSink selects the durable reporter. A file that cannot be opened
// degrades to no logging rather than blocking the launch.
func openSink(mode, path string, warn io.Writer) (logging.Reporter, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case logModeNone:
		return logging.Nop{}, nil
	case logModePlain:
		if path == "" {
			path = besideExecutable("script_log.txt")
		}
		return logging.OpenOrNop(warn, func() (logging.Reporter, error) { return logging.New(path) }), nil
	case logModeLeveled, "":
		if path == "" {
			path = besideExecutable("app.log")
		}
		return logging.OpenOrNop(warn, func() (logging.Reporter, error) { return logbook.New(path) }), nil
	}
	return nil, fmt.Errorf("invalid log-mode %q: must be none, plain or leveled", mode)
}

func besideExecutable(name string) string {
	exe, err := os.Executable()
	if err != nil {
		return name
	}
	return filepath.Join(filepath.Dir(exe), name)
}
