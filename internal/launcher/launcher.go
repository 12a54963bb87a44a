// Package launcher drives one launch: load the config, resolve the working
// directory, then create, update and run the conda environment in order.
//
// A step whose process cannot be started ends the launch. A step that
// starts and exits non-zero is reported and the next step runs anyway;
// `conda env create` fails on an existing environment and the update that
// follows repairs it.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kingrea/envlaunch/internal/commands"
	"github.com/kingrea/envlaunch/internal/config"
	"github.com/kingrea/envlaunch/internal/logging"
	"github.com/kingrea/envlaunch/internal/runner"
)

// Dispatcher runs one step in dir and reports how it ended.
type Dispatcher interface {
	Dispatch(ctx context.Context, dir string, step commands.Step) runner.Outcome
}

// Console is the interactive surface of a launch.
type Console interface {
	Running(step commands.Step)
	WaitForExit(message string)
	PrintSpec(spec commands.Spec, p commands.Platform, dir string)
}

// Options configures a Launcher.
type Options struct {
	ConfigPath string
	Overrides  map[string]string
	Platform   commands.Platform

	// BaseDir anchors a relative config directory. Empty means the
	// process working directory.
	BaseDir string

	// DryRun prints the commands instead of dispatching them.
	DryRun bool

	Reporter logging.Reporter
	Console  Console

	// NewDispatcher is called once the config is known.
	NewDispatcher func(cfg *config.Config, p commands.Platform) Dispatcher
}

// Launcher runs the launch pipeline.
type Launcher struct {
	opts Options
	log  logging.Reporter
}

// New returns a Launcher. A nil Reporter is replaced by logging.Nop and a
// nil NewDispatcher by the process runner.
func New(opts Options) *Launcher {
	if opts.NewDispatcher == nil {
		opts.NewDispatcher = func(cfg *config.Config, p commands.Platform) Dispatcher {
			return runner.New(p, cfg.Shell)
		}
	}
	log := opts.Reporter
	if log == nil {
		log = logging.Nop{}
	}
	return &Launcher{opts: opts, log: log}
}

type stepMessages struct {
	attempted State
	ok        string
	failed    string
	fatal     string
}

var messages = map[string]stepMessages{
	commands.StepCreate: {
		attempted: StateCreateAttempted,
		ok:        "Conda environment created successfully: %s",
		failed:    "Conda environment creation failed with exit code %d: %s",
		fatal:     "Failed to create conda environment: %v: %s",
	},
	commands.StepUpdate: {
		attempted: StateUpdateAttempted,
		ok:        "Conda environment updated successfully: %s",
		failed:    "Conda environment update failed with exit code %d: %s",
		fatal:     "Failed to update conda environment: %v: %s",
	},
	commands.StepRun: {
		attempted: StateRunAttempted,
		ok:        "Streamlit app finished successfully: %s",
		failed:    "Streamlit app exited with code %d: %s",
		fatal:     "Failed to execute process: %v: %s",
	},
}

// Run performs the launch and returns its terminal state and exit code.
func (l *Launcher) Run(ctx context.Context) Result {
	trail := []State{StateStart}
	l.log.Info("Script started.")

	cfg, res, ok := l.loadConfig()
	if !ok {
		return res.with(trail)
	}
	trail = append(trail, StateConfigLoaded)

	ectx, err := l.resolveDirectory(cfg.Directory)
	if err != nil {
		l.log.Error("Failed to change directory: %v", err)
		return finish(StateDirectoryChangeFailed, err, nil).with(trail)
	}
	l.log.Info("Changed directory to: %s", ectx.Dir)
	trail = append(trail, StateDirectoryChanged)

	spec := commands.Build(*cfg, l.opts.Platform)
	if l.opts.DryRun {
		if l.opts.Console != nil {
			l.opts.Console.PrintSpec(spec, l.opts.Platform, ectx.Dir)
		}
		l.log.Info("Dry run: no commands dispatched.")
		return finish(StateDone, nil, nil).with(trail)
	}

	dispatcher := l.opts.NewDispatcher(cfg, l.opts.Platform)
	var outcomes []runner.Outcome
	for _, step := range spec.Steps() {
		if l.opts.Console != nil {
			l.opts.Console.Running(step)
		}
		outcome := dispatcher.Dispatch(ctx, ectx.Dir, step)
		outcomes = append(outcomes, outcome)
		l.report(outcome)
		if outcome.Fatal() {
			return finish(StateDispatchFailed, &DispatchError{Step: step.Name, Err: outcome.Err}, outcomes).with(trail)
		}
		trail = append(trail, messages[step.Name].attempted)
	}

	l.log.Info("Script completed.")
	return finish(StateDone, nil, outcomes).with(trail)
}

func finish(state State, err error, outcomes []runner.Outcome) Result {
	return Result{State: state, Code: exitCode(state, outcomes), Err: err, Outcomes: outcomes}
}

func (l *Launcher) loadConfig() (*config.Config, Result, bool) {
	path := l.opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}

	data, err := config.Read(path)
	if errors.Is(err, config.ErrNotFound) {
		msg := fmt.Sprintf("Config file not found at %s. Please ensure '%s' is present next to the executable.", path, filepath.Base(path))
		l.log.Error("%s", msg)
		if l.opts.Console != nil {
			l.opts.Console.WaitForExit(msg)
		}
		return nil, finish(StateConfigMissing, err, nil), false
	}
	if err != nil {
		l.log.Error("Failed to read configuration file: %v", err)
		return nil, finish(StateConfigReadFailed, err, nil), false
	}
	l.log.Info("Configuration file read successfully.")

	cfg, err := config.Parse(path, data)
	if err == nil && len(l.opts.Overrides) > 0 {
		cfg, err = cfg.Apply(l.opts.Overrides)
	}
	if err != nil {
		l.log.Error("Failed to parse configuration file: %v", err)
		return nil, finish(StateConfigParseFailed, err, nil), false
	}
	l.log.Info("Configuration file parsed successfully.")
	return cfg, Result{State: StateConfigLoaded}, true
}

func (l *Launcher) resolveDirectory(dir string) (ExecContext, error) {
	resolved := dir
	if !filepath.IsAbs(resolved) {
		base := l.opts.BaseDir
		if base == "" {
			wd, err := os.Getwd()
			if err != nil {
				return ExecContext{}, &DirectoryError{Dir: dir, Err: err}
			}
			base = wd
		}
		resolved = filepath.Join(base, resolved)
	}
	resolved = filepath.Clean(resolved)
	info, err := os.Stat(resolved)
	if err != nil {
		return ExecContext{}, &DirectoryError{Dir: resolved, Err: err}
	}
	if !info.IsDir() {
		return ExecContext{}, &DirectoryError{Dir: resolved, Err: errors.New("not a directory")}
	}
	return ExecContext{Dir: resolved}, nil
}

// report writes exactly one durable line for a dispatched step.
func (l *Launcher) report(o runner.Outcome) {
	msg, ok := messages[o.Step]
	if !ok {
		msg = stepMessages{ok: "Step succeeded: %s", failed: "Step failed with exit code %d: %s", fatal: "Step could not start: %v: %s"}
	}
	switch {
	case o.Fatal():
		l.log.Error(msg.fatal, o.Err, o.Command)
	case o.Err != nil:
		// The child ran but waiting on it failed, so its exit code alone
		// says nothing.
		l.log.Error("%s (%v)", fmt.Sprintf(msg.failed, o.ExitCode, o.Command), o.Err)
	case o.Succeeded():
		l.log.Info(msg.ok, o.Command)
	default:
		l.log.Error(msg.failed, o.ExitCode, o.Command)
	}
}
