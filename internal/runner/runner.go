// Package runner dispatches pipeline steps as child processes.
//
// Every dispatch ends in one of three outcomes: the child could not be
// started (fatal to the pipeline), it exited non-zero, or it succeeded.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"

	"github.com/kingrea/envlaunch/internal/commands"
)

// DefaultShell interprets the activation chain on Unix. It must understand
// `source`, which rules out a strict POSIX sh.
const DefaultShell = "bash"

// Outcome is the result of one dispatch.
type Outcome struct {
	Step       string
	Command    string
	Dispatched bool
	ExitCode   int
	Err        error
}

// Succeeded reports a zero exit status.
func (o Outcome) Succeeded() bool {
	return o.Dispatched && o.ExitCode == 0 && o.Err == nil
}

// Fatal reports that the child never started.
func (o Outcome) Fatal() bool {
	return !o.Dispatched
}

// Runner starts steps with the platform's interpreter rules.
type Runner struct {
	Platform commands.Platform
	Shell    string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// HoldInterrupts keeps Ctrl+C from killing the launcher while a child
	// runs. The child shares the terminal and still receives it, so the
	// launcher outlives the child and records how it ended.
	HoldInterrupts bool
}

// New returns a Runner wired to the process's standard streams.
func New(p commands.Platform, shell string) *Runner {
	return &Runner{
		Platform: p,
		Shell:    shell,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,

		HoldInterrupts: true,
	}
}

// Command builds the exec.Cmd for inv without starting it.
func (r *Runner) Command(ctx context.Context, dir string, inv commands.Invocation) *exec.Cmd {
	var cmd *exec.Cmd
	switch {
	case r.Platform == commands.Windows && inv.IsShell():
		cmd = exec.CommandContext(ctx, "cmd", "/C", inv.Shell)
	case r.Platform == commands.Windows:
		// conda.bat only runs under the batch interpreter.
		cmd = exec.CommandContext(ctx, "cmd", append([]string{"/C"}, inv.Argv...)...)
	case inv.IsShell():
		cmd = exec.CommandContext(ctx, r.shell(), "-c", inv.Shell)
	default:
		cmd = exec.CommandContext(ctx, inv.Argv[0], inv.Argv[1:]...)
	}
	cmd.Dir = dir
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	return cmd
}

// Dispatch runs step in dir and blocks until the child exits.
func (r *Runner) Dispatch(ctx context.Context, dir string, step commands.Step) Outcome {
	out := Outcome{Step: step.Name, Command: step.Invocation.String()}
	if step.Invocation.IsShell() && step.Invocation.Shell == "" {
		out.Err = fmt.Errorf("runner: %s: empty command", step.Name)
		return out
	}

	if r.HoldInterrupts {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt)
		defer signal.Stop(ch)
	}

	cmd := r.Command(ctx, dir, step.Invocation)
	if err := cmd.Start(); err != nil {
		out.Err = fmt.Errorf("runner: start %s: %w", step.Name, err)
		return out
	}
	out.Dispatched = true

	err := cmd.Wait()
	if err == nil {
		return out
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// -1 when the child was killed by a signal.
		out.ExitCode = exitErr.ExitCode()
		return out
	}
	out.ExitCode = -1
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}
	out.Err = fmt.Errorf("runner: wait %s: %w", step.Name, err)
	return out
}

func (r *Runner) shell() string {
	if r.Shell == "" {
		return DefaultShell
	}
	return r.Shell
}
