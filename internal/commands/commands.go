// Package commands turns a launcher configuration into the three steps the
// pipeline dispatches: create the conda environment, update it, then
// activate it and start the Streamlit application.
//
// Create and update are argument vectors. Only the activation chain is a
// raw shell string, because it needs `&&` and, on Unix, sourcing conda's
// shell integration into the same session.
package commands

import (
	"fmt"
	"strings"

	"github.com/kingrea/envlaunch/internal/config"
)

// Step names, in dispatch order.
const (
	StepCreate = "create"
	StepUpdate = "update"
	StepRun    = "run"
)

// Invocation is either a program with arguments or a shell chain.
type Invocation struct {
	Argv  []string
	Shell string
}

// IsShell reports whether the invocation must go through the interpreter.
func (i Invocation) IsShell() bool {
	return len(i.Argv) == 0
}

// String renders the command line as a user would type it.
func (i Invocation) String() string {
	if i.IsShell() {
		return i.Shell
	}
	return strings.Join(i.Argv, " ")
}

// Step is one named pipeline invocation.
type Step struct {
	Name       string
	Invocation Invocation
}

// Spec holds the derived commands for one launch.
type Spec struct {
	Executable string
	Create     Step
	Update     Step
	Run        Step
}

// Steps returns the steps in dispatch order.
func (s Spec) Steps() []Step {
	return []Step{s.Create, s.Update, s.Run}
}

// Executable resolves the conda entry point for the platform.
func Executable(condaPath string, p Platform) string {
	if condaPath == "" {
		return "conda"
	}
	if p == Windows {
		return strings.TrimRight(condaPath, `\/`) + `\condabin\conda.bat`
	}
	return strings.TrimRight(condaPath, "/") + "/bin/conda"
}

// Build derives the launch commands. It never fails; bad values surface
// when the child process rejects them.
func Build(cfg config.Config, p Platform) Spec {
	exe := Executable(cfg.CondaPath, p)
	return Spec{
		Executable: exe,
		Create: Step{
			Name:       StepCreate,
			Invocation: Invocation{Argv: []string{exe, "env", "create", "-f", cfg.EnvFile}},
		},
		Update: Step{
			Name:       StepUpdate,
			Invocation: Invocation{Argv: []string{exe, "env", "update", "-f", cfg.EnvFile, "--prune"}},
		},
		Run: Step{
			Name:       StepRun,
			Invocation: Invocation{Shell: activationChain(cfg, exe, p)},
		},
	}
}

func activationChain(cfg config.Config, exe string, p Platform) string {
	launch := fmt.Sprintf("streamlit run %s", cfg.Script)
	if p == Windows {
		return fmt.Sprintf("%s activate %s && %s", exe, cfg.Environment, launch)
	}
	if cfg.CondaPath == "" {
		return fmt.Sprintf(`eval "$(conda shell.posix hook)" && conda activate %s && %s`, cfg.Environment, launch)
	}
	hook := strings.TrimRight(cfg.CondaPath, "/") + "/etc/profile.d/conda.sh"
	return fmt.Sprintf("source %s && conda activate %s && %s", hook, cfg.Environment, launch)
}
