package launcher

import (
	"fmt"

	"github.com/kingrea/envlaunch/internal/commands"
	"github.com/kingrea/envlaunch/internal/runner"
)

// State is a node of the launch state machine. The happy path only moves
// forward; every other terminal state is a side exit.
type State string

const (
	StateStart            State = "start"
	StateConfigLoaded     State = "config-loaded"
	StateDirectoryChanged State = "directory-changed"
	StateCreateAttempted  State = "create-attempted"
	StateUpdateAttempted  State = "update-attempted"
	StateRunAttempted     State = "run-attempted"
	StateDone             State = "done"

	StateConfigMissing         State = "config-missing"
	StateConfigReadFailed      State = "config-read-failed"
	StateConfigParseFailed     State = "config-parse-failed"
	StateDirectoryChangeFailed State = "directory-change-failed"
	StateDispatchFailed        State = "dispatch-failed"
)

// Process exit codes, one per terminal state.
const (
	ExitOK              = 0
	ExitConfigMissing   = 1
	ExitUsage           = 2
	ExitConfigRead      = 3
	ExitConfigParse     = 4
	ExitDirectory       = 5
	ExitDispatch        = 6
	ExitApplicationFail = 7
)

// Result is what a launch ends with. Trail lists the forward states
// reached before State, starting with StateStart.
type Result struct {
	State    State
	Code     int
	Err      error
	Outcomes []runner.Outcome
	Trail    []State
}

func (r Result) with(trail []State) Result {
	r.Trail = append([]State(nil), trail...)
	return r
}

// ExecContext carries the resolved working directory to every dispatch.
type ExecContext struct {
	Dir string
}

// DirectoryError reports that the configured directory is unusable.
type DirectoryError struct {
	Dir string
	Err error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("launcher: directory %s: %v", e.Dir, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// DispatchError reports a step whose process could not be started.
type DispatchError struct {
	Step string
	Err  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("launcher: dispatch %s: %v", e.Step, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

func exitCode(state State, outcomes []runner.Outcome) int {
	switch state {
	case StateDone:
		if n := len(outcomes); n > 0 && outcomes[n-1].Step == commands.StepRun && !outcomes[n-1].Succeeded() {
			return ExitApplicationFail
		}
		return ExitOK
	case StateConfigMissing:
		return ExitConfigMissing
	case StateConfigReadFailed:
		return ExitConfigRead
	case StateConfigParseFailed:
		return ExitConfigParse
	case StateDirectoryChangeFailed:
		return ExitDirectory
	case StateDispatchFailed:
		return ExitDispatch
	}
	return ExitOK
}
