package conformance

import (
	"bytes"
	"fmt"

	"github.com/jakobteuber/virtual-machines/pkg/cma"
	"github.com/jakobteuber/virtual-machines/pkg/mama"
)

// Result is what actually happened when a LoadedCase's source was
// assembled and run.
type Result struct {
	Stdout   string
	ExitCode int64
	Err      error
}

// Run assembles and executes lc.Case.Source on the machine named by
// lc.Machine ("cma" or "mama") and reports what happened. An unknown
// machine name is a fixture-authoring bug, reported as an error result
// rather than panicking the test runner.
func Run(lc LoadedCase) Result {
	switch lc.Machine {
	case "cma":
		return runCMa(lc.Case.Source)
	case "mama":
		return runMaMa(lc.Case.Source)
	default:
		return Result{Err: fmt.Errorf("unknown machine %q", lc.Machine)}
	}
}

func runCMa(source string) Result {
	prog, err := cma.Assemble(source)
	if err != nil {
		return Result{Err: err}
	}
	e := cma.New(prog)
	var out bytes.Buffer
	e.Output = &out
	code, err := e.Run()
	return Result{Stdout: out.String(), ExitCode: int64(code), Err: err}
}

func runMaMa(source string) Result {
	prog, err := mama.Assemble(source)
	if err != nil {
		return Result{Err: err}
	}
	e := mama.New(prog, nil)
	var out bytes.Buffer
	e.Output = &out
	code, err := e.Run()
	return Result{Stdout: out.String(), ExitCode: code, Err: err}
}

// Matches reports whether r satisfies want, and if not, a human-readable
// description of the mismatch.
func (r Result) Matches(want Expect) (bool, string) {
	if r.Err != nil {
		return false, fmt.Sprintf("unexpected error: %v", r.Err)
	}
	if r.Stdout != want.Stdout {
		return false, fmt.Sprintf("stdout = %q, want %q", r.Stdout, want.Stdout)
	}
	if r.ExitCode != want.ExitCode {
		return false, fmt.Sprintf("exit code = %d, want %d", r.ExitCode, want.ExitCode)
	}
	return true, ""
}
