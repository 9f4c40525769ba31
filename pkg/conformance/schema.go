// Package conformance runs the CMa/MaMa end-to-end scenarios from
// committed YAML fixtures rather than hand-written Go tables, so the
// worked scenarios stay executable as data.
package conformance

// Suite represents one YAML fixture file: a named group of scenarios
// targeting a single machine.
type Suite struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Machine     string `yaml:"machine"` // "cma" or "mama"
	Cases       []Case `yaml:"cases"`
}

// Case is a single assemble-and-run scenario and its expected observable
// result.
type Case struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
	Expect Expect `yaml:"expect"`
}

// Expect is the observable result of running Source to completion:
// everything printed to the output sink, and the process exit code.
type Expect struct {
	Stdout   string `yaml:"stdout"`
	ExitCode int64  `yaml:"exit_code"`
}
