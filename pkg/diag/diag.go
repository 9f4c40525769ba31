// Package diag implements the single fatal-assertion channel shared by the
// CMa and MaMa front ends and engines.
//
// There are two error taxonomies. ParseError covers the assembler's
// parse-time failures (unknown mnemonic, malformed number, missing operand,
// unresolved label). Fault covers an engine's run-time failures (undefined
// opcode, stack overflow, type mismatch, out-of-range code pointer). Neither
// is recoverable by the program being run: the machines treat their input as
// trusted, so both taxonomies terminate the VM. Only the cmd/cma and
// cmd/mama entry points turn that termination into os.Exit; everything else
// gets a returned error so the conformance harness (and any other embedder)
// can inspect it without the process dying.
package diag

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/pkg/errors"
)

// ParseError is a parse-time failure raised by an assembler, anchored to the
// source line on which it was detected.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// NewParseError builds a ParseError, formatting Message like fmt.Sprintf.
func NewParseError(line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Message: fmt.Sprintf(format, args...)}
}

// Fault is a run-time failure raised by an engine: a programming error in
// the assembled instruction stream rather than in the assembler's input
// text. Expr and Context mirror the original C++ assertion channel's
// "offending expression" and "contextual key-value pairs".
type Fault struct {
	Message string
	Expr    string
	Context []any
	Stack   string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s %v", f.Message, f.Expr, f.Context)
}

// Fail panics with a *Fault built from msg, the textual expr that triggered
// it, and zero or more contextual values. It is used only for programming-
// error checks inside an engine or assembler; the panic is expected to be
// recovered by the engine's own Run method and converted into a returned
// error (see cma.Engine.Run and mama.Engine.Run).
func Fail(msg, expr string, context ...any) {
	panic(&Fault{
		Message: msg,
		Expr:    expr,
		Context: context,
		Stack:   string(debug.Stack()),
	})
}

// Assert panics via Fail when cond is false.
func Assert(cond bool, msg, expr string, context ...any) {
	if !cond {
		Fail(msg, expr, context...)
	}
}

// Recover converts a panic produced by Fail/Assert/FailParse into an error,
// wrapping it with github.com/pkg/errors so callers can still unwrap to the
// *Fault or *ParseError. Any other panic value is re-panicked: Recover only
// catches the channel it owns. Intended to be called from a deferred
// function:
//
//	defer func() { err = diag.Recover(recover(), err) }()
func Recover(recovered any, existing error) error {
	if recovered == nil {
		return existing
	}
	switch v := recovered.(type) {
	case *Fault:
		return errors.Wrap(v, "engine fault")
	case *ParseError:
		return errors.Wrap(v, "parse error")
	case error:
		// An out-of-range memory/code-pointer access surfaces as a plain Go
		// runtime error (index out of range, nil dereference) rather than a
		// *Fault — spec.md §4.3/§7 treats those as programming errors in the
		// input assembly that "may be caught by bounds checks in debug
		// builds"; wrapping here is that catch, so an embedder (e.g. the
		// conformance harness) gets a returned error instead of a crash.
		return errors.Wrap(v, "engine fault")
	default:
		panic(recovered)
	}
}

// FailParse panics with a *ParseError anchored at line, formatting message
// like fmt.Sprintf. Used by both assemblers for every parse-time failure
// listed in spec.md §7, so a single Recover call at the top of Assemble can
// turn any of them into a returned error.
func FailParse(line int, format string, args ...any) {
	panic(NewParseError(line, format, args...))
}

// Exit prints err (if non-nil) to stderr and terminates the process with a
// non-zero status. It is the only place in this repository that may call
// os.Exit outside of main — reserved for the cmd/cma and cmd/mama entry
// points, which are the only callers allowed to own the process lifetime.
func Exit(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
