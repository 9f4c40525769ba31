package mama

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/jakobteuber/virtual-machines/pkg/diag"
)

// handler executes one opcode's effect and returns the handler for the next
// instruction, or nil once the engine should stop. Run's loop calling
// h = h(e) is the tail-call-threaded dispatch of spec.md §4.4, expressed as
// a trampoline since Go gives no guarantee that a literal tail call is
// compiled without growing the stack.
type handler func(e *Engine) handler

// Engine is one MaMa virtual machine instance.
type Engine struct {
	Code   []byte
	Global []BasicValue
	Heap   Heap

	pc int
	sp int
	fp int

	stack []BasicValue

	// Output is where `print` and `debug` write. Defaults to os.Stdout when
	// left nil.
	Output io.Writer

	// DebugTrace, when true, writes one line to stderr every time the
	// `debug` opcode is hit, in addition to its normal dump on Output.
	DebugTrace bool

	exitCode int64
}

// New constructs an Engine ready to run prog. globals, if non-nil, seeds
// the global-environment vector read by pushglob; this repository's
// assembler emits no opcode that writes to it, so a caller wanting non-empty
// globals must supply them here.
func New(prog *Program, globals []BasicValue) *Engine {
	return &Engine{
		Code:   prog.Code,
		Global: globals,
		sp:     -1,
		stack:  make([]BasicValue, 0, 256),
	}
}

func (e *Engine) out() io.Writer {
	if e.Output == nil {
		return os.Stdout
	}
	return e.Output
}

func (e *Engine) push(v BasicValue) {
	e.sp++
	if e.sp < len(e.stack) {
		e.stack[e.sp] = v
		return
	}
	e.stack = append(e.stack, v)
}

func (e *Engine) pop() BasicValue {
	v := e.stack[e.sp]
	e.sp--
	return v
}

func (e *Engine) top() BasicValue { return e.stack[e.sp] }

func (e *Engine) readImmediate() int64 {
	if e.pc+immediateSize > len(e.Code) {
		diag.Fail("code pointer out of range reading immediate", "readImmediate", "pc", e.pc)
	}
	v := int64(binary.LittleEndian.Uint64(e.Code[e.pc : e.pc+immediateSize]))
	e.pc += immediateSize
	return v
}

// Run executes from the start of the code stream until `halt`, a code
// pointer runs past the end of the stream, or a fatal error occurs. It
// returns the program's exit code (the top of stack at `halt`).
func (e *Engine) Run() (code int64, err error) {
	defer func() { err = diag.Recover(recover(), err) }()

	h := next(e)
	for h != nil {
		h = h(e)
	}
	return e.exitCode, nil
}

func (e *Engine) fetch() Opcode {
	if e.pc < 0 || e.pc >= len(e.Code) {
		diag.Fail("code pointer out of range", "fetch", "pc", e.pc)
	}
	op := Opcode(e.Code[e.pc])
	e.pc++
	return op
}

func next(e *Engine) handler {
	op := e.fetch()
	if op >= numOpcodes {
		diag.Fail("undefined opcode", "next", "op", op)
	}
	return dispatch[op]
}

var dispatch [numOpcodes]handler

func init() {
	dispatch[Debug] = doDebug
	dispatch[Print] = doPrint
	dispatch[Loadc] = doLoadc
	dispatch[Dup] = doDup
	dispatch[Add] = binHandler(func(a, b int64) int64 { return a + b })
	dispatch[Sub] = binHandler(func(a, b int64) int64 { return a - b })
	dispatch[Mul] = binHandler(func(a, b int64) int64 { return a * b })
	dispatch[Div] = binHandler(func(a, b int64) int64 {
		if b == 0 {
			diag.Fail("division by zero", "div")
		}
		return a / b
	})
	dispatch[Mod] = binHandler(func(a, b int64) int64 {
		if b == 0 {
			diag.Fail("division by zero", "mod")
		}
		return a % b
	})
	dispatch[And] = binHandler(func(a, b int64) int64 { return boolToInt(a != 0 && b != 0) })
	dispatch[Or] = binHandler(func(a, b int64) int64 { return boolToInt(a != 0 || b != 0) })
	dispatch[Xor] = binHandler(func(a, b int64) int64 { return boolToInt((a != 0) != (b != 0)) })
	dispatch[Eq] = binHandler(func(a, b int64) int64 { return boolToInt(a == b) })
	dispatch[Neq] = binHandler(func(a, b int64) int64 { return boolToInt(a != b) })
	dispatch[Le] = binHandler(func(a, b int64) int64 { return boolToInt(a < b) })
	dispatch[Leq] = binHandler(func(a, b int64) int64 { return boolToInt(a <= b) })
	dispatch[Gr] = binHandler(func(a, b int64) int64 { return boolToInt(a > b) })
	dispatch[Geq] = binHandler(func(a, b int64) int64 { return boolToInt(a >= b) })
	dispatch[Not] = doNot
	dispatch[Neg] = doNeg
	dispatch[Halt] = doHalt
	dispatch[Jump] = doJump
	dispatch[Jumpz] = doJumpz
	dispatch[Getbasic] = doGetbasic
	dispatch[Mkbasic] = doMkbasic
	dispatch[Pushloc] = doPushloc
	dispatch[Pushglob] = doPushglob
	dispatch[Slide] = doSlide
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func binHandler(f func(a, b int64) int64) handler {
	return func(e *Engine) handler {
		b := e.pop()
		a := e.pop()
		e.push(BasicValue(f(a.AsInt(), b.AsInt())))
		return next(e)
	}
}

func doDebug(e *Engine) handler {
	e.debug()
	if e.DebugTrace {
		fmt.Fprintf(os.Stderr, "trace: debug opcode hit at pc=%d\n", e.pc-1)
	}
	return next(e)
}

func doPrint(e *Engine) handler {
	fmt.Fprintf(e.out(), "%d\n", e.pop().AsInt())
	return next(e)
}

func doLoadc(e *Engine) handler {
	v := e.readImmediate()
	e.push(BasicValue(v))
	return next(e)
}

func doDup(e *Engine) handler {
	e.push(e.top())
	return next(e)
}

func doNot(e *Engine) handler {
	e.stack[e.sp] = BasicValue(boolToInt(e.top().AsInt() == 0))
	return next(e)
}

func doNeg(e *Engine) handler {
	e.stack[e.sp] = BasicValue(-e.top().AsInt())
	return next(e)
}

func doHalt(e *Engine) handler {
	if e.sp < 0 {
		e.exitCode = 0
		return nil
	}
	e.exitCode = e.pop().AsInt()
	return nil
}

func doJump(e *Engine) handler {
	off := int(e.readImmediate())
	e.pc = off
	return next(e)
}

func doJumpz(e *Engine) handler {
	off := int(e.readImmediate())
	z := e.pop().AsInt() == 0
	if z {
		e.pc = off
	}
	return next(e)
}

func doGetbasic(e *Engine) handler {
	addr := e.pop().AsAddress()
	boxed := e.Heap.Boxed(addr)
	e.push(boxed.Value)
	return next(e)
}

func doMkbasic(e *Engine) handler {
	v := e.pop()
	addr := e.Heap.CreateNew(Boxed{Value: v})
	e.push(BasicValue(addr))
	return next(e)
}

func doPushloc(e *Engine) handler {
	n := int(e.readImmediate())
	e.push(e.stack[e.sp-n])
	return next(e)
}

func doPushglob(e *Engine) handler {
	n := int(e.readImmediate())
	if n < 0 || n >= len(e.Global) {
		diag.Fail("global index out of range", "pushglob", "index", n, "size", len(e.Global))
	}
	e.push(e.Global[n])
	return next(e)
}

func doSlide(e *Engine) handler {
	n := int(e.readImmediate())
	top := e.top()
	e.sp -= n
	e.stack[e.sp] = top
	return next(e)
}

// debug writes the register/stack dump, in the same two-line shape as
// cma.Engine's (see spec.md §9): this repository defines its own MaMa debug
// format since no reference implementation of it exists to follow.
func (e *Engine) debug() {
	fmt.Fprintf(e.out(), "MaMa state: SP = %d, PC = %d, FP = %d\n", e.sp, e.pc, e.fp)

	const window = 11
	start := 0
	prefix := ""
	if e.sp+1 > window {
		start = e.sp + 1 - window
		prefix = "...   "
	}
	fmt.Fprint(e.out(), "    stack: ", prefix)
	for i := start; i <= e.sp; i++ {
		fmt.Fprintf(e.out(), "%d   ", e.stack[i].AsInt())
	}
	fmt.Fprintln(e.out(), "<- top")
}
