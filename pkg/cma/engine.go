package cma

import (
	"fmt"
	"io"
	"os"

	"github.com/jakobteuber/virtual-machines/pkg/diag"
)

// MemoryCapacity is the fixed number of 32-bit cells in a CMa engine's
// memory, per spec.md §3. It is a deliberate, documented limit that also
// defines the extreme-pointer/new-pointer overflow boundary; it must not be
// made configurable without reconsidering that check.
const MemoryCapacity = 1 << 20

// Engine is one CMa virtual machine instance: its program counter, stack/
// frame/extreme/new pointers, and the flat memory they index into. An
// Engine runs exactly one program to completion; it is not reentrant.
type Engine struct {
	Memory [MemoryCapacity]int32

	pc int
	sp int
	fp int
	ep int
	np int

	instrs []Instr

	// Output is where `print` and `debug` write. Defaults to os.Stdout when
	// left nil.
	Output io.Writer

	// DebugTrace, when true, writes one line to stderr every time the
	// `debug` opcode is hit, in addition to its normal dump on Output.
	DebugTrace bool
}

// New constructs an Engine ready to run prog.
func New(prog *Program) *Engine {
	e := &Engine{
		instrs: prog.Instrs,
		sp:     -1,
		ep:     -1,
		np:     MemoryCapacity - 1,
	}
	return e
}

func (e *Engine) out() io.Writer {
	if e.Output == nil {
		return os.Stdout
	}
	return e.Output
}

// Run steps the engine until its program counter leaves the instruction
// range (running off the end, jumping out of range, or `halt`), then
// returns memory[0] as the program's exit code. A programming-error
// condition (undefined opcode, stack overflow, out-of-range access) is
// recovered and returned as an error instead of panicking the caller.
func (e *Engine) Run() (code int32, err error) {
	defer func() { err = diag.Recover(recover(), err) }()

	for e.pc >= 0 && e.pc < len(e.instrs) {
		e.step()
	}
	return e.Memory[0], nil
}

// step executes a single instruction: it loads instrs[pc], advances pc,
// then dispatches on the opcode, per spec.md §4.3.
func (e *Engine) step() {
	instr := e.instrs[e.pc]
	e.pc++

	switch instr.Op {
	case Debug:
		e.debug()
		if e.DebugTrace {
			fmt.Fprintf(os.Stderr, "trace: debug opcode hit at pc=%d\n", e.pc-1)
		}
	case Loadc:
		e.push(instr.Arg)
	case Add:
		e.binOp(func(a, b int32) int32 { return a + b })
	case Sub:
		e.binOp(func(a, b int32) int32 { return a - b })
	case Mul:
		e.binOp(func(a, b int32) int32 { return a * b })
	case Div:
		e.binOp(func(a, b int32) int32 {
			if b == 0 {
				diag.Fail("division by zero", "div", "pc", e.pc-1)
			}
			return a / b
		})
	case Mod:
		e.binOp(func(a, b int32) int32 {
			if b == 0 {
				diag.Fail("division by zero", "mod", "pc", e.pc-1)
			}
			return a % b
		})
	case And:
		e.binOp(func(a, b int32) int32 { return boolToInt(a != 0 && b != 0) })
	case Or:
		e.binOp(func(a, b int32) int32 { return boolToInt(a != 0 || b != 0) })
	case Xor:
		e.binOp(func(a, b int32) int32 { return boolToInt((a != 0) != (b != 0)) })
	case Eq:
		e.binOp(func(a, b int32) int32 { return boolToInt(a == b) })
	case Neq:
		e.binOp(func(a, b int32) int32 { return boolToInt(a != b) })
	case Le:
		e.binOp(func(a, b int32) int32 { return boolToInt(a < b) })
	case Leq:
		e.binOp(func(a, b int32) int32 { return boolToInt(a <= b) })
	case Gr:
		e.binOp(func(a, b int32) int32 { return boolToInt(a > b) })
	case Geq:
		e.binOp(func(a, b int32) int32 { return boolToInt(a >= b) })
	case Not:
		e.Memory[e.sp] = boolToInt(e.Memory[e.sp] == 0)
	case Neg:
		e.Memory[e.sp] = -e.Memory[e.sp]
	case Load:
		e.load(instr.Arg)
	case Store:
		e.store(instr.Arg)
	case Loada:
		e.push(e.Memory[instr.Arg])
	case Storea:
		e.Memory[instr.Arg] = e.Memory[e.sp]
	case Pop:
		e.sp -= int(instr.Arg)
	case Jump:
		e.pc = int(instr.Arg)
	case Jumpz:
		z := e.Memory[e.sp] == 0
		e.sp--
		if z {
			e.pc = int(instr.Arg)
		}
	case Jumpi:
		target := int(instr.Arg) + int(e.Memory[e.sp])
		e.sp--
		e.pc = target
	case Dup:
		e.push(e.Memory[e.sp])
	case Alloc:
		e.sp += int(instr.Arg)
	case NewOp:
		e.newHeapBlock()
	case Mark:
		e.Memory[e.sp+1] = int32(e.ep)
		e.Memory[e.sp+2] = int32(e.fp)
		e.sp += 2
	case Call:
		addr := e.Memory[e.sp]
		e.Memory[e.sp] = int32(e.pc)
		e.fp = e.sp
		e.pc = int(addr)
	case Slide:
		retval := e.Memory[e.sp]
		e.sp -= int(instr.Arg)
		e.Memory[e.sp] = retval
	case Enter:
		e.ep = e.sp + int(instr.Arg)
		diag.Assert(e.ep < e.np, "stack overflow", "enter", "ep", e.ep, "np", e.np)
	case Loadrc:
		e.push(int32(e.fp) + instr.Arg)
	case Loadr:
		e.push(e.Memory[e.fp+int(instr.Arg)])
	case Storer:
		e.Memory[e.fp+int(instr.Arg)] = e.Memory[e.sp]
	case Return:
		e.doReturn()
	case Halt:
		e.pc = len(e.instrs)
	case Print:
		fmt.Fprintf(e.out(), "%d\n", e.Memory[e.sp])
		e.sp--
	default:
		diag.Fail("undefined opcode", "instr.Op", "op", instr.Op)
	}
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func (e *Engine) push(v int32) {
	e.sp++
	e.Memory[e.sp] = v
}

func (e *Engine) binOp(f func(a, b int32) int32) {
	a, b := e.Memory[e.sp-1], e.Memory[e.sp]
	e.Memory[e.sp-1] = f(a, b)
	e.sp--
}

func (e *Engine) load(n int32) {
	d := int(e.Memory[e.sp])
	tmp := make([]int32, n)
	copy(tmp, e.Memory[d:d+int(n)])
	copy(e.Memory[e.sp:e.sp+int(n)], tmp)
	e.sp += int(n) - 1
}

func (e *Engine) store(n int32) {
	d := int(e.Memory[e.sp])
	copy(e.Memory[d:d+int(n)], e.Memory[e.sp-int(n):e.sp])
	e.sp--
}

func (e *Engine) newHeapBlock() {
	size := int(e.Memory[e.sp])
	if e.np-size <= e.ep {
		e.Memory[e.sp] = 0
		return
	}
	e.np -= size
	e.Memory[e.sp] = int32(e.np)
}

func (e *Engine) doReturn() {
	e.pc = int(e.Memory[e.fp])
	e.ep = int(e.Memory[e.fp-2])
	diag.Assert(e.ep < e.np, "stack overflow on return", "return", "ep", e.ep, "np", e.np)
	e.sp = e.fp - 3
	e.fp = int(e.Memory[e.sp+2])
}

// debug writes the two-line register/stack dump specified in spec.md §6.
func (e *Engine) debug() {
	fmt.Fprintf(e.out(), "CMa state: SP = %d, PC = %d, FP = %d, EP = %d, NP = %d\n",
		e.sp, e.pc, e.fp, e.ep, e.np)

	const window = 11
	start := 0
	prefix := ""
	if e.sp+1 > window {
		start = e.sp + 1 - window
		prefix = "...   "
	}
	fmt.Fprint(e.out(), "    stack: ", prefix)
	for i := start; i <= e.sp; i++ {
		fmt.Fprintf(e.out(), "%d   ", e.Memory[i])
	}
	fmt.Fprintln(e.out(), "<- top")
}
