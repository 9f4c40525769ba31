package cma

import (
	"fmt"
	"strings"
)

// Disassemble renders prog back into textual CMa assembly: one mnemonic per
// line, operand printed numerically (never as a label) so that Assembling
// the result reproduces the exact same instruction stream, satisfying
// spec.md §8's assembler idempotence property without needing to invent
// label names for jump targets.
func Disassemble(prog *Program) string {
	var b strings.Builder
	for _, instr := range prog.Instrs {
		switch argKinds[instr.Op] {
		case noArg:
			fmt.Fprintf(&b, "%s\n", instr.Op)
		default:
			fmt.Fprintf(&b, "%s %d\n", instr.Op, instr.Arg)
		}
	}
	return b.String()
}
