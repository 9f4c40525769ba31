package mama

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/jakobteuber/virtual-machines/pkg/diag"
)

// Disassemble renders prog's byte stream back into textual MaMa assembly:
// one mnemonic per line, any immediate printed as a plain decimal literal
// (never reconstructed as a label) so that Assembling the result reproduces
// the exact same byte stream, satisfying spec.md §8's assembler idempotence
// property. jump/jumpz immediates are already resolved absolute byte offsets
// by the time they reach the code stream, and the assembler accepts a bare
// number wherever it accepts a label, so no label synthesis is needed.
func Disassemble(prog *Program) string {
	var b strings.Builder
	code := prog.Code
	pc := 0
	for pc < len(code) {
		op := Opcode(code[pc])
		pc++
		if op >= numOpcodes {
			diag.Fail("undefined opcode", "Disassemble", "op", op)
		}
		if !HasImmediate(op) {
			fmt.Fprintf(&b, "%s\n", op)
			continue
		}
		if pc+immediateSize > len(code) {
			diag.Fail("code stream truncated reading immediate", "Disassemble", "pc", pc)
		}
		v := int64(binary.LittleEndian.Uint64(code[pc : pc+immediateSize]))
		pc += immediateSize
		fmt.Fprintf(&b, "%s %d\n", op, v)
	}
	return b.String()
}
