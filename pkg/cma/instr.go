// Package cma implements the CMa virtual machine: a C-like stack machine
// with a flat integer-addressed memory, frame-pointer/extreme-pointer/
// new-pointer activation discipline, and the two-pass assembler that
// produces its instruction stream from textual assembly.
package cma

import (
	"strings"

	"github.com/jakobteuber/virtual-machines/pkg/diag"
)

// Opcode identifies one of the closed set of CMa instructions.
type Opcode uint8

const (
	Debug Opcode = iota
	Loadc
	Add
	Sub
	Mul
	Div
	Mod
	And
	Or
	Xor
	Eq
	Neq
	Le
	Leq
	Gr
	Geq
	Not
	Neg
	Load
	Store
	Loada
	Storea
	Pop
	Jump
	Jumpz
	Jumpi
	Dup
	Alloc
	NewOp
	Mark
	Call
	Slide
	Enter
	Return
	Loadrc
	Loadr
	Storer
	Halt
	Print
	numOpcodes
)

var opcodeNames = [numOpcodes]string{
	Debug: "debug", Loadc: "loadc", Add: "add", Sub: "sub", Mul: "mul",
	Div: "div", Mod: "mod", And: "and", Or: "or", Xor: "xor", Eq: "eq",
	Neq: "neq", Le: "le", Leq: "leq", Gr: "gr", Geq: "geq", Not: "not",
	Neg: "neg", Load: "load", Store: "store", Loada: "loada",
	Storea: "storea", Pop: "pop", Jump: "jump", Jumpz: "jumpz",
	Jumpi: "jumpi", Dup: "dup", Alloc: "alloc", NewOp: "new", Mark: "mark",
	Call: "call", Slide: "slide", Enter: "enter", Return: "return",
	Loadrc: "loadrc", Loadr: "loadr", Storer: "storer", Halt: "halt",
	Print: "print",
}

var opcodeByName map[string]Opcode

func init() {
	opcodeByName = make(map[string]Opcode, numOpcodes)
	for op, name := range opcodeNames {
		opcodeByName[name] = Opcode(op)
	}
}

// String returns the canonical lower-case mnemonic for op.
func (op Opcode) String() string {
	if op >= numOpcodes {
		diag.Fail("bad opcode tag", "op", "value", op)
	}
	return opcodeNames[op]
}

// ParseOpcode resolves a mnemonic (case-insensitively) to its Opcode. For an
// unknown mnemonic it returns false; the assembler turns that into a parse
// error.
func ParseOpcode(name string) (Opcode, bool) {
	op, ok := opcodeByName[strings.ToLower(name)]
	return op, ok
}

// argKind classifies how many operand tokens an opcode consumes, per
// spec.md §4.2.
type argKind uint8

const (
	noArg argKind = iota
	mandatoryArg
	optionalArg
)

var argKinds = [numOpcodes]argKind{
	Loadc: mandatoryArg,
	Load:  optionalArg, Store: optionalArg,
	Loada: mandatoryArg, Storea: mandatoryArg,
	Pop:   optionalArg,
	Jump:  mandatoryArg, Jumpz: mandatoryArg, Jumpi: mandatoryArg,
	Alloc: mandatoryArg,
	Slide: mandatoryArg, Enter: mandatoryArg,
	Loadrc: mandatoryArg, Loadr: mandatoryArg, Storer: mandatoryArg,
}

// Instr is a single CMa instruction: an opcode and its one optional 32-bit
// immediate.
type Instr struct {
	Op  Opcode
	Arg int32
}
