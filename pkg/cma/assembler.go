package cma

import (
	"github.com/jakobteuber/virtual-machines/pkg/diag"
	"github.com/jakobteuber/virtual-machines/pkg/scan"
)

// Program is the output of Assemble: a flat vector of Instr, ready to feed
// a new Engine.
type Program struct {
	Instrs []Instr
}

// Assemble runs the two-pass CMa assembler described in spec.md §4.2 over
// text. Pass 1 walks the token stream counting instructions and recording
// each label's instruction index; pass 2 walks it again, resolving every
// label operand through the table built in pass 1 and emitting the final
// (opcode, arg) pairs. A label referenced but never defined, a duplicate
// label definition, an unknown mnemonic, a malformed number, or a missing
// mandatory operand aborts with the corresponding error.
func Assemble(text string) (prog *Program, err error) {
	defer func() { err = diag.Recover(recover(), err) }()

	labels := gatherLabels(text)
	instrs := emitInstructions(text, labels)
	return &Program{Instrs: instrs}, nil
}

// gatherLabels is assembler pass 1: it counts instructions to learn each
// label's instruction index, without emitting anything.
func gatherLabels(text string) map[string]int32 {
	labels := make(map[string]int32)
	s := scan.New(text)
	var index int32

	for {
		s.Skip()
		if s.AtEnd() {
			break
		}
		line := s.Line()
		word := s.ReadWord()
		if word == "" {
			diag.FailParse(line, "expected a mnemonic or label, found %q", string(s.Peek()))
		}
		if s.ConsumeColon() {
			if _, dup := labels[word]; dup {
				diag.FailParse(line, "duplicate label %q", word)
			}
			labels[word] = index
			continue
		}
		op, ok := ParseOpcode(word)
		if !ok {
			diag.FailParse(line, "unknown mnemonic %q", word)
		}
		skipOperand(s, op, line)
		index++
	}
	return labels
}

// skipOperand consumes pass 1's view of an instruction's operand tokens,
// without caring about their value — only about how many bytes of input
// they occupy, since pass 1 never resolves label addresses.
func skipOperand(s *scan.Scanner, op Opcode, line int) {
	switch argKinds[op] {
	case mandatoryArg:
		consumeOperandToken(s, line, op)
	case optionalArg:
		s.Skip()
		if isNumberStart(s.Peek()) {
			s.ReadNumber()
		}
	}
}

func isNumberStart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '+' || c == '-'
}

func isOperandStart(c byte) bool {
	return isNumberStart(c) ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func consumeOperandToken(s *scan.Scanner, line int, op Opcode) {
	s.Skip()
	switch {
	case s.Peek() == '-' || s.Peek() == '+' || (s.Peek() >= '0' && s.Peek() <= '9'):
		s.ReadNumber()
	case isOperandStart(s.Peek()):
		s.ReadWord()
	default:
		diag.FailParse(line, "%s expects an operand, found %q", op, string(s.Peek()))
	}
}

// emitInstructions is assembler pass 2: given the label table pass 1 built,
// it walks the text once more and emits the resolved instruction stream.
func emitInstructions(text string, labels map[string]int32) []Instr {
	var instrs []Instr
	s := scan.New(text)

	for {
		s.Skip()
		if s.AtEnd() {
			break
		}
		line := s.Line()
		word := s.ReadWord()
		if s.ConsumeColon() {
			continue
		}
		op, _ := ParseOpcode(word)
		arg, has := readOperand(s, op, line, labels)
		if !has {
			arg = 0
			if argKinds[op] == optionalArg {
				arg = 1
			}
		}
		instrs = append(instrs, Instr{Op: op, Arg: arg})
	}
	return instrs
}

func readOperand(s *scan.Scanner, op Opcode, line int, labels map[string]int32) (int32, bool) {
	kind := argKinds[op]
	if kind == noArg {
		return 0, false
	}
	s.Skip()
	if kind == optionalArg {
		if !isNumberStart(s.Peek()) {
			return 0, false
		}
		return s.ReadNumber(), true
	}
	switch {
	case s.Peek() == '-' || s.Peek() == '+' || (s.Peek() >= '0' && s.Peek() <= '9'):
		return s.ReadNumber(), true
	case isOperandStart(s.Peek()):
		name := s.ReadWord()
		addr, ok := labels[name]
		if !ok {
			diag.FailParse(line, "unresolved label %q", name)
		}
		return addr, true
	default:
		diag.FailParse(line, "%s expects an operand, found %q", op, string(s.Peek()))
		return 0, false
	}
}
