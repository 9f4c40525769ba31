package mama

import (
	"encoding/binary"

	"github.com/jakobteuber/virtual-machines/pkg/diag"
	"github.com/jakobteuber/virtual-machines/pkg/scan"
)

// Program is the output of Assemble: a flat byte-oriented instruction
// stream, ready to feed a new Engine.
type Program struct {
	Code []byte
}

type backpatch struct {
	offset int
	label  string
	line   int
}

// Assemble runs the single-pass, end-of-parse-backpatch MaMa assembler
// described in spec.md §4.2: each instruction byte (and any immediate) is
// emitted immediately; a forward label reference emits an 8-byte zero
// placeholder and is recorded for patching once every label in the source
// has been seen.
func Assemble(text string) (prog *Program, err error) {
	defer func() { err = diag.Recover(recover(), err) }()

	var code []byte
	labels := make(map[string]int)
	var patches []backpatch

	s := scan.New(text)
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
			labels[word] = len(code)
			continue
		}
		op, ok := ParseOpcode(word)
		if !ok {
			diag.FailParse(line, "unknown mnemonic %q", word)
		}
		code = append(code, byte(op))
		if HasImmediate(op) {
			code = appendImmediate(code, &patches, labels, s, op, line)
		}
	}

	for _, p := range patches {
		addr, ok := labels[p.label]
		if !ok {
			diag.FailParse(p.line, "unresolved label %q", p.label)
		}
		if p.offset < 0 || p.offset+immediateSize > len(code) {
			diag.Fail("backpatch position out of range", "Assemble", "offset", p.offset)
		}
		binary.LittleEndian.PutUint64(code[p.offset:p.offset+immediateSize], uint64(addr))
	}

	return &Program{Code: code}, nil
}

// appendImmediate emits op's 8-byte immediate. A numeric literal is encoded
// directly; an identifier is treated as a label reference and stored as a
// code offset, resolved now if already known or backpatched otherwise.
func appendImmediate(code []byte, patches *[]backpatch, labels map[string]int, s *scan.Scanner, op Opcode, line int) []byte {
	s.Skip()
	switch {
	case isNumberStart(s.Peek()):
		v := s.ReadNumber64()
		return binary.LittleEndian.AppendUint64(code, uint64(v))
	case isIdentStart(s.Peek()):
		name := s.ReadWord()
		if addr, ok := labels[name]; ok {
			return binary.LittleEndian.AppendUint64(code, uint64(addr))
		}
		offset := len(code)
		code = binary.LittleEndian.AppendUint64(code, 0)
		*patches = append(*patches, backpatch{offset: offset, label: name, line: line})
		return code
	default:
		diag.FailParse(line, "%s expects an operand, found %q", op, string(s.Peek()))
		return code
	}
}

func isNumberStart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '+' || c == '-'
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}
