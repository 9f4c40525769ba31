// Package scan implements the lexical scanner shared by the CMa and MaMa
// assemblers: a byte cursor over borrowed source text that recognizes
// whitespace, line comments, identifiers, numbers, and the colon that
// terminates a label definition.
package scan

import (
	"strconv"

	"github.com/jakobteuber/virtual-machines/pkg/diag"
)

// Scanner is a pure cursor over a borrowed string: advancing it has no
// side effect beyond moving the cursor, so the CMa assembler can walk the
// same text twice (gather labels, then emit) with two independent Scanners.
type Scanner struct {
	text string
	pos  int
	line int
}

// New returns a Scanner positioned at the start of text.
func New(text string) *Scanner {
	return &Scanner{text: text, line: 1}
}

// Line returns the 1-based line number of the cursor's current position.
func (s *Scanner) Line() int { return s.line }

// AtEnd reports whether the cursor has consumed all of the input.
func (s *Scanner) AtEnd() bool { return s.pos >= len(s.text) }

// Peek returns the byte at the cursor without advancing, or 0 at end of
// input.
func (s *Scanner) Peek() byte {
	if s.AtEnd() {
		return 0
	}
	return s.text[s.pos]
}

// PeekAt returns the byte offset bytes past the cursor without advancing,
// or 0 past the end of input. Used for the one-byte-of-lookahead needed to
// decide whether an optional CMa operand is present.
func (s *Scanner) PeekAt(offset int) byte {
	i := s.pos + offset
	if i < 0 || i >= len(s.text) {
		return 0
	}
	return s.text[i]
}

// Advance consumes and returns the byte at the cursor, or 0 at end of input.
func (s *Scanner) Advance() byte {
	c := s.Peek()
	if c == '\n' {
		s.line++
	}
	if !s.AtEnd() {
		s.pos++
	}
	return c
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

// Skip consumes whitespace and line comments ("// ... \n") until it reaches
// meaningful input or the end of the text. An unterminated comment at end
// of file (no trailing newline) is tolerated, per spec.md §4.2's documented
// tie-break.
func (s *Scanner) Skip() {
	for !s.AtEnd() {
		switch {
		case isSpace(s.Peek()):
			s.Advance()
		case s.Peek() == '/' && s.PeekAt(1) == '/':
			for !s.AtEnd() && s.Peek() != '\n' {
				s.Advance()
			}
		default:
			return
		}
	}
}

// ReadWord skips leading whitespace/comments, then reads a maximal
// identifier `[A-Za-z_][A-Za-z0-9_]*`. It returns an empty string if the
// cursor isn't at an identifier start.
func (s *Scanner) ReadWord() string {
	s.Skip()
	start := s.pos
	if !isIdentStart(s.Peek()) {
		return ""
	}
	s.Advance()
	for isIdentPart(s.Peek()) {
		s.Advance()
	}
	return s.text[start:s.pos]
}

// ReadNumber skips leading whitespace/comments, then reads an optionally
// signed decimal literal and parses it as a 32-bit signed integer, for
// CMa's 32-bit memory cells. Overflow or a malformed literal is reported
// through diag.FailParse.
func (s *Scanner) ReadNumber() int32 {
	return int32(s.readDecimal(32))
}

// ReadNumber64 is ReadNumber's 64-bit counterpart, for MaMa's immediates.
func (s *Scanner) ReadNumber64() int64 {
	return s.readDecimal(64)
}

func (s *Scanner) readDecimal(bitSize int) int64 {
	s.Skip()
	line := s.line
	start := s.pos
	if s.Peek() == '+' || s.Peek() == '-' {
		s.Advance()
	}
	digits := 0
	for isDigit(s.Peek()) {
		s.Advance()
		digits++
	}
	literal := s.text[start:s.pos]
	if digits == 0 {
		diag.FailParse(line, "malformed number literal %q", literal)
	}
	value, err := strconv.ParseInt(literal, 10, bitSize)
	if err != nil {
		diag.FailParse(line, "number literal %q out of %d-bit range", literal, bitSize)
	}
	return value
}

// ConsumeColon skips leading whitespace/comments, and if the next byte is
// ':', consumes it and returns true (the preceding word was a label
// definition). Otherwise it leaves the cursor untouched and returns false.
func (s *Scanner) ConsumeColon() bool {
	s.Skip()
	if s.Peek() != ':' {
		return false
	}
	s.Advance()
	return true
}
