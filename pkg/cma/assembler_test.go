package cma

import (
	"reflect"
	"testing"
)

func TestAssembleIsIdempotentThroughDisassembly(t *testing.T) {
	src := `
		loadc 5
		mark
		loadc fact
		call
		print
		halt
	fact:
		enter 5
		loadr -3
		loadc 1
		leq
		jumpz recurse
		loadc 1
		storer -3
		jump done
	recurse:
		loadr -3
		loadc 1
		sub
		mark
		loadc fact
		call
		loadr -3
		mul
		storer -3
	done:
		return
	`
	prog, err := Assemble(src)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	reassembled, err := Assemble(Disassemble(prog))
	if err != nil {
		t.Fatalf("Assemble(Disassemble(prog)): %v", err)
	}
	if !reflect.DeepEqual(prog.Instrs, reassembled.Instrs) {
		t.Errorf("disassembly round-trip changed the instruction stream:\n original    = %#v\n reassembled = %#v",
			prog.Instrs, reassembled.Instrs)
	}
}

func TestAssembleResolvesForwardAndBackwardLabels(t *testing.T) {
	prog, err := Assemble("jump skip\nloadc 1\nskip: loadc 2\nhalt")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	want := []Instr{
		{Op: Jump, Arg: 2},
		{Op: Loadc, Arg: 1},
		{Op: Loadc, Arg: 2},
		{Op: Halt},
	}
	if len(prog.Instrs) != len(want) {
		t.Fatalf("expected %d instructions, got %d", len(want), len(prog.Instrs))
	}
	for i, instr := range want {
		if prog.Instrs[i] != instr {
			t.Errorf("instr %d: expected %+v, got %+v", i, instr, prog.Instrs[i])
		}
	}
}

func TestAssembleDefaultsOptionalOperand(t *testing.T) {
	prog, err := Assemble("pop\nload\nstore\nhalt")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	for i, instr := range prog.Instrs[:3] {
		if instr.Arg != 1 {
			t.Errorf("instr %d: expected default arg 1, got %d", i, instr.Arg)
		}
	}
}

func TestAssembleExplicitOptionalOperand(t *testing.T) {
	prog, err := Assemble("pop 3\nhalt")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if prog.Instrs[0] != (Instr{Op: Pop, Arg: 3}) {
		t.Errorf("expected pop 3, got %+v", prog.Instrs[0])
	}
}

func TestAssembleUnknownMnemonicFails(t *testing.T) {
	if _, err := Assemble("frobnicate"); err == nil {
		t.Errorf("expected an error for an unknown mnemonic")
	}
}

func TestAssembleUnresolvedLabelFails(t *testing.T) {
	if _, err := Assemble("jump nowhere\nhalt"); err == nil {
		t.Errorf("expected an error for an unresolved label")
	}
}

func TestAssembleDuplicateLabelFails(t *testing.T) {
	if _, err := Assemble("a: halt\na: halt"); err == nil {
		t.Errorf("expected an error for a duplicate label")
	}
}

func TestAssembleMissingMandatoryOperandFails(t *testing.T) {
	if _, err := Assemble("loadc\nhalt"); err == nil {
		t.Errorf("expected an error for a missing mandatory operand")
	}
}

func TestAssembleIgnoresComments(t *testing.T) {
	prog, err := Assemble("// a comment\nloadc 1 // trailing\nhalt // end")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(prog.Instrs) != 2 {
		t.Fatalf("expected 2 instructions, got %d", len(prog.Instrs))
	}
}
