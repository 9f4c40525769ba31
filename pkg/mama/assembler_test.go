package mama

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestAssembleIsIdempotentThroughDisassembly(t *testing.T) {
	src := `
		loadc 10
	loop:
		loadc 1
		sub
		dup
		print
		dup
		jumpz end
		jump loop
	end:
		halt
	`
	prog, err := Assemble(src)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	reassembled, err := Assemble(Disassemble(prog))
	if err != nil {
		t.Fatalf("Assemble(Disassemble(prog)): %v", err)
	}
	if !bytes.Equal(prog.Code, reassembled.Code) {
		t.Errorf("disassembly round-trip changed the code stream:\n original    = %v\n reassembled = %v",
			prog.Code, reassembled.Code)
	}
}

func TestAssembleForwardLabelBackpatch(t *testing.T) {
	prog, err := Assemble("jump skip\nloadc 1\nskip: loadc 2\nhalt")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	// jump(1) + u64 immediate(8) + loadc(1) + i64(8) = 18, the offset of
	// the "skip" label.
	wantJumpTarget := uint64(1 + immediateSize + 1 + immediateSize)
	if prog.Code[0] != byte(Jump) {
		t.Fatalf("expected first byte to be jump, got %d", prog.Code[0])
	}
	got := binary.LittleEndian.Uint64(prog.Code[1 : 1+immediateSize])
	if got != wantJumpTarget {
		t.Errorf("jump target = %d, want %d", got, wantJumpTarget)
	}
}

func TestAssembleBackwardLabel(t *testing.T) {
	prog, err := Assemble("loop: loadc 1\njump loop")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	jumpOffset := 1 + immediateSize
	got := binary.LittleEndian.Uint64(prog.Code[jumpOffset+1 : jumpOffset+1+immediateSize])
	if got != 0 {
		t.Errorf("jump target = %d, want 0 (the loop label)", got)
	}
}

func TestAssembleNegativeImmediate(t *testing.T) {
	prog, err := Assemble("loadc -5\nhalt")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	v := int64(binary.LittleEndian.Uint64(prog.Code[1 : 1+immediateSize]))
	if v != -5 {
		t.Errorf("loadc immediate = %d, want -5", v)
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
