package cma

import (
	"bytes"
	"testing"
)

func run(t *testing.T, src string) (int32, string) {
	t.Helper()
	prog, err := Assemble(src)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	e := New(prog)
	var out bytes.Buffer
	e.Output = &out
	code, err := e.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return code, out.String()
}

func TestEmptyProgramHalts(t *testing.T) {
	code, _ := run(t, "halt")
	if code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
}

func TestArithmeticAndPrint(t *testing.T) {
	_, out := run(t, `
		loadc 60
		loadc 50
		sub
		print
		halt
	`)
	if out != "10\n" {
		t.Errorf("expected %q, got %q", "10\n", out)
	}
}

func TestCountDownLoop(t *testing.T) {
	_, out := run(t, `
		loadc 10
	  loop: loadc 1
		sub
		dup
		print
		dup
		jumpz end
		jump loop
	  end:  halt
	`)
	want := "9\n8\n7\n6\n5\n4\n3\n2\n1\n0\n"
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestJumptableSwitch(t *testing.T) {
	_, out := run(t, `
		loadc 2 dup loadc 0 geq jumpz A dup loadc 3 le jumpz A jumpi B
		A: pop loadc 3 jumpi B
		C0: loadc 0 print jump D   C1: loadc 1 print jump D
		C2: loadc 2 print jump D   C3: loadc 3 print jump D
		B: jump C0 jump C1 jump C2 jump C3
		D: halt
	`)
	if out != "2\n" {
		t.Errorf("expected %q, got %q", "2\n", out)
	}
}

func TestConditionalBranch(t *testing.T) {
	_, out := run(t, "loadc 1 loadc 10 gr jumpz E loadc 0 print E: loadc 1 print halt")
	if out != "1\n" {
		t.Errorf("expected %q, got %q", "1\n", out)
	}
}

func TestHeapAllocateStoreReload(t *testing.T) {
	_, out := run(t, "loadc 100 new dup loadc 11 loada 0 store pop load print halt")
	if out != "11\n" {
		t.Errorf("expected %q, got %q", "11\n", out)
	}
}

func TestRecursiveFactorial(t *testing.T) {
	// factorial(5) = 120, via mark/call/enter/return. The callee overwrites
	// its own argument slot (FP-3) with the result via storer, so return's
	// SP := FP-3 leaves that result as the new stack top with no slide
	// needed at the call site.
	_, out := run(t, `
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
	`)
	if out != "120\n" {
		t.Errorf("expected %q, got %q", "120\n", out)
	}
}

func TestJumpzPopsOnBothPaths(t *testing.T) {
	// Taken path: jumpz pops the 0, so print sees the 7 below it.
	_, out := run(t, "loadc 7 loadc 0 jumpz yes loadc 1 print yes: print halt")
	if out != "7\n" {
		t.Errorf("taken path: expected %q, got %q", "7\n", out)
	}
	// Fall-through path: jumpz pops the 1, so print sees the 7 below it.
	_, out = run(t, "loadc 7 loadc 1 jumpz no print halt no: halt")
	if out != "7\n" {
		t.Errorf("fall-through path: expected %q, got %q", "7\n", out)
	}
}

func TestNewExceedingFreeHeapReturnsZeroWithoutMutatingNewPointer(t *testing.T) {
	e := &Engine{sp: 0, ep: 10, np: 20}
	e.Memory[0] = 20 // requested size leaves no room above ep (np-size = 0 <= ep = 10)

	e.newHeapBlock()

	if e.Memory[0] != 0 {
		t.Errorf("expected failed new to push 0, got %d", e.Memory[0])
	}
	if e.np != 20 {
		t.Errorf("expected newPointer left unmutated at 20, got %d", e.np)
	}
}

func TestDivisionByZeroFaults(t *testing.T) {
	prog, err := Assemble("loadc 1\nloadc 0\ndiv\nhalt")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	e := New(prog)
	if _, err := e.Run(); err == nil {
		t.Errorf("expected division-by-zero fault, got nil error")
	}
}

func TestDebugDump(t *testing.T) {
	_, out := run(t, "loadc 7\nloadc 9\ndebug\nhalt")
	if out == "" {
		t.Errorf("expected non-empty debug dump")
	}
}
