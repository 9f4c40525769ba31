package mama

import "github.com/jakobteuber/virtual-machines/pkg/diag"

// BasicValue is the machine's untyped 64-bit stack cell: an integer, a
// heap address, or a code/global offset, reinterpreted by whichever opcode
// reads it. This mirrors the source union's raw-bits reuse without resorting
// to unsafe casts.
type BasicValue int64

// AsInt views v as a signed integer.
func (v BasicValue) AsInt() int64 { return int64(v) }

// AsAddress views v as a heap address (an index into the Heap's arena).
func (v BasicValue) AsAddress() int { return int(v) }

// AsOffset views v as a non-negative code or environment offset.
func (v BasicValue) AsOffset() int { return int(v) }

// HeapValue is the tagged union of the four things a heap node can hold.
// The arena stores addresses as stable indices rather than raw pointers,
// per spec.md §9's guidance for languages without pointer-stability
// guarantees.
type HeapValue interface {
	heapValue()
}

// Boxed is a BasicValue lifted onto the heap so it can be referenced by
// address, produced by mkbasic and consumed by getbasic.
type Boxed struct {
	Value BasicValue
}

func (Boxed) heapValue() {}

// Closure pairs a code address with the global-environment snapshot it
// closes over.
type Closure struct {
	CodePointer   int
	GlobalPointer int
}

func (Closure) heapValue() {}

// Function is an unapplied procedure value: a code address, the number of
// arguments it expects, and the global environment it was defined in.
type Function struct {
	CodePointer   int
	ArgumentCount int
	GlobalPointer int
}

func (Function) heapValue() {}

// Vector is a heap-allocated contiguous run of BasicValue. The engine's
// global environment is the separate Engine.Global slice, not a Vector node.
type Vector struct {
	Elems []BasicValue
}

func (Vector) heapValue() {}

// Heap is an append-only arena: CreateNew never invalidates a previously
// returned address, matching spec.md §9's "heap without reclamation" note.
type Heap struct {
	nodes []HeapValue
}

// CreateNew appends v to the heap and returns its stable address.
func (h *Heap) CreateNew(v HeapValue) int {
	h.nodes = append(h.nodes, v)
	return len(h.nodes) - 1
}

// At returns the node at address, failing fatally if address is out of
// range — a code-pointer/heap-pointer corruption is a programming error in
// the input assembly, not a recoverable condition.
func (h *Heap) At(address int) HeapValue {
	if address < 0 || address >= len(h.nodes) {
		diag.Fail("heap address out of range", "heap.At", "address", address, "size", len(h.nodes))
	}
	return h.nodes[address]
}

// Boxed returns the address's node as a Boxed value, or fails fatally if the
// node holds a different variant. This is getbasic's type check.
func (h *Heap) Boxed(address int) Boxed {
	v, ok := h.At(address).(Boxed)
	if !ok {
		diag.Fail("heap node is not a boxed basic value", "getbasic", "address", address)
	}
	return v
}
