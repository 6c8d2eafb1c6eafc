package jit

import (
	"fmt"

	"github.com/google/btree"

	"github.com/tetratelabs/baselinejit/internal/asm"
)

// RelocationKind is the kind of a Relocation.
type RelocationKind byte

const (
	// RelocationRuntimeTableSlot marks the load of a runtime helper address from
	// slot Symbol of the table referenced by the runtime context. The runtime
	// must have populated that slot before the code runs.
	RelocationRuntimeTableSlot RelocationKind = iota + 1
)

// String implements fmt.Stringer.
func (k RelocationKind) String() string {
	switch k {
	case RelocationRuntimeTableSlot:
		return "runtime_table_slot"
	}
	return fmt.Sprintf("RelocationKind(%d)", k)
}

// Relocation is an entry of the side table describing what in Code depends on
// the runtime.
type Relocation struct {
	Kind RelocationKind
	// Offset is the offset in Code of the first instruction of the sequence.
	Offset int64
	Symbol uint32
}

// Metadata carries statistics of one compilation.
type Metadata struct {
	// SpillCount is the number of times a live value was moved from a scratch
	// register to its frame slot to free the register.
	SpillCount int
	// MaxStackDepth is the highest number of values simultaneously live on the bytecode stack.
	MaxStackDepth int
	// InstructionCount is the number of LIR instructions emitted, including prologue and epilogues.
	InstructionCount int
	// ScratchRegisterCount is the number of scratch roles the backend offered.
	ScratchRegisterCount int
}

// StackMapEntry says that from PC onwards, until the next entry, the stack
// pointer is StackPointerOffset bytes away from its value on entry.
type StackMapEntry struct {
	PC                 int64
	StackPointerOffset int64
}

// CompiledCode is the result of a successful compilation.
type CompiledCode struct {
	Arch        Architecture
	Code        []byte
	Relocations []Relocation
	Frame       FrameDescription
	// LIR is the instruction log, prologue and epilogues included.
	LIR      []Instruction
	Metadata Metadata

	vocabulary *Vocabulary
	stackMap   *btree.BTreeG[StackMapEntry]
}

func newStackMap() *btree.BTreeG[StackMapEntry] {
	return btree.NewG[StackMapEntry](8, func(a, b StackMapEntry) bool { return a.PC < b.PC })
}

// StackPointerOffset returns the distance of the stack pointer from its value
// on entry at the instruction boundary pc. This, together with Frame, is
// enough to unwind the frame at any instruction.
func (c *CompiledCode) StackPointerOffset(pc int64) (offset int64, ok bool) {
	if pc < 0 || pc >= int64(len(c.Code)) {
		return 0, false
	}
	c.stackMap.DescendLessOrEqual(StackMapEntry{PC: pc}, func(e StackMapEntry) bool {
		offset, ok = e.StackPointerOffset, true
		return false
	})
	return
}

// StackMap returns all the entries of the stack map in PC order.
func (c *CompiledCode) StackMap() []StackMapEntry {
	ret := make([]StackMapEntry, 0, c.stackMap.Len())
	c.stackMap.Ascend(func(e StackMapEntry) bool {
		ret = append(ret, e)
		return true
	})
	return ret
}

// LIRText returns the instruction log as text, one instruction per line.
func (c *CompiledCode) LIRText() []string {
	ret := make([]string, len(c.LIR))
	for i, in := range c.LIR {
		ret[i] = in.Format(c.vocabulary)
	}
	return ret
}

// Map copies Code into a new executable memory segment.
// The caller owns the segment and must call Unmap on it.
func (c *CompiledCode) Map() (*asm.CodeSegment, error) {
	seg := &asm.CodeSegment{}
	if err := seg.Map(c.Code); err != nil {
		return nil, err
	}
	return seg, nil
}
