package asm

import "fmt"

// Register represents architecture-specific registers.
//
// Note: the values follow the numbering of golang-asm's per-architecture
// packages, which use int16 for register numbers.
type Register int16

// NilRegister is the only architecture-independent register, and
// can be used to indicate that no register is specified.
const NilRegister Register = 0

// ConstantValue is the constant operand carried by an instruction.
type ConstantValue = int64

// NodeOffsetInBinary represents an offset of this node in the final binary.
type NodeOffsetInBinary = uint64

// Node represents a node in the linked list of assembled operations.
type Node interface {
	fmt.Stringer

	// OffsetInBinary returns the offset of this node in the assembled binary.
	// Only valid after the assembler has generated the code.
	OffsetInBinary() NodeOffsetInBinary

	// AssignSourceConstant assigns the given constant as the source operand.
	// This is used for operands whose value is only known after the whole
	// function has been traversed, such as the size of a native stack frame.
	AssignSourceConstant(value ConstantValue)
}

// AssemblerBase is the common interface for assemblers among multiple architectures.
type AssemblerBase interface {
	// Assemble produces the final binary for the assembled operations.
	Assemble() ([]byte, error)

	// AddOnGenerateCallBack registers a callback invoked with the generated
	// code, once all node offsets are final.
	AddOnGenerateCallBack(func([]byte) error)
}
