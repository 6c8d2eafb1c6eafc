package jit

import (
	"fmt"
	"strings"
)

// Operand is an operand of an Instruction. Registers are always named by role.
type Operand struct {
	Kind OperandKind
	// Role is the register for OperandKindReg, and the base for OperandKindMem.
	Role Role
	// Imm is the constant for OperandKindImm and the offset for OperandKindMem.
	Imm int64
	// FrameScale is non-zero when this operand is the frame size multiplied by
	// FrameScale plus Imm. The frame size is only known at Finalize.
	FrameScale int64
}

// Reg returns a register operand.
func Reg(r Role) Operand {
	return Operand{Kind: OperandKindReg, Role: r}
}

// Imm returns a constant operand.
func Imm(v int64) Operand {
	return Operand{Kind: OperandKindImm, Imm: v}
}

// Mem returns the memory operand [base + offset].
func Mem(base Role, offset int64) Operand {
	return Operand{Kind: OperandKindMem, Role: base, Imm: offset}
}

// FrameSize returns a constant operand equal to scale times the frame size.
func FrameSize(scale int64) Operand {
	return Operand{Kind: OperandKindImm, FrameScale: scale}
}

// IsFrameSize returns true if the value of o depends on the frame size.
func (o Operand) IsFrameSize() bool {
	return o.FrameScale != 0
}

// Negative returns true if o is a negative constant.
func (o Operand) Negative() bool {
	if o.IsFrameSize() {
		return o.FrameScale < 0
	}
	return o.Imm < 0
}

// Negate returns -o.
func (o Operand) Negate() Operand {
	o.Imm, o.FrameScale = -o.Imm, -o.FrameScale
	return o
}

// Resolve returns the constant value of o for the given frame size.
func (o Operand) Resolve(frameSize int64) int64 {
	return o.Imm + o.FrameScale*frameSize
}

// String implements fmt.Stringer.
func (o Operand) String() string {
	switch o.Kind {
	case OperandKindReg:
		return o.Role.String()
	case OperandKindImm:
		if o.IsFrameSize() {
			var ret string
			switch o.FrameScale {
			case 1:
				ret = "frame"
			case -1:
				ret = "-frame"
			default:
				ret = fmt.Sprintf("%d*frame", o.FrameScale)
			}
			if o.Imm != 0 {
				ret += fmt.Sprintf("%+d", o.Imm)
			}
			return ret
		}
		return fmt.Sprintf("$%d", o.Imm)
	case OperandKindMem:
		return fmt.Sprintf("%d(%s)", o.Imm, o.Role)
	}
	return "_"
}

// Instruction is one emitted LIR instruction.
type Instruction struct {
	Op       Opcode
	Operands []Operand
}

// Inst returns an Instruction.
func Inst(op Opcode, operands ...Operand) Instruction {
	return Instruction{Op: op, Operands: operands}
}

// Format returns the text of i using the names of v.
func (i Instruction) Format(v *Vocabulary) string {
	if len(i.Operands) == 0 {
		return v.Name(i.Op)
	}
	ops := make([]string, len(i.Operands))
	for j, o := range i.Operands {
		ops[j] = o.String()
	}
	return v.Name(i.Op) + " " + strings.Join(ops, ", ")
}
