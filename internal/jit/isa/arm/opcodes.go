package arm

import "github.com/tetratelabs/baselinejit/internal/jit"

// Opcodes specific to arm. Values are stable.
const (
	// OpcodePush stores a register with pre-decrement of the stack pointer: Reg.
	OpcodePush jit.Opcode = jit.OpcodeBaseARM + iota
	// OpcodePop loads a register with post-increment of the stack pointer: Reg.
	OpcodePop
	// OpcodeBic is dst &^= src: Reg(dst), Reg(src).
	OpcodeBic
)

var vocabulary = jit.NewVocabulary(jit.ArchitectureARM32, "arm", jit.OpcodeBaseARM, []jit.OpcodeInfo{
	{Opcode: OpcodePush, Name: "arm.push", Operands: []jit.OperandKind{jit.OperandKindReg}, Effect: jit.EffectPush},
	{Opcode: OpcodePop, Name: "arm.pop", Operands: []jit.OperandKind{jit.OperandKindReg}, Effect: jit.EffectPop},
	{Opcode: OpcodeBic, Name: "arm.bic", Operands: []jit.OperandKind{jit.OperandKindReg, jit.OperandKindReg}, Effect: jit.EffectDefine},
})
