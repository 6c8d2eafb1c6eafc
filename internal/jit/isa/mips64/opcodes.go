package mips64

import "github.com/tetratelabs/baselinejit/internal/jit"

// Opcodes specific to mips64. Values are stable.
const (
	// OpcodeDmult multiplies into the HI/LO pair: Reg, Reg.
	OpcodeDmult jit.Opcode = jit.OpcodeBaseMIPS64 + iota
	// OpcodeMflo moves LO to a register: Reg(dst).
	OpcodeMflo
	// OpcodeNor is dst = ^(dst | src): Reg(dst), Reg(src).
	OpcodeNor
)

var vocabulary = jit.NewVocabulary(jit.ArchitectureMIPS64, "mips64", jit.OpcodeBaseMIPS64, []jit.OpcodeInfo{
	{Opcode: OpcodeDmult, Name: "mips64.dmult", Operands: []jit.OperandKind{jit.OperandKindReg, jit.OperandKindReg}, Effect: jit.EffectNone},
	{Opcode: OpcodeMflo, Name: "mips64.mflo", Operands: []jit.OperandKind{jit.OperandKindReg}, Effect: jit.EffectDefine},
	{Opcode: OpcodeNor, Name: "mips64.nor", Operands: []jit.OperandKind{jit.OperandKindReg, jit.OperandKindReg}, Effect: jit.EffectDefine},
})
