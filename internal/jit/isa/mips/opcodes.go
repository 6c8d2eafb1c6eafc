package mips

import "github.com/tetratelabs/baselinejit/internal/jit"

// Opcodes specific to mips. Values are stable.
const (
	// OpcodeMult multiplies into the HI/LO pair: Reg, Reg.
	OpcodeMult jit.Opcode = jit.OpcodeBaseMIPS + iota
	// OpcodeMflo moves LO to a register: Reg(dst).
	OpcodeMflo
	// OpcodeNor is dst = ^(dst | src): Reg(dst), Reg(src).
	OpcodeNor
)

var vocabulary = jit.NewVocabulary(jit.ArchitectureMIPS32, "mips", jit.OpcodeBaseMIPS, []jit.OpcodeInfo{
	{Opcode: OpcodeMult, Name: "mips.mult", Operands: []jit.OperandKind{jit.OperandKindReg, jit.OperandKindReg}, Effect: jit.EffectNone},
	{Opcode: OpcodeMflo, Name: "mips.mflo", Operands: []jit.OperandKind{jit.OperandKindReg}, Effect: jit.EffectDefine},
	{Opcode: OpcodeNor, Name: "mips.nor", Operands: []jit.OperandKind{jit.OperandKindReg, jit.OperandKindReg}, Effect: jit.EffectDefine},
})
