package x86

import "github.com/tetratelabs/baselinejit/internal/jit"

// Opcodes specific to x86. Values are stable.
const (
	OpcodePush jit.Opcode = jit.OpcodeBaseX86 + iota
	OpcodePop
	OpcodeLea
)

var vocabulary = jit.NewVocabulary(jit.ArchitectureX86, "x86", jit.OpcodeBaseX86, []jit.OpcodeInfo{
	{Opcode: OpcodePush, Name: "x86.push", Operands: []jit.OperandKind{jit.OperandKindReg}, Effect: jit.EffectPush},
	{Opcode: OpcodePop, Name: "x86.pop", Operands: []jit.OperandKind{jit.OperandKindReg}, Effect: jit.EffectPop},
	{Opcode: OpcodeLea, Name: "x86.lea", Operands: []jit.OperandKind{jit.OperandKindReg, jit.OperandKindMem}, Effect: jit.EffectDefine},
})
