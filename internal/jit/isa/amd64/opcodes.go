package amd64

import (
	"github.com/tetratelabs/baselinejit/internal/jit"
	"github.com/tetratelabs/baselinejit/internal/platform"
)

// Opcodes specific to amd64. Values are stable.
const (
	// OpcodePush pushes a register: Reg.
	OpcodePush jit.Opcode = jit.OpcodeBaseAMD64 + iota
	// OpcodePop pops a register: Reg.
	OpcodePop
	// OpcodeLea computes an address: Reg(dst), Mem.
	OpcodeLea
	// OpcodePopcnt counts the set bits: Reg(dst), Reg(src).
	OpcodePopcnt
	// OpcodeTzcnt counts the trailing zero bits: Reg(dst), Reg(src).
	OpcodeTzcnt
)

var vocabulary = jit.NewVocabulary(jit.ArchitectureX64, "amd64", jit.OpcodeBaseAMD64, []jit.OpcodeInfo{
	{Opcode: OpcodePush, Name: "amd64.push", Operands: []jit.OperandKind{jit.OperandKindReg}, Effect: jit.EffectPush},
	{Opcode: OpcodePop, Name: "amd64.pop", Operands: []jit.OperandKind{jit.OperandKindReg}, Effect: jit.EffectPop},
	{Opcode: OpcodeLea, Name: "amd64.lea", Operands: []jit.OperandKind{jit.OperandKindReg, jit.OperandKindMem}, Effect: jit.EffectDefine},
	{
		Opcode:   OpcodePopcnt,
		Name:     "amd64.popcnt",
		Operands: []jit.OperandKind{jit.OperandKindReg, jit.OperandKindReg},
		Effect:   jit.EffectDefine,
		Feature:  platform.CpuFeatureAmd64Popcnt,
	},
	{
		Opcode:   OpcodeTzcnt,
		Name:     "amd64.tzcnt",
		Operands: []jit.OperandKind{jit.OperandKindReg, jit.OperandKindReg},
		Effect:   jit.EffectDefine,
		Feature:  platform.CpuFeatureAmd64BMI1,
	},
})
