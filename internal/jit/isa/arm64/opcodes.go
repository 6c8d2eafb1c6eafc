package arm64

import (
	"github.com/tetratelabs/baselinejit/internal/jit"
	"github.com/tetratelabs/baselinejit/internal/platform"
)

// Opcodes specific to arm64. Values are stable.
const (
	// OpcodeStp stores a pair of registers: Reg, Reg, Mem.
	OpcodeStp jit.Opcode = jit.OpcodeBaseARM64 + iota
	// OpcodeLdp loads a pair of registers: Reg, Reg, Mem.
	OpcodeLdp
	// OpcodeMvn is dst = ^src: Reg(dst), Reg(src).
	OpcodeMvn
	// OpcodeLdadd atomically adds src to the word at Mem and loads its previous
	// value into dst: Reg(dst), Reg(src), Mem. The memory offset must be zero.
	OpcodeLdadd
)

var pairOperands = []jit.OperandKind{jit.OperandKindReg, jit.OperandKindReg, jit.OperandKindMem}

var vocabulary = jit.NewVocabulary(jit.ArchitectureARM64, "arm64", jit.OpcodeBaseARM64, []jit.OpcodeInfo{
	{Opcode: OpcodeStp, Name: "arm64.stp", Operands: pairOperands, Effect: jit.EffectStorePair},
	{Opcode: OpcodeLdp, Name: "arm64.ldp", Operands: pairOperands, Effect: jit.EffectLoadPair},
	{Opcode: OpcodeMvn, Name: "arm64.mvn", Operands: []jit.OperandKind{jit.OperandKindReg, jit.OperandKindReg}, Effect: jit.EffectDefine},
	{
		Opcode:   OpcodeLdadd,
		Name:     "arm64.ldadd",
		Operands: pairOperands,
		Effect:   jit.EffectLoadModify,
		Feature:  platform.CpuFeatureArm64Atomic,
	},
})
