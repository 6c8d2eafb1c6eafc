package jit

import (
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/tetratelabs/baselinejit/internal/asm"
)

// testTable and testVocabulary describe a minimal push/pop architecture on
// amd64 registers, without depending on any isa package.
var (
	testTableConfig = RegisterTableConfig{
		Arch:           ArchitectureX64,
		Frame:          x86.REG_BP,
		Stack:          x86.REG_SP,
		PC:             x86.REG_R12,
		Return:         x86.REG_AX,
		Args:           []asm.Register{x86.REG_DI, x86.REG_SI},
		Scratch:        []asm.Register{x86.REG_R10, x86.REG_R11},
		CalleeSaved:    []Role{PCReg},
		WordSize:       8,
		StackAlignment: 16,
	}
	testTable = NewRegisterTable(testTableConfig)

	testOpcodePush = OpcodeBaseAMD64
	testOpcodePop  = OpcodeBaseAMD64 + 1

	testVocabulary = NewVocabulary(ArchitectureX64, "test", OpcodeBaseAMD64, []OpcodeInfo{
		{Opcode: testOpcodePush, Name: "test.push", Operands: []OperandKind{OperandKindReg}, Effect: EffectPush},
		{Opcode: testOpcodePop, Name: "test.pop", Operands: []OperandKind{OperandKindReg}, Effect: EffectPop},
	})
)
