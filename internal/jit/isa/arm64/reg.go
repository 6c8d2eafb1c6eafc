package arm64

import (
	"github.com/twitchyliquid64/golang-asm/obj/arm64"

	"github.com/tetratelabs/baselinejit/internal/asm"
	"github.com/tetratelabs/baselinejit/internal/jit"
)

// registers follows AAPCS64. R9-R15 are caller-saved temporaries and R19 is
// the first callee-saved register, which keeps PCReg alive across runtime calls.
var registers = jit.NewRegisterTable(jit.RegisterTableConfig{
	Arch:   jit.ArchitectureARM64,
	Frame:  arm64.REGFP,
	Stack:  arm64.REGSP,
	Link:   arm64.REGLINK,
	PC:     arm64.REG_R19,
	Return: arm64.REG_R0,
	Args: []asm.Register{
		arm64.REG_R0, arm64.REG_R1, arm64.REG_R2, arm64.REG_R3,
		arm64.REG_R4, arm64.REG_R5, arm64.REG_R6, arm64.REG_R7,
	},
	Scratch:        []asm.Register{arm64.REG_R9, arm64.REG_R10, arm64.REG_R11, arm64.REG_R12},
	CalleeSaved:    []jit.Role{jit.PCReg},
	WordSize:       8,
	StackAlignment: 16,
})
