package mips64

import (
	"github.com/twitchyliquid64/golang-asm/obj/mips"

	"github.com/tetratelabs/baselinejit/internal/asm"
	"github.com/tetratelabs/baselinejit/internal/jit"
)

// registers follows the n64 ABI, where R8-R11 are argument registers a4-a7
// and the temporaries start at R12.
// The frame pointer is R30, which golang-asm prints as "g".
var registers = jit.NewRegisterTable(jit.RegisterTableConfig{
	Arch:   jit.ArchitectureMIPS64,
	Frame:  mips.REG_R30,
	Stack:  mips.REGSP,
	Link:   mips.REGLINK,
	PC:     mips.REG_R16,
	Return: mips.REG_R2,
	Args: []asm.Register{
		mips.REG_R4, mips.REG_R5, mips.REG_R6, mips.REG_R7,
		mips.REG_R8, mips.REG_R9, mips.REG_R10, mips.REG_R11,
	},
	Scratch:        []asm.Register{mips.REG_R12, mips.REG_R13, mips.REG_R14, mips.REG_R15},
	CalleeSaved:    []jit.Role{jit.PCReg},
	WordSize:       8,
	StackAlignment: 16,
})
