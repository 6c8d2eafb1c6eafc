package mips

import (
	"github.com/twitchyliquid64/golang-asm/obj/mips"

	"github.com/tetratelabs/baselinejit/internal/asm"
	"github.com/tetratelabs/baselinejit/internal/jit"
)

// registers follows the o32 ABI: a0-a3 carry arguments, v0 the result, and
// s0 survives calls. t0-t3 are caller-saved temporaries.
// The frame pointer is R30, which golang-asm prints as "g".
var registers = jit.NewRegisterTable(jit.RegisterTableConfig{
	Arch:           jit.ArchitectureMIPS32,
	Frame:          mips.REG_R30,
	Stack:          mips.REGSP,
	Link:           mips.REGLINK,
	PC:             mips.REG_R16,
	Return:         mips.REG_R2,
	Args:           []asm.Register{mips.REG_R4, mips.REG_R5, mips.REG_R6, mips.REG_R7},
	Scratch:        []asm.Register{mips.REG_R8, mips.REG_R9, mips.REG_R10, mips.REG_R11},
	CalleeSaved:    []jit.Role{jit.PCReg},
	WordSize:       4,
	StackAlignment: 8,
})
