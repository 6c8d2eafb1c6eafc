package arm

import (
	"github.com/twitchyliquid64/golang-asm/obj/arm"

	"github.com/tetratelabs/baselinejit/internal/asm"
	"github.com/tetratelabs/baselinejit/internal/jit"
)

// registers follows the AAPCS: R0-R3 carry arguments and R0 the result, R4-R11
// are preserved by callees, and R7 is the Thumb-compatible frame pointer.
var registers = jit.NewRegisterTable(jit.RegisterTableConfig{
	Arch:           jit.ArchitectureARM32,
	Frame:          arm.REG_R7,
	Stack:          arm.REGSP,
	Link:           arm.REGLINK,
	PC:             arm.REG_R8,
	Return:         arm.REG_R0,
	Args:           []asm.Register{arm.REG_R0, arm.REG_R1, arm.REG_R2, arm.REG_R3},
	Scratch:        []asm.Register{arm.REG_R4, arm.REG_R5},
	CalleeSaved:    []jit.Role{jit.PCReg, jit.ScratchReg(0), jit.ScratchReg(1)},
	WordSize:       4,
	StackAlignment: 8,
})
