package x86

import (
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/tetratelabs/baselinejit/internal/asm"
	"github.com/tetratelabs/baselinejit/internal/jit"
)

// registers uses a register-based convention: cdecl passes every argument on
// the stack, which the runtime trampoline adapts to. With six usable general
// purpose registers, only two remain for scratch values.
var registers = jit.NewRegisterTable(jit.RegisterTableConfig{
	Arch:           jit.ArchitectureX86,
	Frame:          x86.REG_BP,
	Stack:          x86.REG_SP,
	PC:             x86.REG_DI,
	Return:         x86.REG_AX,
	Args:           []asm.Register{x86.REG_CX, x86.REG_DX},
	Scratch:        []asm.Register{x86.REG_BX, x86.REG_SI},
	CalleeSaved:    []jit.Role{jit.PCReg, jit.ScratchReg(0), jit.ScratchReg(1)},
	WordSize:       4,
	StackAlignment: 16,
})
