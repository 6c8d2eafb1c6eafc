package amd64

import (
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/tetratelabs/baselinejit/internal/asm"
	"github.com/tetratelabs/baselinejit/internal/jit"
)

// registers follows the System V calling convention: ArgReg(0) is the first
// integer argument register and PCReg lives in a callee-saved register so it
// survives runtime calls.
var registers = jit.NewRegisterTable(jit.RegisterTableConfig{
	Arch:   jit.ArchitectureX64,
	Frame:  x86.REG_BP,
	Stack:  x86.REG_SP,
	PC:     x86.REG_R12,
	Return: x86.REG_AX,
	Args:   []asm.Register{x86.REG_DI, x86.REG_SI, x86.REG_DX, x86.REG_CX, x86.REG_R8, x86.REG_R9},
	// R13 and R14 are callee-saved and therefore pushed by the prologue.
	Scratch:        []asm.Register{x86.REG_R10, x86.REG_R11, x86.REG_R13, x86.REG_R14},
	CalleeSaved:    []jit.Role{jit.PCReg, jit.ScratchReg(2), jit.ScratchReg(3)},
	WordSize:       8,
	StackAlignment: 16,
})
