package mips

import (
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/mips"

	"github.com/tetratelabs/baselinejit/internal/jit"
)

// ISA generates MIPS32 code. Branch delay slots are always filled with a NOP.
type ISA struct{}

var (
	_ jit.ISA           = ISA{}
	_ jit.CodeGenerator = (*jit.Backend[ISA])(nil)
)

func (ISA) Arch() jit.Architecture        { return jit.ArchitectureMIPS32 }
func (ISA) GoArch() string                { return goArch }
func (ISA) Registers() *jit.RegisterTable { return registers }
func (ISA) Vocabulary() *jit.Vocabulary   { return vocabulary }

// savedAreaSize holds the link register, the caller's frame pointer and the
// callee-saved roles, in this order from the top.
var savedAreaSize = jit.AlignUp(registers.WordSize()*int64(2+len(registers.CalleeSaved())), registers.StackAlignment())

var prologue, epilogue = frameLinkage()

func frameLinkage() (pro, epi []jit.Instruction) {
	word := registers.WordSize()
	saved := append([]jit.Role{jit.LinkReg, jit.FrameReg}, registers.CalleeSaved()...)

	pro = append(pro, jit.Inst(jit.OpcodeAdjustStack, jit.Imm(-savedAreaSize)))
	for i, r := range saved {
		pro = append(pro, jit.Inst(jit.OpcodeStore, jit.Mem(jit.StackReg, savedAreaSize-int64(i+1)*word), jit.Reg(r)))
	}
	pro = append(pro,
		jit.Inst(jit.OpcodeMove, jit.Reg(jit.FrameReg), jit.Reg(jit.StackReg)),
		jit.Inst(jit.OpcodeAdjustStack, jit.FrameSize(-1)),
	)

	epi = append(epi, jit.Inst(jit.OpcodeAdjustStack, jit.FrameSize(1)))
	for i := len(saved) - 1; i >= 0; i-- {
		epi = append(epi, jit.Inst(jit.OpcodeLoad, jit.Reg(saved[i]), jit.Mem(jit.StackReg, savedAreaSize-int64(i+1)*word)))
	}
	epi = append(epi,
		jit.Inst(jit.OpcodeAdjustStack, jit.Imm(savedAreaSize)),
		jit.Inst(jit.OpcodeReturn),
	)
	return
}

func (ISA) Prologue() []jit.Instruction { return prologue }
func (ISA) Epilogue() []jit.Instruction { return epilogue }

func (ISA) FrameSize(slotBytes int64) int64 {
	return jit.AlignUp(slotBytes, registers.StackAlignment())
}

func (ISA) Lower(e *jit.Emitter, in jit.Instruction) {
	ops := in.Operands
	switch in.Op {
	case jit.OpcodeNop:
		e.Standalone(mips.ANOOP)
	case jit.OpcodeMove:
		e.RegisterToRegister(mips.AMOVW, ops[1], ops[0])
	case jit.OpcodeMoveImm:
		e.ConstToRegister(mips.AMOVW, ops[1], ops[0])
	case jit.OpcodeLoad:
		e.MemoryToRegister(mips.AMOVW, ops[1], ops[0])
	case jit.OpcodeStore:
		e.RegisterToMemory(mips.AMOVW, ops[1], ops[0])
	case jit.OpcodeAdd:
		e.RegisterToRegister(mips.AADDU, ops[1], ops[0])
	case jit.OpcodeSub:
		e.RegisterToRegister(mips.ASUBU, ops[1], ops[0])
	case jit.OpcodeMul:
		// The three operand MUL of MIPS32 writes a GPR directly.
		e.Register3(mips.AMUL, ops[1], ops[0], ops[0])
	case jit.OpcodeAnd:
		e.RegisterToRegister(mips.AAND, ops[1], ops[0])
	case jit.OpcodeOr:
		e.RegisterToRegister(mips.AOR, ops[1], ops[0])
	case jit.OpcodeXor:
		e.RegisterToRegister(mips.AXOR, ops[1], ops[0])
	case jit.OpcodeAdjustStack:
		// ADDIU sign-extends its immediate, so no SUB form is needed.
		e.ConstToRegister(mips.AADDU, ops[0], jit.Reg(jit.StackReg))
	case jit.OpcodeCallIndirect:
		p := e.NewProg()
		p.As = mips.AJAL
		e.SetMem(&p.To, jit.Mem(ops[0].Role, 0))
		e.Add(p)
		e.Standalone(mips.ANOOP)
	case jit.OpcodeReturn:
		p := e.NewProg()
		p.As = mips.AJMP
		e.SetMem(&p.To, jit.Mem(jit.LinkReg, 0))
		e.Add(p)
		e.Standalone(mips.ANOOP)
	case OpcodeMult:
		p := e.NewProg()
		p.As = mips.AMUL
		e.SetReg(&p.From, ops[1])
		p.Reg = int16(e.Register(ops[0]))
		e.Add(p)
	case OpcodeMflo:
		p := e.NewProg()
		p.As = mips.AMOVW
		p.From.Type = obj.TYPE_REG
		p.From.Reg = mips.REG_LO
		e.SetReg(&p.To, ops[0])
		e.Add(p)
	case OpcodeNor:
		e.RegisterToRegister(mips.ANOR, ops[1], ops[0])
	default:
		panic(&jit.ContractViolation{Op: vocabulary.Name(in.Op), Reason: "no mips lowering"})
	}
}
