package mips64

import (
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/mips"

	"github.com/tetratelabs/baselinejit/internal/jit"
)

// ISA generates MIPS64 code. Branch delay slots are always filled with a NOP.
type ISA struct{}

var (
	_ jit.ISA           = ISA{}
	_ jit.CodeGenerator = (*jit.Backend[ISA])(nil)
)

// Arch implements jit.ISA.
func (ISA) Arch() jit.Architecture { return jit.ArchitectureMIPS64 }

// GoArch implements jit.ISA.
func (ISA) GoArch() string { return goArch }

// Registers implements jit.ISA.
func (ISA) Registers() *jit.RegisterTable { return registers }

// Vocabulary implements jit.ISA.
func (ISA) Vocabulary() *jit.Vocabulary { return vocabulary }

var savedAreaSize = jit.AlignUp(registers.WordSize()*int64(2+len(registers.CalleeSaved())), registers.StackAlignment())

var prologue, epilogue = frameLinkage()

// frameLinkage saves the link register, the caller's frame pointer and the
// callee-saved roles from the top of a single reserved area.
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

// Prologue implements jit.ISA.
func (ISA) Prologue() []jit.Instruction { return prologue }

// Epilogue implements jit.ISA.
func (ISA) Epilogue() []jit.Instruction { return epilogue }

// FrameSize implements jit.ISA.
func (ISA) FrameSize(slotBytes int64) int64 {
	return jit.AlignUp(slotBytes, registers.StackAlignment())
}

// Lower implements jit.ISA.
func (ISA) Lower(e *jit.Emitter, in jit.Instruction) {
	ops := in.Operands
	switch in.Op {
	case jit.OpcodeNop:
		e.Standalone(mips.ANOOP)
	case jit.OpcodeMove:
		e.RegisterToRegister(mips.AMOVV, ops[1], ops[0])
	case jit.OpcodeMoveImm:
		e.ConstToRegister(mips.AMOVV, ops[1], ops[0])
	case jit.OpcodeLoad:
		e.MemoryToRegister(mips.AMOVV, ops[1], ops[0])
	case jit.OpcodeStore:
		e.RegisterToMemory(mips.AMOVV, ops[1], ops[0])
	case jit.OpcodeAdd:
		e.RegisterToRegister(mips.AADDVU, ops[1], ops[0])
	case jit.OpcodeSub:
		e.RegisterToRegister(mips.ASUBVU, ops[1], ops[0])
	case jit.OpcodeMul:
		lowerMultiply(e, ops[0], ops[1])
		lowerMoveFromLo(e, ops[0])
	case jit.OpcodeAnd:
		e.RegisterToRegister(mips.AAND, ops[1], ops[0])
	case jit.OpcodeOr:
		e.RegisterToRegister(mips.AOR, ops[1], ops[0])
	case jit.OpcodeXor:
		e.RegisterToRegister(mips.AXOR, ops[1], ops[0])
	case jit.OpcodeAdjustStack:
		e.ConstToRegister(mips.AADDVU, ops[0], jit.Reg(jit.StackReg))
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
	case OpcodeDmult:
		lowerMultiply(e, ops[0], ops[1])
	case OpcodeMflo:
		lowerMoveFromLo(e, ops[0])
	case OpcodeNor:
		e.RegisterToRegister(mips.ANOR, ops[1], ops[0])
	default:
		panic(&jit.ContractViolation{Op: vocabulary.Name(in.Op), Reason: "no mips64 lowering"})
	}
}

// lowerMultiply emits DMULT, which leaves the product in the HI/LO pair.
func lowerMultiply(e *jit.Emitter, x, y jit.Operand) {
	p := e.NewProg()
	p.As = mips.AMULV
	e.SetReg(&p.From, y)
	p.Reg = int16(e.Register(x))
	e.Add(p)
}

func lowerMoveFromLo(e *jit.Emitter, dst jit.Operand) {
	p := e.NewProg()
	p.As = mips.AMOVV
	p.From.Type = obj.TYPE_REG
	p.From.Reg = mips.REG_LO
	e.SetReg(&p.To, dst)
	e.Add(p)
}
