package amd64

import (
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/tetratelabs/baselinejit/internal/jit"
)

// ISA generates x86-64 code.
type ISA struct{}

var (
	_ jit.ISA           = ISA{}
	_ jit.CodeGenerator = (*jit.Backend[ISA])(nil)
)

// Arch implements jit.ISA.
func (ISA) Arch() jit.Architecture { return jit.ArchitectureX64 }

// GoArch implements jit.ISA.
func (ISA) GoArch() string { return "amd64" }

// Registers implements jit.ISA.
func (ISA) Registers() *jit.RegisterTable { return registers }

// Vocabulary implements jit.ISA.
func (ISA) Vocabulary() *jit.Vocabulary { return vocabulary }

var prologue, epilogue = frameLinkage()

// frameLinkage returns the prologue and its inverse. The caller's frame
// pointer is pushed first so that FrameReg points at it, like the frames
// compiled by C compilers.
func frameLinkage() (pro, epi []jit.Instruction) {
	pro = append(pro,
		jit.Inst(OpcodePush, jit.Reg(jit.FrameReg)),
		jit.Inst(jit.OpcodeMove, jit.Reg(jit.FrameReg), jit.Reg(jit.StackReg)),
	)
	saved := registers.CalleeSaved()
	for _, r := range saved {
		pro = append(pro, jit.Inst(OpcodePush, jit.Reg(r)))
	}
	pro = append(pro, jit.Inst(jit.OpcodeAdjustStack, jit.FrameSize(-1)))

	epi = append(epi, jit.Inst(jit.OpcodeAdjustStack, jit.FrameSize(1)))
	for i := len(saved) - 1; i >= 0; i-- {
		epi = append(epi, jit.Inst(OpcodePop, jit.Reg(saved[i])))
	}
	epi = append(epi,
		jit.Inst(OpcodePop, jit.Reg(jit.FrameReg)),
		jit.Inst(jit.OpcodeReturn),
	)
	return
}

// Prologue implements jit.ISA.
func (ISA) Prologue() []jit.Instruction { return prologue }

// Epilogue implements jit.ISA.
func (ISA) Epilogue() []jit.Instruction { return epilogue }

// FrameSize implements jit.ISA.
//
// The call pushed the return address on a 16-byte aligned stack, and the
// prologue pushes the frame pointer and each callee-saved role on top of it.
func (ISA) FrameSize(slotBytes int64) int64 {
	pushed := registers.WordSize() * int64(2+len(registers.CalleeSaved()))
	return jit.AlignUp(pushed+slotBytes, registers.StackAlignment()) - pushed
}

// Lower implements jit.ISA.
func (ISA) Lower(e *jit.Emitter, in jit.Instruction) {
	ops := in.Operands
	switch in.Op {
	case jit.OpcodeNop:
		e.Standalone(obj.ANOP)
	case jit.OpcodeMove:
		e.RegisterToRegister(x86.AMOVQ, ops[1], ops[0])
	case jit.OpcodeMoveImm:
		e.ConstToRegister(x86.AMOVQ, ops[1], ops[0])
	case jit.OpcodeLoad:
		e.MemoryToRegister(x86.AMOVQ, ops[1], ops[0])
	case jit.OpcodeStore:
		e.RegisterToMemory(x86.AMOVQ, ops[1], ops[0])
	case jit.OpcodeAdd:
		e.RegisterToRegister(x86.AADDQ, ops[1], ops[0])
	case jit.OpcodeSub:
		e.RegisterToRegister(x86.ASUBQ, ops[1], ops[0])
	case jit.OpcodeMul:
		e.RegisterToRegister(x86.AIMULQ, ops[1], ops[0])
	case jit.OpcodeAnd:
		e.RegisterToRegister(x86.AANDQ, ops[1], ops[0])
	case jit.OpcodeOr:
		e.RegisterToRegister(x86.AORQ, ops[1], ops[0])
	case jit.OpcodeXor:
		e.RegisterToRegister(x86.AXORQ, ops[1], ops[0])
	case jit.OpcodeAdjustStack:
		delta, as := ops[0], x86.AADDQ
		if delta.Negative() {
			delta, as = delta.Negate(), x86.ASUBQ
		}
		e.ConstToRegister(as, delta, jit.Reg(jit.StackReg))
	case jit.OpcodeCallIndirect:
		p := e.NewProg()
		p.As = obj.ACALL
		e.SetReg(&p.To, ops[0])
		e.Add(p)
	case jit.OpcodeReturn:
		e.Standalone(obj.ARET)
	case OpcodePush:
		p := e.NewProg()
		p.As = x86.APUSHQ
		e.SetReg(&p.From, ops[0])
		e.Add(p)
	case OpcodePop:
		p := e.NewProg()
		p.As = x86.APOPQ
		e.SetReg(&p.To, ops[0])
		e.Add(p)
	case OpcodeLea:
		e.MemoryToRegister(x86.ALEAQ, ops[1], ops[0])
	case OpcodePopcnt:
		e.RegisterToRegister(x86.APOPCNTQ, ops[1], ops[0])
	case OpcodeTzcnt:
		e.RegisterToRegister(x86.ATZCNTQ, ops[1], ops[0])
	default:
		panic(&jit.ContractViolation{Op: vocabulary.Name(in.Op), Reason: "no amd64 lowering"})
	}
}
