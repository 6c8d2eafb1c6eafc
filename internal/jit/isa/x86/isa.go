package x86

import (
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/tetratelabs/baselinejit/internal/jit"
)

// ISA generates 32-bit x86 code.
type ISA struct{}

var (
	_ jit.ISA           = ISA{}
	_ jit.CodeGenerator = (*jit.Backend[ISA])(nil)
)

func (ISA) Arch() jit.Architecture        { return jit.ArchitectureX86 }
func (ISA) GoArch() string                { return "386" }
func (ISA) Registers() *jit.RegisterTable { return registers }
func (ISA) Vocabulary() *jit.Vocabulary   { return vocabulary }

var prologue, epilogue = frameLinkage()

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

func (ISA) Prologue() []jit.Instruction { return prologue }
func (ISA) Epilogue() []jit.Instruction { return epilogue }

// FrameSize keeps the stack 16-byte aligned as the SysV i386 ABI requires
// at call sites. The return address, the frame pointer and every
// callee-saved role are pushed above the slot area.
func (ISA) FrameSize(slotBytes int64) int64 {
	pushed := registers.WordSize() * int64(2+len(registers.CalleeSaved()))
	return jit.AlignUp(pushed+slotBytes, registers.StackAlignment()) - pushed
}

func (ISA) Lower(e *jit.Emitter, in jit.Instruction) {
	ops := in.Operands
	switch in.Op {
	case jit.OpcodeNop:
		e.Standalone(obj.ANOP)
	case jit.OpcodeMove:
		e.RegisterToRegister(x86.AMOVL, ops[1], ops[0])
	case jit.OpcodeMoveImm:
		e.ConstToRegister(x86.AMOVL, ops[1], ops[0])
	case jit.OpcodeLoad:
		e.MemoryToRegister(x86.AMOVL, ops[1], ops[0])
	case jit.OpcodeStore:
		e.RegisterToMemory(x86.AMOVL, ops[1], ops[0])
	case jit.OpcodeAdd:
		e.RegisterToRegister(x86.AADDL, ops[1], ops[0])
	case jit.OpcodeSub:
		e.RegisterToRegister(x86.ASUBL, ops[1], ops[0])
	case jit.OpcodeMul:
		e.RegisterToRegister(x86.AIMULL, ops[1], ops[0])
	case jit.OpcodeAnd:
		e.RegisterToRegister(x86.AANDL, ops[1], ops[0])
	case jit.OpcodeOr:
		e.RegisterToRegister(x86.AORL, ops[1], ops[0])
	case jit.OpcodeXor:
		e.RegisterToRegister(x86.AXORL, ops[1], ops[0])
	case jit.OpcodeAdjustStack:
		delta, as := ops[0], x86.AADDL
		if delta.Negative() {
			delta, as = delta.Negate(), x86.ASUBL
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
		p.As = x86.APUSHL
		e.SetReg(&p.From, ops[0])
		e.Add(p)
	case OpcodePop:
		p := e.NewProg()
		p.As = x86.APOPL
		e.SetReg(&p.To, ops[0])
		e.Add(p)
	case OpcodeLea:
		e.MemoryToRegister(x86.ALEAL, ops[1], ops[0])
	default:
		panic(&jit.ContractViolation{Op: vocabulary.Name(in.Op), Reason: "no x86 lowering"})
	}
}
