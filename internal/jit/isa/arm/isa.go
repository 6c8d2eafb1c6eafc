package arm

import (
	"github.com/twitchyliquid64/golang-asm/obj/arm"

	"github.com/tetratelabs/baselinejit/internal/jit"
)

// ISA generates ARMv7 (A32) code.
type ISA struct{}

var (
	_ jit.ISA           = ISA{}
	_ jit.CodeGenerator = (*jit.Backend[ISA])(nil)
)

// Arch implements jit.ISA.
func (ISA) Arch() jit.Architecture { return jit.ArchitectureARM32 }

// GoArch implements jit.ISA.
func (ISA) GoArch() string { return "arm" }

// Registers implements jit.ISA.
func (ISA) Registers() *jit.RegisterTable { return registers }

// Vocabulary implements jit.ISA.
func (ISA) Vocabulary() *jit.Vocabulary { return vocabulary }

var prologue, epilogue = frameLinkage()

// frameLinkage returns the prologue and its inverse. The link register and
// the caller's frame pointer form the frame record FrameReg points at.
func frameLinkage() (pro, epi []jit.Instruction) {
	pro = append(pro,
		jit.Inst(OpcodePush, jit.Reg(jit.LinkReg)),
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
		jit.Inst(OpcodePop, jit.Reg(jit.LinkReg)),
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
	pushed := registers.WordSize() * int64(2+len(registers.CalleeSaved()))
	return jit.AlignUp(pushed+slotBytes, registers.StackAlignment()) - pushed
}

// Lower implements jit.ISA.
func (ISA) Lower(e *jit.Emitter, in jit.Instruction) {
	ops := in.Operands
	switch in.Op {
	case jit.OpcodeNop:
		// MOVW R0, R0 is the canonical A32 no-op.
		e.RegisterToRegister(arm.AMOVW, jit.Reg(jit.ReturnReg), jit.Reg(jit.ReturnReg))
	case jit.OpcodeMove:
		e.RegisterToRegister(arm.AMOVW, ops[1], ops[0])
	case jit.OpcodeMoveImm:
		// Constants which are not encodable as a rotated immediate are loaded
		// from the literal pool the assembler places after the function.
		e.ConstToRegister(arm.AMOVW, ops[1], ops[0])
	case jit.OpcodeLoad:
		e.MemoryToRegister(arm.AMOVW, ops[1], ops[0])
	case jit.OpcodeStore:
		e.RegisterToMemory(arm.AMOVW, ops[1], ops[0])
	case jit.OpcodeAdd:
		e.RegisterToRegister(arm.AADD, ops[1], ops[0])
	case jit.OpcodeSub:
		e.RegisterToRegister(arm.ASUB, ops[1], ops[0])
	case jit.OpcodeMul:
		e.RegisterToRegister(arm.AMUL, ops[1], ops[0])
	case jit.OpcodeAnd:
		e.RegisterToRegister(arm.AAND, ops[1], ops[0])
	case jit.OpcodeOr:
		e.RegisterToRegister(arm.AORR, ops[1], ops[0])
	case jit.OpcodeXor:
		e.RegisterToRegister(arm.AEOR, ops[1], ops[0])
	case jit.OpcodeAdjustStack:
		delta, as := ops[0], arm.AADD
		if delta.Negative() {
			delta, as = delta.Negate(), arm.ASUB
		}
		e.ConstToRegister(as, delta, jit.Reg(jit.StackReg))
	case jit.OpcodeCallIndirect:
		// BL (Rn) is encoded as BLX Rn.
		p := e.NewProg()
		p.As = arm.ABL
		e.SetMem(&p.To, jit.Mem(ops[0].Role, 0))
		e.Add(p)
	case jit.OpcodeReturn:
		p := e.NewProg()
		p.As = arm.AB
		e.SetMem(&p.To, jit.Mem(jit.LinkReg, 0))
		e.Add(p)
	case OpcodePush:
		p := e.RegisterToMemory(arm.AMOVW, ops[0], jit.Mem(jit.StackReg, -registers.WordSize()))
		p.Scond |= arm.C_WBIT
	case OpcodePop:
		p := e.MemoryToRegister(arm.AMOVW, jit.Mem(jit.StackReg, registers.WordSize()), ops[0])
		p.Scond |= arm.C_PBIT
	case OpcodeBic:
		e.RegisterToRegister(arm.ABIC, ops[1], ops[0])
	default:
		panic(&jit.ContractViolation{Op: vocabulary.Name(in.Op), Reason: "no arm lowering"})
	}
}
