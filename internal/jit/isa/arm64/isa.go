package arm64

import (
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/arm64"

	"github.com/tetratelabs/baselinejit/internal/jit"
)

// ISA generates AArch64 code.
type ISA struct{}

var (
	_ jit.ISA           = ISA{}
	_ jit.CodeGenerator = (*jit.Backend[ISA])(nil)
)

// Arch implements jit.ISA.
func (ISA) Arch() jit.Architecture { return jit.ArchitectureARM64 }

// GoArch implements jit.ISA.
func (ISA) GoArch() string { return "arm64" }

// Registers implements jit.ISA.
func (ISA) Registers() *jit.RegisterTable { return registers }

// Vocabulary implements jit.ISA.
func (ISA) Vocabulary() *jit.Vocabulary { return vocabulary }

// frameRecordSize is the size of the {FrameReg, LinkReg} pair.
const frameRecordSize = 16

// savedAreaSize is the 16-byte aligned area holding the callee-saved roles.
var savedAreaSize = jit.AlignUp(registers.WordSize()*int64(len(registers.CalleeSaved())), registers.StackAlignment())

var prologue, epilogue = frameLinkage()

// frameLinkage returns the prologue and its inverse. SP must stay 16-byte
// aligned at every access, so each area is reserved before it is written.
func frameLinkage() (pro, epi []jit.Instruction) {
	saved := registers.CalleeSaved()
	word := registers.WordSize()

	pro = append(pro,
		jit.Inst(jit.OpcodeAdjustStack, jit.Imm(-frameRecordSize)),
		jit.Inst(OpcodeStp, jit.Reg(jit.FrameReg), jit.Reg(jit.LinkReg), jit.Mem(jit.StackReg, 0)),
		jit.Inst(jit.OpcodeMove, jit.Reg(jit.FrameReg), jit.Reg(jit.StackReg)),
	)
	if len(saved) > 0 {
		pro = append(pro, jit.Inst(jit.OpcodeAdjustStack, jit.Imm(-savedAreaSize)))
		for i, r := range saved {
			pro = append(pro, jit.Inst(jit.OpcodeStore, jit.Mem(jit.StackReg, int64(i)*word), jit.Reg(r)))
		}
	}
	pro = append(pro, jit.Inst(jit.OpcodeAdjustStack, jit.FrameSize(-1)))

	epi = append(epi, jit.Inst(jit.OpcodeAdjustStack, jit.FrameSize(1)))
	if len(saved) > 0 {
		for i := len(saved) - 1; i >= 0; i-- {
			epi = append(epi, jit.Inst(jit.OpcodeLoad, jit.Reg(saved[i]), jit.Mem(jit.StackReg, int64(i)*word)))
		}
		epi = append(epi, jit.Inst(jit.OpcodeAdjustStack, jit.Imm(savedAreaSize)))
	}
	epi = append(epi,
		jit.Inst(OpcodeLdp, jit.Reg(jit.FrameReg), jit.Reg(jit.LinkReg), jit.Mem(jit.StackReg, 0)),
		jit.Inst(jit.OpcodeAdjustStack, jit.Imm(frameRecordSize)),
		jit.Inst(jit.OpcodeReturn),
	)
	return
}

// Prologue implements jit.ISA.
func (ISA) Prologue() []jit.Instruction { return prologue }

// Epilogue implements jit.ISA.
func (ISA) Epilogue() []jit.Instruction { return epilogue }

// FrameSize implements jit.ISA. The frame is never empty: golang-asm encodes
// "SUB $0, RSP" with the zero register read as R0.
func (ISA) FrameSize(slotBytes int64) int64 {
	align := registers.StackAlignment()
	return max(jit.AlignUp(slotBytes, align), align)
}

// Lower implements jit.ISA.
func (ISA) Lower(e *jit.Emitter, in jit.Instruction) {
	ops := in.Operands
	switch in.Op {
	case jit.OpcodeNop:
		e.Standalone(arm64.ANOOP)
	case jit.OpcodeMove:
		e.RegisterToRegister(arm64.AMOVD, ops[1], ops[0])
	case jit.OpcodeMoveImm:
		e.ConstToRegister(arm64.AMOVD, ops[1], ops[0])
	case jit.OpcodeLoad:
		e.MemoryToRegister(arm64.AMOVD, ops[1], ops[0])
	case jit.OpcodeStore:
		e.RegisterToMemory(arm64.AMOVD, ops[1], ops[0])
	case jit.OpcodeAdd:
		e.Register3(arm64.AADD, ops[1], ops[0], ops[0])
	case jit.OpcodeSub:
		e.Register3(arm64.ASUB, ops[1], ops[0], ops[0])
	case jit.OpcodeMul:
		e.Register3(arm64.AMUL, ops[1], ops[0], ops[0])
	case jit.OpcodeAnd:
		e.Register3(arm64.AAND, ops[1], ops[0], ops[0])
	case jit.OpcodeOr:
		e.Register3(arm64.AORR, ops[1], ops[0], ops[0])
	case jit.OpcodeXor:
		e.Register3(arm64.AEOR, ops[1], ops[0], ops[0])
	case jit.OpcodeAdjustStack:
		if !ops[0].IsFrameSize() && ops[0].Imm == 0 {
			e.Standalone(arm64.ANOOP)
			return
		}
		delta, as := ops[0], arm64.AADD
		if delta.Negative() {
			delta, as = delta.Negate(), arm64.ASUB
		}
		e.ConstToRegister(as, delta, jit.Reg(jit.StackReg))
	case jit.OpcodeCallIndirect:
		// BL Rn is encoded as BLR Rn.
		p := e.NewProg()
		p.As = arm64.ABL
		e.SetReg(&p.To, ops[0])
		e.Add(p)
	case jit.OpcodeReturn:
		p := e.NewProg()
		p.As = obj.ARET
		e.SetReg(&p.To, jit.Reg(jit.LinkReg))
		e.Add(p)
	case OpcodeStp:
		p := e.NewProg()
		p.As = arm64.ASTP
		setPair(e, &p.From, ops[0], ops[1])
		e.SetMem(&p.To, ops[2])
		e.Add(p)
	case OpcodeLdp:
		p := e.NewProg()
		p.As = arm64.ALDP
		e.SetMem(&p.From, ops[2])
		setPair(e, &p.To, ops[0], ops[1])
		e.Add(p)
	case OpcodeMvn:
		e.RegisterToRegister(arm64.AMVN, ops[1], ops[0])
	case OpcodeLdadd:
		if ops[2].Imm != 0 {
			panic(&jit.ContractViolation{Op: vocabulary.Name(in.Op), Reason: "memory offset must be zero"})
		}
		// LDADDD Rs, (Rb), Rt
		p := e.NewProg()
		p.As = arm64.ALDADDD
		e.SetReg(&p.From, ops[1])
		e.SetMem(&p.To, ops[2])
		p.RegTo2 = int16(e.Register(ops[0]))
		e.Add(p)
	default:
		panic(&jit.ContractViolation{Op: vocabulary.Name(in.Op), Reason: "no arm64 lowering"})
	}
}

// setPair sets addr to the register pair (first, second) of STP and LDP.
func setPair(e *jit.Emitter, addr *obj.Addr, first, second jit.Operand) {
	addr.Type = obj.TYPE_REGREG
	addr.Reg = int16(e.Register(first))
	addr.Offset = int64(e.Register(second))
}
