package jit

import (
	"github.com/twitchyliquid64/golang-asm/obj"

	"github.com/tetratelabs/baselinejit/internal/asm"
	"github.com/tetratelabs/baselinejit/internal/asm/golang_asm"
)

// Emitter is handed to ISA.Lower to append golang-asm instructions.
// It resolves roles to physical registers through the backend's RegisterTable.
type Emitter struct {
	a     *golang_asm.GolangAsmBaseAssembler
	table *RegisterTable
	// first is the first node added while lowering the current instruction.
	first        asm.Node
	framePatches []framePatch
}

type framePatch struct {
	node    asm.Node
	operand Operand
}

func newEmitter(a *golang_asm.GolangAsmBaseAssembler, table *RegisterTable) *Emitter {
	return &Emitter{a: a, table: table}
}

// Table returns the register table of the backend.
func (e *Emitter) Table() *RegisterTable {
	return e.table
}

// Register returns the physical register of a Reg operand, or the base register of a Mem operand.
func (e *Emitter) Register(o Operand) asm.Register {
	return e.table.RoleToRegister(o.Role)
}

// NewProg returns a new, unlinked instruction.
func (e *Emitter) NewProg() *obj.Prog {
	return e.a.NewProg()
}

// Add appends p to the instruction list.
func (e *Emitter) Add(p *obj.Prog) asm.Node {
	n := e.a.AddInstruction(p)
	if e.first == nil {
		e.first = n
	}
	return n
}

// SetReg sets addr to the register of o.
func (e *Emitter) SetReg(addr *obj.Addr, o Operand) {
	addr.Type = obj.TYPE_REG
	addr.Reg = int16(e.Register(o))
}

// SetMem sets addr to the memory operand o.
func (e *Emitter) SetMem(addr *obj.Addr, o Operand) {
	addr.Type = obj.TYPE_MEM
	addr.Reg = int16(e.Register(o))
	addr.Offset = o.Imm
}

// SetConst sets the source operand of p to the constant o. If o depends on
// the frame size, the value is patched once the frame size is known.
func (e *Emitter) SetConst(p *obj.Prog, o Operand) {
	p.From.Type = obj.TYPE_CONST
	p.From.Offset = o.Imm
	if o.IsFrameSize() {
		e.framePatches = append(e.framePatches, framePatch{node: golang_asm.NewGolangAsmNode(p), operand: o})
	}
}

// Standalone appends an instruction without operands.
func (e *Emitter) Standalone(as obj.As) *obj.Prog {
	p := e.NewProg()
	p.As = as
	e.Add(p)
	return p
}

// RegisterToRegister appends "as from, to".
func (e *Emitter) RegisterToRegister(as obj.As, from, to Operand) *obj.Prog {
	p := e.NewProg()
	p.As = as
	e.SetReg(&p.From, from)
	e.SetReg(&p.To, to)
	e.Add(p)
	return p
}

// ConstToRegister appends "as $c, to".
func (e *Emitter) ConstToRegister(as obj.As, c, to Operand) *obj.Prog {
	p := e.NewProg()
	p.As = as
	e.SetConst(p, c)
	e.SetReg(&p.To, to)
	e.Add(p)
	return p
}

// MemoryToRegister appends "as off(base), to".
func (e *Emitter) MemoryToRegister(as obj.As, mem, to Operand) *obj.Prog {
	p := e.NewProg()
	p.As = as
	e.SetMem(&p.From, mem)
	e.SetReg(&p.To, to)
	e.Add(p)
	return p
}

// RegisterToMemory appends "as from, off(base)".
func (e *Emitter) RegisterToMemory(as obj.As, from, mem Operand) *obj.Prog {
	p := e.NewProg()
	p.As = as
	e.SetReg(&p.From, from)
	e.SetMem(&p.To, mem)
	e.Add(p)
	return p
}

// Register3 appends "as from, reg, to", the three operand form of RISC architectures.
func (e *Emitter) Register3(as obj.As, from, reg, to Operand) *obj.Prog {
	p := e.RegisterToRegister(as, from, to)
	p.Reg = int16(e.Register(reg))
	return p
}

func (e *Emitter) beginInstruction() {
	e.first = nil
}
