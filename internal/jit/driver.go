package jit

import (
	"fmt"
	"log/slog"
)

// Driver compiles one Function with backends of type B. Everything
// architecture-specific is asked of the backend: which register implements a
// role, how many scratch registers exist and how an opcode is encoded.
//
// A Driver is constructed once per function and is not safe for concurrent use.
type Driver[B CodeGenerator] struct {
	fn         *Function
	newBackend func() B
	logger     *slog.Logger

	// Fields below are reset by every attempt.
	b          B
	table      *RegisterTable
	locs       *valueLocationStack
	word       int64
	spillCount int
	paramBase  int64
	localBase  int64
	spillBase  int64
}

// NewDriver returns a Driver which compiles fn with backends returned by newBackend.
func NewDriver[B CodeGenerator](fn *Function, newBackend func() B, logger *slog.Logger) *Driver[B] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver[B]{fn: fn, newBackend: newBackend, logger: logger}
}

// Compile runs one compilation attempt.
//
// A contract violation raised by the backend aborts the attempt and is
// returned as ErrInternalCompilerError; the partially built code is dropped.
// Constructing a backend for an unsupported architecture panics, and that
// panic is deliberately not recovered.
func (d *Driver[B]) Compile() (code *CompiledCode, err error) {
	// Construction happens first and outside of the recover below, so an
	// unsupported architecture fails whatever the function.
	b := d.newBackend()
	d.b = b

	maxDepth, err := d.fn.Validate()
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			cv, ok := r.(*ContractViolation)
			if !ok {
				panic(r)
			}
			b.Fail()
			code, err = nil, fmt.Errorf("%w: %s: %v", ErrInternalCompilerError, d.fn.Name, cv)
			d.logger.Warn("compilation aborted", "function", d.fn.Name, "arch", b.Arch().String(), "reason", cv.Error())
		}
	}()

	if err = d.checkCapabilities(); err != nil {
		b.Fail()
		d.logger.Warn("compilation aborted", "function", d.fn.Name, "arch", b.Arch().String(), "reason", err.Error())
		return nil, err
	}

	d.reset(maxDepth)
	d.logger.Debug("compiling function", "function", d.fn.Name, "arch", b.Arch().String(),
		"scratch_registers", d.table.ScratchRegisterCount(), "max_stack_depth", maxDepth)

	d.compilePreamble()
	for pc, op := range d.fn.Code {
		d.compileOp(pc, op)
	}

	slotBytes := (d.spillBase + int64(maxDepth)) * d.word
	code, err = b.Finalize(slotBytes)
	if err != nil {
		d.logger.Warn("compilation aborted", "function", d.fn.Name, "arch", b.Arch().String(), "reason", err.Error())
		return nil, err
	}
	code.Metadata.SpillCount = d.spillCount
	code.Metadata.MaxStackDepth = maxDepth

	d.logger.Debug("compiled function", "function", d.fn.Name, "arch", b.Arch().String(),
		"code_size", len(code.Code), "spills", d.spillCount, "frame_size", code.Frame.FrameSize)
	return code, nil
}

// checkCapabilities reports the mismatches between what the function needs
// and what the architecture offers.
func (d *Driver[B]) checkCapabilities() error {
	table := d.b.Registers()
	if n := table.ScratchRegisterCount(); n < 2 {
		return fmt.Errorf("%w: %s needs at least 2 scratch registers but %s has %d",
			ErrInternalCompilerError, d.fn.Name, table.Arch(), n)
	}
	if need := d.fn.NumParams + 1; need > table.ArgRegisterCount() {
		return fmt.Errorf("%w: %s needs %d argument registers but %s has %d",
			ErrInternalCompilerError, d.fn.Name, need, table.Arch(), table.ArgRegisterCount())
	}
	for pc, op := range d.fn.Code {
		if op.Kind != OpKindCallRuntime {
			continue
		}
		if need := op.Args + 1; need > table.ArgRegisterCount() {
			return fmt.Errorf("%w: %s at %d needs %d argument registers but %s has %d",
				ErrInternalCompilerError, d.fn.Name, pc, need, table.Arch(), table.ArgRegisterCount())
		}
	}
	return nil
}

func (d *Driver[B]) reset(maxDepth int) {
	d.table = d.b.Registers()
	d.locs = newValueLocationStack(d.table.ScratchRegisterCount())
	d.word = d.table.WordSize()
	d.spillCount = 0
	d.paramBase = 1
	d.localBase = d.paramBase + int64(d.fn.NumParams)
	d.spillBase = d.localBase + int64(d.fn.NumLocals)
}

func (d *Driver[B]) slot(index int64) Operand {
	return Mem(StackReg, index*d.word)
}

// compilePreamble lays out the frame: the runtime context goes to slot 0,
// parameters follow and locals are zeroed.
func (d *Driver[B]) compilePreamble() {
	d.b.EmitPrologue()
	d.b.EmitOp(OpcodeStore, d.slot(0), Reg(ArgReg(0)))
	for i := 0; i < d.fn.NumParams; i++ {
		d.b.EmitOp(OpcodeStore, d.slot(d.paramBase+int64(i)), Reg(ArgReg(i+1)))
	}
	if d.fn.NumLocals > 0 {
		zero := Reg(ScratchReg(0))
		d.b.EmitOp(OpcodeMoveImm, zero, Imm(0))
		for i := 0; i < d.fn.NumLocals; i++ {
			d.b.EmitOp(OpcodeStore, d.slot(d.localBase+int64(i)), zero)
		}
	}
}

var binaryOpcodes = map[OpKind]Opcode{
	OpKindAdd: OpcodeAdd,
	OpKindSub: OpcodeSub,
	OpKindMul: OpcodeMul,
	OpKindAnd: OpcodeAnd,
	OpKindOr:  OpcodeOr,
	OpKindXor: OpcodeXor,
}

func (d *Driver[B]) compileOp(pc int, op Op) {
	switch op.Kind {
	case OpKindConst:
		r := d.allocateRegister()
		d.b.EmitOp(OpcodeMoveImm, Reg(ScratchReg(r)), Imm(op.Imm))
		d.locs.pushValueLocationOnRegister(r)
	case OpKindGetArg:
		d.compileLoadSlot(d.paramBase + op.Imm)
	case OpKindGetLocal:
		d.compileLoadSlot(d.localBase + op.Imm)
	case OpKindSetLocal:
		v := d.locs.pop()
		d.ensureOnRegister(v)
		d.b.EmitOp(OpcodeStore, d.slot(d.localBase+op.Imm), Reg(ScratchReg(v.scratch)))
		d.locs.releaseRegister(v)
	case OpKindAdd, OpKindSub, OpKindMul, OpKindAnd, OpKindOr, OpKindXor:
		y := d.locs.pop()
		x := d.locs.pop()
		d.ensureOnRegister(x)
		d.ensureOnRegister(y)
		d.b.EmitOp(binaryOpcodes[op.Kind], Reg(ScratchReg(x.scratch)), Reg(ScratchReg(y.scratch)))
		d.locs.releaseRegister(y)
		d.locs.pushValueLocationOnRegister(x.scratch)
	case OpKindDup:
		v := d.locs.peek()
		r := d.allocateRegister()
		// Allocation may have spilled v itself.
		if v.onRegister() {
			d.b.EmitOp(OpcodeMove, Reg(ScratchReg(r)), Reg(ScratchReg(v.scratch)))
		} else {
			d.b.EmitOp(OpcodeLoad, Reg(ScratchReg(r)), d.slot(d.spillBase+int64(v.stackPointer)))
		}
		d.locs.pushValueLocationOnRegister(r)
	case OpKindDrop:
		d.locs.releaseRegister(d.locs.pop())
	case OpKindCallRuntime:
		d.compileCallRuntime(pc, op)
	case OpKindReturn:
		v := d.locs.pop()
		d.ensureOnRegister(v)
		d.b.EmitOp(OpcodeMove, Reg(ReturnReg), Reg(ScratchReg(v.scratch)))
		d.locs.releaseRegister(v)
		d.b.EmitEpilogue()
	default:
		violate(op.Kind.String(), "unknown operation")
	}
}

func (d *Driver[B]) compileLoadSlot(index int64) {
	r := d.allocateRegister()
	d.b.EmitOp(OpcodeLoad, Reg(ScratchReg(r)), d.slot(index))
	d.locs.pushValueLocationOnRegister(r)
}

// compileCallRuntime calls into the runtime: every live value is released to
// its slot, since the callee may clobber any scratch register, and PCReg
// carries the bytecode position so the runtime can resume the interpreter.
func (d *Driver[B]) compileCallRuntime(pc int, op Op) {
	d.compileReleaseAllRegistersToStack()

	base := d.locs.sp - uint64(op.Args)
	for i := 0; i < op.Args; i++ {
		d.b.EmitOp(OpcodeLoad, Reg(ArgReg(i+1)), d.slot(d.spillBase+int64(base)+int64(i)))
	}
	for i := 0; i < op.Args; i++ {
		d.locs.pop()
	}

	ctx := ArgReg(0)
	target := ScratchReg(0)
	d.b.EmitOp(OpcodeLoad, Reg(ctx), d.slot(0))
	d.b.EmitOp(OpcodeMoveImm, Reg(PCReg), Imm(int64(pc)))
	d.b.AddRelocation(RelocationRuntimeTableSlot, uint32(op.Imm))
	d.b.EmitOp(OpcodeLoad, Reg(target), Mem(ctx, op.Imm*d.word))
	d.b.EmitOp(OpcodeCallIndirect, Reg(target))

	r := d.allocateRegister()
	d.b.EmitOp(OpcodeMove, Reg(ScratchReg(r)), Reg(ReturnReg))
	d.locs.pushValueLocationOnRegister(r)
}

// allocateRegister returns a free scratch role, spilling the deepest
// register-resident value if every scratch role is in use.
func (d *Driver[B]) allocateRegister() int {
	if r, ok := d.locs.takeFreeRegister(); ok {
		d.locs.markRegisterUsed(r)
		return r
	}
	victim, ok := d.locs.takeStealTargetFromUsedRegister()
	if !ok {
		violate("", "no scratch register can be freed: %s", d.locs)
	}
	r := victim.scratch
	d.compileReleaseRegisterToStack(victim)
	d.locs.markRegisterUsed(r)
	return r
}

func (d *Driver[B]) ensureOnRegister(loc *valueLocation) {
	if loc.onRegister() {
		return
	}
	r := d.allocateRegister()
	d.b.EmitOp(OpcodeLoad, Reg(ScratchReg(r)), d.slot(d.spillBase+int64(loc.stackPointer)))
	loc.scratch = r
}

func (d *Driver[B]) compileReleaseRegisterToStack(loc *valueLocation) {
	d.b.EmitOp(OpcodeStore, d.slot(d.spillBase+int64(loc.stackPointer)), Reg(ScratchReg(loc.scratch)))
	d.locs.releaseRegister(loc)
	d.spillCount++
	d.logger.Debug("spilled value", "function", d.fn.Name, "stack_pointer", loc.stackPointer)
}

func (d *Driver[B]) compileReleaseAllRegistersToStack() {
	for i := uint64(0); i < d.locs.sp; i++ {
		if loc := d.locs.stack[i]; loc.onRegister() {
			d.compileReleaseRegisterToStack(loc)
		}
	}
}
