package jit

import (
	"fmt"

	"github.com/tetratelabs/baselinejit/internal/asm"
	"github.com/tetratelabs/baselinejit/internal/asm/golang_asm"
	"github.com/tetratelabs/baselinejit/internal/platform"
)

// ISA is implemented by a zero-size type per architecture. Backend is
// parametrized by it, so the architecture is fixed when the calling code is
// compiled and every call below is statically dispatched.
type ISA interface {
	// Arch returns the architecture identifier.
	Arch() Architecture
	// GoArch returns the golang-asm architecture name, e.g. "amd64".
	GoArch() string
	// Registers returns the register role table. It must return the same,
	// package-level table on every call.
	Registers() *RegisterTable
	// Vocabulary returns the opcode vocabulary. It must return the same,
	// package-level vocabulary on every call.
	Vocabulary() *Vocabulary
	// Prologue returns the instructions which link a new frame, save the
	// callee-saved roles and reserve FrameSize bytes.
	Prologue() []Instruction
	// Epilogue returns the exact inverse of Prologue, ending with OpcodeReturn.
	Epilogue() []Instruction
	// FrameSize returns the size of the slot area to reserve so that slotBytes
	// fit and the stack pointer is aligned after the prologue.
	FrameSize(slotBytes int64) int64
	// Lower appends the machine instructions for in, which has been validated
	// against the vocabulary.
	Lower(e *Emitter, in Instruction)
}

// CodeGenerator is the set of operations the Driver needs from a backend.
// Backend and the unsupported stub implement it.
type CodeGenerator interface {
	Arch() Architecture
	Registers() *RegisterTable
	Vocabulary() *Vocabulary
	State() BackendState
	EmitPrologue()
	EmitEpilogue()
	EmitOp(op Opcode, operands ...Operand)
	AddRelocation(kind RelocationKind, symbol uint32)
	Finalize(slotBytes int64) (*CompiledCode, error)
	Fail()
}

// BackendState is the lifecycle state of a backend instance.
type BackendState byte

const (
	BackendStateConstructed BackendState = iota
	BackendStateEmitting
	BackendStateFinalized
	BackendStateFailed
)

// String implements fmt.Stringer.
func (s BackendState) String() (ret string) {
	switch s {
	case BackendStateConstructed:
		ret = "constructed"
	case BackendStateEmitting:
		ret = "emitting"
	case BackendStateFinalized:
		ret = "finalized"
	case BackendStateFailed:
		ret = "failed"
	}
	return
}

// BackendConfig configures a backend instance.
type BackendConfig struct {
	// Features are the CPU features feature-gated opcodes may rely on.
	Features platform.CpuFeatureFlags
	// VerifyFrames checks the prologue/epilogue inverse law at Finalize.
	VerifyFrames bool
}

// DefaultBackendConfig uses the host CPU features.
func DefaultBackendConfig() BackendConfig {
	return BackendConfig{Features: platform.CpuFeatures}
}

type pendingRelocation struct {
	kind   RelocationKind
	symbol uint32
	// index is the LIR index of the instruction the relocation applies to.
	index int
}

// Backend generates code for one function on the architecture I.
//
// A Backend is used for exactly one compilation attempt and is not safe for
// concurrent use. Its state is confined to its own buffers.
type Backend[I ISA] struct {
	isa   I
	cfg   BackendConfig
	state BackendState

	table   *RegisterTable
	vocab   *Vocabulary
	asm     *golang_asm.GolangAsmBaseAssembler
	emitter *Emitter

	lir []Instruction
	// nodes[i] is the first machine instruction of lir[i].
	nodes []asm.Node

	relocations        []pendingRelocation
	pendingRelocations []pendingRelocation

	prologueEnd int
	epilogues   [][2]int
}

// NewBackend returns a backend in BackendStateConstructed.
func NewBackend[I ISA](cfg BackendConfig) *Backend[I] {
	var isa I
	a, err := golang_asm.NewGolangAsmBaseAssembler(isa.GoArch())
	if err != nil {
		panic(fmt.Sprintf("BUG: %v", err))
	}
	return &Backend[I]{isa: isa, cfg: cfg, asm: a, prologueEnd: -1}
}

// Arch returns the architecture of I.
func (b *Backend[I]) Arch() Architecture {
	return b.isa.Arch()
}

// Registers returns the register role table of I.
func (b *Backend[I]) Registers() *RegisterTable {
	return b.isa.Registers()
}

// Vocabulary returns the opcode vocabulary of I.
func (b *Backend[I]) Vocabulary() *Vocabulary {
	return b.isa.Vocabulary()
}

// State returns the lifecycle state.
func (b *Backend[I]) State() BackendState {
	return b.state
}

// LIR returns the instructions emitted so far.
func (b *Backend[I]) LIR() []Instruction {
	return b.lir
}

func (b *Backend[I]) ensureEmitting(op string) {
	switch b.state {
	case BackendStateConstructed:
		b.table = b.isa.Registers()
		b.vocab = b.isa.Vocabulary()
		b.emitter = newEmitter(b.asm, b.table)
		b.state = BackendStateEmitting
	case BackendStateEmitting:
	default:
		violate(op, "backend is %s", b.state)
	}
}

// EmitPrologue emits the frame setup. It must be the first emission.
func (b *Backend[I]) EmitPrologue() {
	b.ensureEmitting("prologue")
	if b.prologueEnd >= 0 || len(b.lir) > 0 {
		violate("prologue", "prologue must be emitted first and only once")
	}
	for _, in := range b.isa.Prologue() {
		b.emit(in)
	}
	b.prologueEnd = len(b.lir)
}

// EmitEpilogue emits the frame teardown and return.
func (b *Backend[I]) EmitEpilogue() {
	b.ensureEmitting("epilogue")
	if b.prologueEnd < 0 {
		violate("epilogue", "epilogue without prologue")
	}
	start := len(b.lir)
	for _, in := range b.isa.Epilogue() {
		b.emit(in)
	}
	b.epilogues = append(b.epilogues, [2]int{start, len(b.lir)})
}

// EmitOp appends one instruction.
//
// Operands which do not match the opcode's signature are a contract violation.
func (b *Backend[I]) EmitOp(op Opcode, operands ...Operand) {
	b.ensureEmitting(op.String())
	b.emit(Instruction{Op: op, Operands: operands})
}

// AddRelocation attaches a relocation to the next emitted instruction.
func (b *Backend[I]) AddRelocation(kind RelocationKind, symbol uint32) {
	b.ensureEmitting("relocation")
	b.pendingRelocations = append(b.pendingRelocations, pendingRelocation{kind: kind, symbol: symbol})
}

func (b *Backend[I]) emit(in Instruction) {
	info, ok := b.vocab.Lookup(in.Op)
	if !ok {
		violate(in.Op.String(), "not in the %s vocabulary", b.vocab.Arch())
	}
	if info.Feature != 0 && !b.cfg.Features.Has(info.Feature) {
		violate(info.Name, "requires CPU feature %s", info.Feature)
	}
	if len(in.Operands) != info.Arity() {
		violate(info.Name, "expects %d operands but got %d", info.Arity(), len(in.Operands))
	}
	for i, o := range in.Operands {
		if o.Kind != info.Operands[i] {
			violate(info.Name, "operand %d must be %s but was %s", i, info.Operands[i], o.Kind)
		}
		if (o.Kind == OperandKindReg || o.Kind == OperandKindMem) && !b.table.Has(o.Role) {
			violate(info.Name, "operand %d: %s is not defined on %s", i, o.Role, b.table.Arch())
		}
	}

	b.emitter.beginInstruction()
	b.isa.Lower(b.emitter, in)
	if b.emitter.first == nil {
		violate(info.Name, "lowered to no machine instruction")
	}

	index := len(b.lir)
	b.lir = append(b.lir, in)
	b.nodes = append(b.nodes, b.emitter.first)
	for _, r := range b.pendingRelocations {
		r.index = index
		b.relocations = append(b.relocations, r)
	}
	b.pendingRelocations = b.pendingRelocations[:0]
}

// Finalize assembles the function. slotBytes is the size of the slot area the
// driver addresses relative to the stack pointer.
func (b *Backend[I]) Finalize(slotBytes int64) (*CompiledCode, error) {
	b.ensureEmitting("finalize")
	if b.prologueEnd < 0 || len(b.epilogues) == 0 {
		violate("finalize", "function has no prologue or no epilogue")
	}
	if len(b.pendingRelocations) > 0 {
		violate("finalize", "relocation not followed by an instruction")
	}

	frameSize := b.isa.FrameSize(slotBytes)
	for _, p := range b.emitter.framePatches {
		p.node.AssignSourceConstant(p.operand.Resolve(frameSize))
	}

	prologue := b.lir[:b.prologueEnd]
	if b.cfg.VerifyFrames || debugVerifyFrames {
		for _, r := range b.epilogues {
			if err := VerifyFrameLinkage(b.table, b.vocab, prologue, b.lir[r[0]:r[1]], frameSize); err != nil {
				violate("finalize", "%v", err)
			}
		}
	}

	frame, err := describeFrame(b.table, b.vocab, prologue, frameSize)
	if err != nil {
		violate("finalize", "%v", err)
	}
	frame.SlotCount = slotBytes / b.table.WordSize()

	ret := &CompiledCode{
		Arch:       b.isa.Arch(),
		Frame:      frame,
		LIR:        b.lir,
		vocabulary: b.vocab,
		stackMap:   newStackMap(),
		Metadata: Metadata{
			InstructionCount:     len(b.lir),
			ScratchRegisterCount: b.table.ScratchRegisterCount(),
		},
	}
	b.asm.AddOnGenerateCallBack(func(code []byte) error {
		return b.resolveOffsets(ret, code, frameSize)
	})

	code, err := b.asm.Assemble()
	if err != nil {
		b.Fail()
		return nil, fmt.Errorf("%w: %v", ErrInternalCompilerError, err)
	}
	if len(code) == 0 {
		b.Fail()
		return nil, fmt.Errorf("%w: assembler produced no code", ErrInternalCompilerError)
	}
	ret.Code = code

	b.state = BackendStateFinalized
	b.release()
	return ret, nil
}

// resolveOffsets fills relocation offsets and the stack map once the machine
// instructions have their final offsets.
func (b *Backend[I]) resolveOffsets(c *CompiledCode, code []byte, frameSize int64) error {
	offsetOf := func(i int) (int64, error) {
		off := int64(b.nodes[i].OffsetInBinary())
		if off > int64(len(code)) {
			return 0, fmt.Errorf("instruction %d at offset %d is outside of the code of size %d", i, off, len(code))
		}
		return off, nil
	}

	for _, r := range b.relocations {
		off, err := offsetOf(r.index)
		if err != nil {
			return err
		}
		c.Relocations = append(c.Relocations, Relocation{Kind: r.kind, Offset: off, Symbol: r.symbol})
	}

	s := newMachineState(b.table, b.vocab, frameSize)
	c.stackMap.ReplaceOrInsert(StackMapEntry{PC: 0, StackPointerOffset: 0})
	current := int64(0)
	for i, in := range b.lir {
		if err := s.step(in); err != nil {
			return err
		}
		next, err := s.stackOffset()
		if err != nil {
			return err
		}
		if next == current || i+1 == len(b.lir) {
			continue
		}
		pc, err := offsetOf(i + 1)
		if err != nil {
			return err
		}
		c.stackMap.ReplaceOrInsert(StackMapEntry{PC: pc, StackPointerOffset: next})
		current = next
	}
	return nil
}

// Fail abandons the attempt and releases the partially built code.
func (b *Backend[I]) Fail() {
	b.state = BackendStateFailed
	b.release()
}

func (b *Backend[I]) release() {
	b.asm = nil
	b.emitter = nil
	b.nodes = nil
	b.relocations = nil
	b.pendingRelocations = nil
	if b.state == BackendStateFailed {
		b.lir = nil
	}
}

// AlignUp rounds v up to a multiple of align, which must be a power of two.
func AlignUp(v, align int64) int64 {
	return (v + align - 1) &^ (align - 1)
}
