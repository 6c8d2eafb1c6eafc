package jit

import (
	"fmt"
	"strings"

	"github.com/tetratelabs/baselinejit/internal/platform"
)

// Opcode is the tag of a low-level (LIR) instruction.
//
// Opcodes below OpcodeBaseX86 are shared by every architecture. Each
// architecture owns a disjoint range starting at its OpcodeBase constant.
// Existing values are never renumbered: code-generation tables index by them.
type Opcode uint16

// Shared opcodes.
const (
	// OpcodeNop does nothing.
	OpcodeNop Opcode = iota
	// OpcodeMove copies a register: Reg(dst), Reg(src).
	OpcodeMove
	// OpcodeMoveImm loads a constant: Reg(dst), Imm.
	OpcodeMoveImm
	// OpcodeLoad loads a word: Reg(dst), Mem.
	OpcodeLoad
	// OpcodeStore stores a word: Mem, Reg(src).
	OpcodeStore
	// OpcodeAdd is dst += src: Reg(dst), Reg(src).
	OpcodeAdd
	// OpcodeSub is dst -= src: Reg(dst), Reg(src).
	OpcodeSub
	// OpcodeMul is dst *= src: Reg(dst), Reg(src).
	OpcodeMul
	// OpcodeAnd is dst &= src: Reg(dst), Reg(src).
	OpcodeAnd
	// OpcodeOr is dst |= src: Reg(dst), Reg(src).
	OpcodeOr
	// OpcodeXor is dst ^= src: Reg(dst), Reg(src).
	OpcodeXor
	// OpcodeAdjustStack adds a delta to the stack pointer: Imm or FrameSize.
	OpcodeAdjustStack
	// OpcodeCallIndirect calls the address held in a register: Reg(target).
	OpcodeCallIndirect
	// OpcodeReturn returns to the caller.
	OpcodeReturn

	opcodeSharedEnd
)

// Base of each architecture-specific opcode range.
const (
	OpcodeBaseX86    Opcode = 0x100
	OpcodeBaseAMD64  Opcode = 0x200
	OpcodeBaseARM    Opcode = 0x300
	OpcodeBaseARM64  Opcode = 0x400
	OpcodeBaseMIPS   Opcode = 0x500
	OpcodeBaseMIPS64 Opcode = 0x600

	opcodeRangeSize = 0x100
)

// IsShared returns true if op belongs to the architecture-independent set.
func (op Opcode) IsShared() bool {
	return op < opcodeSharedEnd
}

// String implements fmt.Stringer.
//
// Architecture-specific opcodes are only named by their Vocabulary.
func (op Opcode) String() string {
	if op.IsShared() {
		return sharedOpcodes[op].Name
	}
	return fmt.Sprintf("Opcode(%#x)", uint16(op))
}

// OperandKind is the kind of operand an opcode expects at a position.
type OperandKind byte

const (
	OperandKindNone OperandKind = iota
	// OperandKindReg is a register role.
	OperandKindReg
	// OperandKindImm is a constant, or the frame size resolved at Finalize.
	OperandKindImm
	// OperandKindMem is a role-based memory address with a constant offset.
	OperandKindMem
)

// String implements fmt.Stringer.
func (k OperandKind) String() (ret string) {
	switch k {
	case OperandKindReg:
		ret = "reg"
	case OperandKindImm:
		ret = "imm"
	case OperandKindMem:
		ret = "mem"
	default:
		ret = "none"
	}
	return
}

// Effect describes what an opcode does to registers and the stack, in terms a
// symbolic evaluator understands. See VerifyFrameLinkage.
type Effect byte

const (
	// EffectNone changes no role.
	EffectNone Effect = iota
	// EffectMove copies operand 1 into operand 0.
	EffectMove
	// EffectDefine writes an unknown value to operand 0.
	EffectDefine
	// EffectLoad loads operand 0 from the memory operand 1.
	EffectLoad
	// EffectStore stores operand 1 to the memory operand 0.
	EffectStore
	// EffectAdjustStack adds operand 0 to the stack pointer.
	EffectAdjustStack
	// EffectPush decrements the stack pointer by a word and stores operand 0 there.
	EffectPush
	// EffectPop loads operand 0 from the stack pointer and increments it by a word.
	EffectPop
	// EffectStorePair stores operands 0 and 1 to consecutive words at memory operand 2.
	EffectStorePair
	// EffectLoadPair loads operands 0 and 1 from consecutive words at memory operand 2.
	EffectLoadPair
	// EffectLoadModify loads operand 0 from the memory operand 2 and writes an
	// unknown value there.
	EffectLoadModify
	// EffectCall transfers control and clobbers every register which is not callee-saved.
	EffectCall
	// EffectReturn transfers control back to the caller.
	EffectReturn
)

// OpcodeInfo describes one entry of a Vocabulary.
type OpcodeInfo struct {
	Opcode Opcode
	// Name is stable across versions. Architecture-specific names are
	// prefixed by the architecture, e.g. "amd64.push".
	Name     string
	Operands []OperandKind
	Effect   Effect
	// Feature is the CPU feature required to emit this opcode, or zero.
	Feature platform.CpuFeature
}

// Arity returns the number of operands.
func (i *OpcodeInfo) Arity() int {
	return len(i.Operands)
}

// Signature returns a string of the name and operand kinds, e.g. "add reg,reg".
func (i *OpcodeInfo) Signature() string {
	kinds := make([]string, len(i.Operands))
	for j, k := range i.Operands {
		kinds[j] = k.String()
	}
	return strings.TrimSpace(i.Name + " " + strings.Join(kinds, ","))
}

var (
	regReg = []OperandKind{OperandKindReg, OperandKindReg}

	sharedOpcodes = [opcodeSharedEnd]OpcodeInfo{
		OpcodeNop:          {Opcode: OpcodeNop, Name: "nop", Effect: EffectNone},
		OpcodeMove:         {Opcode: OpcodeMove, Name: "move", Operands: regReg, Effect: EffectMove},
		OpcodeMoveImm:      {Opcode: OpcodeMoveImm, Name: "move_imm", Operands: []OperandKind{OperandKindReg, OperandKindImm}, Effect: EffectDefine},
		OpcodeLoad:         {Opcode: OpcodeLoad, Name: "load", Operands: []OperandKind{OperandKindReg, OperandKindMem}, Effect: EffectLoad},
		OpcodeStore:        {Opcode: OpcodeStore, Name: "store", Operands: []OperandKind{OperandKindMem, OperandKindReg}, Effect: EffectStore},
		OpcodeAdd:          {Opcode: OpcodeAdd, Name: "add", Operands: regReg, Effect: EffectDefine},
		OpcodeSub:          {Opcode: OpcodeSub, Name: "sub", Operands: regReg, Effect: EffectDefine},
		OpcodeMul:          {Opcode: OpcodeMul, Name: "mul", Operands: regReg, Effect: EffectDefine},
		OpcodeAnd:          {Opcode: OpcodeAnd, Name: "and", Operands: regReg, Effect: EffectDefine},
		OpcodeOr:           {Opcode: OpcodeOr, Name: "or", Operands: regReg, Effect: EffectDefine},
		OpcodeXor:          {Opcode: OpcodeXor, Name: "xor", Operands: regReg, Effect: EffectDefine},
		OpcodeAdjustStack:  {Opcode: OpcodeAdjustStack, Name: "adjust_stack", Operands: []OperandKind{OperandKindImm}, Effect: EffectAdjustStack},
		OpcodeCallIndirect: {Opcode: OpcodeCallIndirect, Name: "call_indirect", Operands: []OperandKind{OperandKindReg}, Effect: EffectCall},
		OpcodeReturn:       {Opcode: OpcodeReturn, Name: "return", Effect: EffectReturn},
	}
)

// SharedOpcodes returns the architecture-independent opcodes in numeric order.
func SharedOpcodes() []OpcodeInfo {
	return append([]OpcodeInfo(nil), sharedOpcodes[:]...)
}

// Vocabulary is the closed set of opcodes one architecture accepts: the shared
// opcodes followed by the architecture's own extension.
type Vocabulary struct {
	arch      Architecture
	base      Opcode
	extension []OpcodeInfo
	byName    map[string]Opcode
}

// NewVocabulary builds the vocabulary of arch. Extension entries must be
// numbered densely from base and named "<prefix>.<mnemonic>".
//
// This panics on a malformed extension, which can only happen at package initialization.
func NewVocabulary(arch Architecture, prefix string, base Opcode, extension []OpcodeInfo) *Vocabulary {
	v := &Vocabulary{
		arch:      arch,
		base:      base,
		extension: append([]OpcodeInfo(nil), extension...),
		byName:    make(map[string]Opcode, int(opcodeSharedEnd)+len(extension)),
	}
	if base < OpcodeBaseX86 || base%opcodeRangeSize != 0 || len(extension) >= opcodeRangeSize {
		panic(fmt.Sprintf("BUG: invalid opcode range %#x for %s", uint16(base), arch))
	}
	for i := range sharedOpcodes {
		v.byName[sharedOpcodes[i].Name] = sharedOpcodes[i].Opcode
	}
	for i := range v.extension {
		info := &v.extension[i]
		if info.Opcode != base+Opcode(i) {
			panic(fmt.Sprintf("BUG: %s must be numbered %#x but was %#x", info.Name, uint16(base)+uint16(i), uint16(info.Opcode)))
		}
		if !strings.HasPrefix(info.Name, prefix+".") {
			panic(fmt.Sprintf("BUG: %s must be prefixed with %q", info.Name, prefix+"."))
		}
		if _, ok := v.byName[info.Name]; ok {
			panic(fmt.Sprintf("BUG: duplicate opcode name %s", info.Name))
		}
		v.byName[info.Name] = info.Opcode
	}
	return v
}

// Arch returns the architecture of this vocabulary.
func (v *Vocabulary) Arch() Architecture {
	return v.arch
}

// Lookup returns the description of op, or false if op is not part of this vocabulary.
func (v *Vocabulary) Lookup(op Opcode) (*OpcodeInfo, bool) {
	if op.IsShared() {
		return &sharedOpcodes[op], true
	}
	if op >= v.base && int(op-v.base) < len(v.extension) {
		return &v.extension[op-v.base], true
	}
	return nil, false
}

// ByName returns the opcode with the given stable name.
func (v *Vocabulary) ByName(name string) (Opcode, bool) {
	op, ok := v.byName[name]
	return op, ok
}

// Name returns the name of op, or its numeric form if op is not part of this vocabulary.
func (v *Vocabulary) Name(op Opcode) string {
	if info, ok := v.Lookup(op); ok {
		return info.Name
	}
	return op.String()
}

// Extension returns the architecture-specific entries in numeric order.
func (v *Vocabulary) Extension() []OpcodeInfo {
	return v.extension
}

// Opcodes returns every opcode of this vocabulary in numeric order.
func (v *Vocabulary) Opcodes() []Opcode {
	ret := make([]Opcode, 0, int(opcodeSharedEnd)+len(v.extension))
	for i := range sharedOpcodes {
		ret = append(ret, sharedOpcodes[i].Opcode)
	}
	for i := range v.extension {
		ret = append(ret, v.extension[i].Opcode)
	}
	return ret
}
