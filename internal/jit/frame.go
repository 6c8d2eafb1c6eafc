package jit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tetratelabs/baselinejit/internal/asm"
)

type symbolKind byte

const (
	// symbolInitial is the value a register held on function entry.
	symbolInitial symbolKind = iota
	// symbolStack is the entry stack pointer plus off.
	symbolStack
	// symbolUnknown is any other value.
	symbolUnknown
)

type symbol struct {
	kind symbolKind
	reg  asm.Register
	off  int64
	id   int
}

// machineState symbolically evaluates LIR instructions to track the stack
// pointer and where caller-visible registers are saved. Memory is keyed by the
// offset from the entry stack pointer; addresses which are not stack relative
// are not tracked.
type machineState struct {
	table     *RegisterTable
	vocab     *Vocabulary
	frameSize int64
	regs      map[asm.Register]symbol
	mem       map[int64]symbol
	fresh     int
	returned  bool
}

func newMachineState(table *RegisterTable, vocab *Vocabulary, frameSize int64) *machineState {
	s := &machineState{
		table:     table,
		vocab:     vocab,
		frameSize: frameSize,
		regs:      map[asm.Register]symbol{},
		mem:       map[int64]symbol{},
	}
	s.regs[table.RoleToRegister(StackReg)] = symbol{kind: symbolStack}
	return s
}

func (s *machineState) read(role Role) symbol {
	reg := s.table.RoleToRegister(role)
	if v, ok := s.regs[reg]; ok {
		return v
	}
	return symbol{kind: symbolInitial, reg: reg}
}

func (s *machineState) write(role Role, v symbol) {
	s.regs[s.table.RoleToRegister(role)] = v
}

func (s *machineState) unknown() symbol {
	s.fresh++
	return symbol{kind: symbolUnknown, id: s.fresh}
}

func (s *machineState) address(mem Operand) (int64, bool) {
	base := s.read(mem.Role)
	if base.kind != symbolStack {
		return 0, false
	}
	return base.off + mem.Imm, true
}

func (s *machineState) load(addr int64) symbol {
	if v, ok := s.mem[addr]; ok {
		return v
	}
	return s.unknown()
}

// stackOffset returns the stack pointer relative to its value on entry.
func (s *machineState) stackOffset() (int64, error) {
	sp := s.read(StackReg)
	if sp.kind != symbolStack {
		return 0, fmt.Errorf("stack pointer is no longer derived from its entry value")
	}
	return sp.off, nil
}

func (s *machineState) step(in Instruction) error {
	info, ok := s.vocab.Lookup(in.Op)
	if !ok {
		return fmt.Errorf("%s is not in the %s vocabulary", in.Op, s.vocab.Arch())
	}
	word := s.table.WordSize()
	ops := in.Operands
	switch info.Effect {
	case EffectNone:
	case EffectMove:
		s.write(ops[0].Role, s.read(ops[1].Role))
	case EffectDefine:
		s.write(ops[0].Role, s.unknown())
	case EffectLoad:
		if addr, ok := s.address(ops[1]); ok {
			s.write(ops[0].Role, s.load(addr))
		} else {
			s.write(ops[0].Role, s.unknown())
		}
	case EffectStore:
		if addr, ok := s.address(ops[0]); ok {
			s.mem[addr] = s.read(ops[1].Role)
		}
	case EffectAdjustStack:
		off, err := s.stackOffset()
		if err != nil {
			return err
		}
		s.write(StackReg, symbol{kind: symbolStack, off: off + ops[0].Resolve(s.frameSize)})
	case EffectPush:
		off, err := s.stackOffset()
		if err != nil {
			return err
		}
		v := s.read(ops[0].Role)
		s.write(StackReg, symbol{kind: symbolStack, off: off - word})
		s.mem[off-word] = v
	case EffectPop:
		off, err := s.stackOffset()
		if err != nil {
			return err
		}
		v := s.load(off)
		s.write(StackReg, symbol{kind: symbolStack, off: off + word})
		s.write(ops[0].Role, v)
	case EffectStorePair:
		if addr, ok := s.address(ops[2]); ok {
			s.mem[addr] = s.read(ops[0].Role)
			s.mem[addr+word] = s.read(ops[1].Role)
		}
	case EffectLoadPair:
		if addr, ok := s.address(ops[2]); ok {
			first, second := s.load(addr), s.load(addr+word)
			s.write(ops[0].Role, first)
			s.write(ops[1].Role, second)
		} else {
			s.write(ops[0].Role, s.unknown())
			s.write(ops[1].Role, s.unknown())
		}
	case EffectLoadModify:
		if addr, ok := s.address(ops[2]); ok {
			s.write(ops[0].Role, s.load(addr))
			s.mem[addr] = s.unknown()
		} else {
			s.write(ops[0].Role, s.unknown())
		}
	case EffectCall:
		preserved := s.preservedRegisters()
		for _, role := range s.table.Roles() {
			if reg := s.table.RoleToRegister(role); !preserved[reg] {
				s.regs[reg] = s.unknown()
			}
		}
	case EffectReturn:
		s.returned = true
	default:
		return fmt.Errorf("unknown effect of %s", info.Name)
	}
	return nil
}

// preservedRegisters returns the registers whose caller-visible value must survive a call.
func (s *machineState) preservedRegisters() map[asm.Register]bool {
	ret := map[asm.Register]bool{
		s.table.RoleToRegister(FrameReg): true,
		s.table.RoleToRegister(StackReg): true,
	}
	for _, role := range s.table.CalleeSaved() {
		ret[s.table.RoleToRegister(role)] = true
	}
	return ret
}

// VerifyFrameLinkage checks that executing prologue followed by epilogue
// leaves the stack pointer and every register preserved across calls exactly
// as they were on entry.
func VerifyFrameLinkage(table *RegisterTable, vocab *Vocabulary, prologue, epilogue []Instruction, frameSize int64) error {
	s := newMachineState(table, vocab, frameSize)
	for _, in := range append(append([]Instruction(nil), prologue...), epilogue...) {
		if s.returned {
			return fmt.Errorf("instructions after return")
		}
		if err := s.step(in); err != nil {
			return err
		}
	}
	if !s.returned {
		return fmt.Errorf("epilogue does not return")
	}
	var errs []string
	if off, err := s.stackOffset(); err != nil {
		errs = append(errs, err.Error())
	} else if off != 0 {
		errs = append(errs, fmt.Sprintf("stack pointer is off by %d", off))
	}
	roles := append([]Role{FrameReg}, table.CalleeSaved()...)
	if table.HasLinkRegister() {
		roles = append(roles, LinkReg)
	}
	for _, role := range roles {
		reg := table.RoleToRegister(role)
		if v := s.read(role); v.kind != symbolInitial || v.reg != reg {
			errs = append(errs, fmt.Sprintf("%s (%s) is not restored", role, table.Name(role)))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("prologue and epilogue are not inverse on %s: %s", table.Arch(), strings.Join(errs, "; "))
	}
	return nil
}

// SavedRegister is the location of a caller's register value within the frame.
type SavedRegister struct {
	Role Role
	Name string
	// Offset is relative to the stack pointer on entry (the canonical frame address).
	Offset int64
}

// FrameDescription describes the native frame laid out by the prologue,
// sufficient to unwind it from any instruction boundary with CompiledCode.StackPointerOffset.
type FrameDescription struct {
	// FrameRole is the role which points at the frame link once the prologue ran.
	FrameRole Role
	// FrameSize is the size of the slot area reserved below the saved registers.
	FrameSize int64
	// SlotCount is the number of word-sized slots in the slot area.
	SlotCount int64
	// SavedRegisters lists caller register values saved by the prologue, ordered by offset.
	SavedRegisters []SavedRegister
	// ReturnAddressOffset is the location of the return address relative to the
	// entry stack pointer. Architectures with a link register save it with the
	// other registers, so this is where LinkReg was stored.
	ReturnAddressOffset int64
}

func describeFrame(table *RegisterTable, vocab *Vocabulary, prologue []Instruction, frameSize int64) (FrameDescription, error) {
	s := newMachineState(table, vocab, frameSize)
	for _, in := range prologue {
		if err := s.step(in); err != nil {
			return FrameDescription{}, err
		}
	}
	fd := FrameDescription{FrameRole: FrameReg, FrameSize: frameSize, SlotCount: frameSize / table.WordSize()}

	byReg := map[asm.Register]Role{}
	for _, role := range table.Roles() {
		reg := table.RoleToRegister(role)
		if _, ok := byReg[reg]; !ok {
			byReg[reg] = role
		}
	}
	linkSaved := false
	for addr, v := range s.mem {
		if v.kind != symbolInitial {
			continue
		}
		role := byReg[v.reg]
		fd.SavedRegisters = append(fd.SavedRegisters, SavedRegister{Role: role, Name: table.Name(role), Offset: addr})
		if table.HasLinkRegister() && role == LinkReg {
			fd.ReturnAddressOffset = addr
			linkSaved = true
		}
	}
	if table.HasLinkRegister() && !linkSaved {
		return FrameDescription{}, fmt.Errorf("prologue does not save the link register")
	}
	sort.Slice(fd.SavedRegisters, func(i, j int) bool {
		return fd.SavedRegisters[i].Offset > fd.SavedRegisters[j].Offset
	})
	return fd, nil
}
