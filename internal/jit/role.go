package jit

import (
	"fmt"

	"github.com/twitchyliquid64/golang-asm/obj"

	"github.com/tetratelabs/baselinejit/internal/asm"
)

// RoleKind is the logical purpose of a register.
type RoleKind byte

const (
	RoleKindFrame RoleKind = iota
	RoleKindStack
	RoleKindLink
	RoleKindPC
	RoleKindReturn
	RoleKindScratch
	RoleKindArg
)

// String implements fmt.Stringer.
func (k RoleKind) String() (ret string) {
	switch k {
	case RoleKindFrame:
		ret = "frame"
	case RoleKindStack:
		ret = "stack"
	case RoleKindLink:
		ret = "link"
	case RoleKindPC:
		ret = "pc"
	case RoleKindReturn:
		ret = "return"
	case RoleKindScratch:
		ret = "scratch"
	case RoleKindArg:
		ret = "arg"
	default:
		ret = fmt.Sprintf("RoleKind(%d)", k)
	}
	return
}

// Role is a logical register role, independent of the physical register
// which implements it on a given architecture.
type Role struct {
	Kind RoleKind
	// Index is only meaningful for RoleKindScratch and RoleKindArg.
	Index int
}

var (
	// FrameReg holds the frame pointer.
	FrameReg = Role{Kind: RoleKindFrame}
	// StackReg is the native stack pointer.
	StackReg = Role{Kind: RoleKindStack}
	// LinkReg holds the return address on architectures with a link register.
	LinkReg = Role{Kind: RoleKindLink}
	// PCReg holds the interpreter bytecode position across runtime calls.
	PCReg = Role{Kind: RoleKindPC}
	// ReturnReg holds the result of a function or runtime call.
	ReturnReg = Role{Kind: RoleKindReturn}
)

// ScratchReg returns the n-th scratch role.
func ScratchReg(n int) Role {
	return Role{Kind: RoleKindScratch, Index: n}
}

// ArgReg returns the n-th argument role.
func ArgReg(n int) Role {
	return Role{Kind: RoleKindArg, Index: n}
}

// String implements fmt.Stringer.
func (r Role) String() string {
	switch r.Kind {
	case RoleKindScratch, RoleKindArg:
		return fmt.Sprintf("%s[%d]", r.Kind, r.Index)
	default:
		return r.Kind.String()
	}
}

// RegisterTableConfig is the input to NewRegisterTable.
type RegisterTableConfig struct {
	Arch                     Architecture
	Frame, Stack, PC, Return asm.Register
	Link                     asm.Register
	Scratch, Args            []asm.Register
	CalleeSaved              []Role
	WordSize                 int64
	StackAlignment           int64
}

// RegisterTable maps register roles to physical registers of one architecture.
//
// Tables are built once at package initialization and never modified, so they
// are safely shared by concurrent compilations.
type RegisterTable struct {
	arch                     Architecture
	frame, stack, pc, ret    asm.Register
	link                     asm.Register
	scratch, args            []asm.Register
	calleeSaved              []Role
	wordSize, stackAlignment int64
}

// NewRegisterTable validates cfg and returns the table.
//
// A table which is not total, or which assigns one physical register to two
// roles which are not allowed to alias, is a programming error and panics.
// Only ReturnReg and ArgReg(0) may share a register.
func NewRegisterTable(cfg RegisterTableConfig) *RegisterTable {
	t := &RegisterTable{
		arch:           cfg.Arch,
		frame:          cfg.Frame,
		stack:          cfg.Stack,
		pc:             cfg.PC,
		ret:            cfg.Return,
		link:           cfg.Link,
		scratch:        append([]asm.Register(nil), cfg.Scratch...),
		args:           append([]asm.Register(nil), cfg.Args...),
		calleeSaved:    append([]Role(nil), cfg.CalleeSaved...),
		wordSize:       cfg.WordSize,
		stackAlignment: cfg.StackAlignment,
	}
	if err := t.validate(); err != nil {
		panic(fmt.Sprintf("BUG: invalid register table for %s: %v", cfg.Arch, err))
	}
	return t
}

func (t *RegisterTable) validate() error {
	if t.wordSize != 4 && t.wordSize != 8 {
		return fmt.Errorf("word size must be 4 or 8 but was %d", t.wordSize)
	}
	if t.stackAlignment < t.wordSize || t.stackAlignment&(t.stackAlignment-1) != 0 {
		return fmt.Errorf("invalid stack alignment %d", t.stackAlignment)
	}
	if len(t.scratch) == 0 {
		return fmt.Errorf("at least one scratch register is required")
	}
	if len(t.args) == 0 {
		return fmt.Errorf("at least one argument register is required")
	}
	owners := map[asm.Register]Role{}
	for _, role := range t.Roles() {
		reg := t.lookup(role)
		if reg == asm.NilRegister {
			return fmt.Errorf("%s is not mapped", role)
		}
		if prev, ok := owners[reg]; ok && !aliasable(prev, role) {
			return fmt.Errorf("%s and %s both map to %s", prev, role, obj.Rconv(int(reg)))
		}
		owners[reg] = role
	}
	for _, role := range t.calleeSaved {
		if !t.Has(role) {
			return fmt.Errorf("callee-saved %s is not mapped", role)
		}
		switch role.Kind {
		case RoleKindFrame, RoleKindStack, RoleKindLink:
			return fmt.Errorf("%s is preserved by the frame link and cannot be listed as callee-saved", role)
		}
	}
	return nil
}

func aliasable(a, b Role) bool {
	return (a == ReturnReg && b == ArgReg(0)) || (a == ArgReg(0) && b == ReturnReg)
}

// Arch returns the architecture of this table.
func (t *RegisterTable) Arch() Architecture {
	return t.arch
}

// WordSize returns the size of a general purpose register in bytes.
func (t *RegisterTable) WordSize() int64 {
	return t.wordSize
}

// StackAlignment returns the alignment of the stack pointer required at call boundaries.
func (t *RegisterTable) StackAlignment() int64 {
	return t.stackAlignment
}

// ScratchRegisterCount returns the number of ScratchReg roles.
func (t *RegisterTable) ScratchRegisterCount() int {
	return len(t.scratch)
}

// ArgRegisterCount returns the number of ArgReg roles.
func (t *RegisterTable) ArgRegisterCount() int {
	return len(t.args)
}

// HasLinkRegister returns true if the return address is held in LinkReg on calls.
func (t *RegisterTable) HasLinkRegister() bool {
	return t.link != asm.NilRegister
}

// CalleeSaved returns the roles which the prologue saves and the epilogue restores,
// in addition to the frame and link registers.
func (t *RegisterTable) CalleeSaved() []Role {
	return t.calleeSaved
}

// Roles returns every role defined for this architecture.
func (t *RegisterTable) Roles() []Role {
	roles := []Role{FrameReg, StackReg}
	if t.HasLinkRegister() {
		roles = append(roles, LinkReg)
	}
	roles = append(roles, PCReg, ReturnReg)
	for i := range t.scratch {
		roles = append(roles, ScratchReg(i))
	}
	for i := range t.args {
		roles = append(roles, ArgReg(i))
	}
	return roles
}

// Has returns true if role is defined for this architecture.
func (t *RegisterTable) Has(role Role) bool {
	return t.lookup(role) != asm.NilRegister
}

// RoleToRegister returns the physical register which implements role.
//
// Asking for a role the architecture does not define is a contract violation.
func (t *RegisterTable) RoleToRegister(role Role) asm.Register {
	reg := t.lookup(role)
	if reg == asm.NilRegister {
		panic(&ContractViolation{Reason: fmt.Sprintf("%s is not defined on %s", role, t.arch)})
	}
	return reg
}

// Name returns the assembler name of the register implementing role, e.g. "R12".
func (t *RegisterTable) Name(role Role) string {
	return obj.Rconv(int(t.RoleToRegister(role)))
}

func (t *RegisterTable) lookup(role Role) asm.Register {
	switch role.Kind {
	case RoleKindFrame:
		return t.frame
	case RoleKindStack:
		return t.stack
	case RoleKindLink:
		return t.link
	case RoleKindPC:
		return t.pc
	case RoleKindReturn:
		return t.ret
	case RoleKindScratch:
		if role.Index >= 0 && role.Index < len(t.scratch) {
			return t.scratch[role.Index]
		}
	case RoleKindArg:
		if role.Index >= 0 && role.Index < len(t.args) {
			return t.args[role.Index]
		}
	}
	return asm.NilRegister
}
