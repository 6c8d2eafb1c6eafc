package jit

import (
	"fmt"
	"strings"
)

// valueLocation corresponds to each value pushed onto the bytecode (virtual) stack,
// and it has the information about where it exists in the physical machine.
// It might exist in a scratch register, or in its slot of the native frame.
type valueLocation struct {
	// scratch is the index of the ScratchReg role holding the value,
	// or -1 if the value is stored in its frame slot.
	scratch int
	// stackPointer is the position of this value on the virtual stack,
	// which also selects its spill slot.
	stackPointer uint64
}

func (v *valueLocation) onRegister() bool {
	return v.scratch >= 0
}

func (v *valueLocation) onStack() bool {
	return v.scratch < 0
}

func (v *valueLocation) String() string {
	if v.onStack() {
		return fmt.Sprintf("stack(%d)", v.stackPointer)
	}
	return fmt.Sprintf("scratch(%d)", v.scratch)
}

func newValueLocationStack(scratchCount int) *valueLocationStack {
	return &valueLocationStack{usedScratch: make([]bool, scratchCount)}
}

// valueLocationStack represents the bytecode virtual stack
// where each item holds the location information about where it exists
// on the physical machine at runtime.
// Notably this is only used in the compilation phase, not runtime,
// and we change the state of this struct at every operation we compile.
type valueLocationStack struct {
	// stack holds all the variables.
	stack []*valueLocation
	// sp is the current stack pointer.
	sp uint64
	// usedScratch[i] is true if ScratchReg(i) holds a value.
	usedScratch []bool
	// stackPointerCeil tracks max(.sp) across the lifespan of this struct.
	stackPointerCeil uint64
}

func (s *valueLocationStack) String() string {
	var stackStr []string
	for i := uint64(0); i < s.sp; i++ {
		stackStr = append(stackStr, s.stack[i].String())
	}
	var used []string
	for i, u := range s.usedScratch {
		if u {
			used = append(used, fmt.Sprintf("%d", i))
		}
	}
	return fmt.Sprintf("sp=%d, stack=[%s], used_scratch=[%s]", s.sp, strings.Join(stackStr, ","), strings.Join(used, ","))
}

// pushValueLocationOnRegister creates a new valueLocation held by the given scratch role
// and pushes onto the location stack.
func (s *valueLocationStack) pushValueLocationOnRegister(scratch int) (loc *valueLocation) {
	loc = &valueLocation{scratch: scratch}
	s.markRegisterUsed(scratch)
	s.push(loc)
	return
}

// push pushes to a given valueLocation onto the stack.
func (s *valueLocationStack) push(loc *valueLocation) {
	loc.stackPointer = s.sp
	if s.sp >= uint64(len(s.stack)) {
		// This case we need to grow the stack capacity by appending the item,
		// rather than indexing.
		s.stack = append(s.stack, loc)
	} else {
		s.stack[s.sp] = loc
	}
	s.sp++
	if s.sp > s.stackPointerCeil {
		s.stackPointerCeil = s.sp
	}
}

func (s *valueLocationStack) pop() (loc *valueLocation) {
	s.sp--
	loc = s.stack[s.sp]
	return
}

func (s *valueLocationStack) peek() (loc *valueLocation) {
	loc = s.stack[s.sp-1]
	return
}

func (s *valueLocationStack) releaseRegister(loc *valueLocation) {
	if loc.onRegister() {
		s.markRegisterUnused(loc.scratch)
	}
	loc.scratch = -1
}

func (s *valueLocationStack) markRegisterUnused(scratch int) {
	s.usedScratch[scratch] = false
}

func (s *valueLocationStack) markRegisterUsed(scratch int) {
	s.usedScratch[scratch] = true
}

// takeFreeRegister searches for an unused scratch role.
func (s *valueLocationStack) takeFreeRegister() (scratch int, found bool) {
	for i, used := range s.usedScratch {
		if !used {
			return i, true
		}
	}
	return -1, false
}

// takeStealTargetFromUsedRegister searches through the stack, and returns the
// deepest value held in a register.
func (s *valueLocationStack) takeStealTargetFromUsedRegister() (*valueLocation, bool) {
	for i := uint64(0); i < s.sp; i++ {
		if loc := s.stack[i]; loc.onRegister() {
			return loc, true
		}
	}
	return nil, false
}
