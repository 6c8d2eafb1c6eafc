//go:build 386 && !baselinejit_unsupported

package target

import (
	"github.com/tetratelabs/baselinejit/internal/jit"
	"github.com/tetratelabs/baselinejit/internal/jit/isa/x86"
)

// Arch is the architecture code is generated for.
const Arch = jit.ArchitectureX86

// Backend is the code generator of this build.
type Backend = jit.Backend[x86.ISA]

// NewBackend returns a backend for one compilation attempt.
func NewBackend(cfg jit.BackendConfig) *Backend {
	return jit.NewBackend[x86.ISA](cfg)
}

// Vocabulary returns the opcode vocabulary of Backend.
func Vocabulary() *jit.Vocabulary {
	return x86.ISA{}.Vocabulary()
}
