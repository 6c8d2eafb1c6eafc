//go:build amd64 && !baselinejit_unsupported

package target

import (
	"github.com/tetratelabs/baselinejit/internal/jit"
	"github.com/tetratelabs/baselinejit/internal/jit/isa/amd64"
)

// Arch is the architecture code is generated for.
const Arch = jit.ArchitectureX64

// Backend is the code generator of this build.
type Backend = jit.Backend[amd64.ISA]

// NewBackend returns a backend for one compilation attempt.
func NewBackend(cfg jit.BackendConfig) *Backend {
	return jit.NewBackend[amd64.ISA](cfg)
}

// Vocabulary returns the opcode vocabulary of Backend.
func Vocabulary() *jit.Vocabulary {
	return amd64.ISA{}.Vocabulary()
}
