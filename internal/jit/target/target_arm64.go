//go:build arm64 && !baselinejit_unsupported

package target

import (
	"github.com/tetratelabs/baselinejit/internal/jit"
	"github.com/tetratelabs/baselinejit/internal/jit/isa/arm64"
)

// Arch is the architecture code is generated for.
const Arch = jit.ArchitectureARM64

// Backend is the code generator of this build.
type Backend = jit.Backend[arm64.ISA]

// NewBackend returns a backend for one compilation attempt.
func NewBackend(cfg jit.BackendConfig) *Backend {
	return jit.NewBackend[arm64.ISA](cfg)
}

// Vocabulary returns the opcode vocabulary of Backend.
func Vocabulary() *jit.Vocabulary {
	return arm64.ISA{}.Vocabulary()
}
