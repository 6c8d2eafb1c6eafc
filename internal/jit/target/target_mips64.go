//go:build (mips64 || mips64le) && !baselinejit_unsupported

package target

import (
	"github.com/tetratelabs/baselinejit/internal/jit"
	"github.com/tetratelabs/baselinejit/internal/jit/isa/mips64"
)

// Arch is the architecture code is generated for.
const Arch = jit.ArchitectureMIPS64

// Backend is the code generator of this build.
type Backend = jit.Backend[mips64.ISA]

// NewBackend returns a backend for one compilation attempt.
func NewBackend(cfg jit.BackendConfig) *Backend {
	return jit.NewBackend[mips64.ISA](cfg)
}

// Vocabulary returns the opcode vocabulary of Backend.
func Vocabulary() *jit.Vocabulary {
	return mips64.ISA{}.Vocabulary()
}
