//go:build (mips || mipsle) && !baselinejit_unsupported

package target

import (
	"github.com/tetratelabs/baselinejit/internal/jit"
	"github.com/tetratelabs/baselinejit/internal/jit/isa/mips"
)

// Arch is the architecture code is generated for.
const Arch = jit.ArchitectureMIPS32

// Backend is the code generator of this build.
type Backend = jit.Backend[mips.ISA]

// NewBackend returns a backend for one compilation attempt.
func NewBackend(cfg jit.BackendConfig) *Backend {
	return jit.NewBackend[mips.ISA](cfg)
}

// Vocabulary returns the opcode vocabulary of Backend.
func Vocabulary() *jit.Vocabulary {
	return mips.ISA{}.Vocabulary()
}
