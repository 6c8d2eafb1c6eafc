//go:build !(386 || amd64 || arm || arm64 || mips || mipsle || mips64 || mips64le) || baselinejit_unsupported

package target

import (
	"github.com/tetratelabs/baselinejit/internal/jit"
	"github.com/tetratelabs/baselinejit/internal/jit/unsupported"
)

// Arch is the architecture code is generated for.
const Arch = jit.ArchitectureUnsupported

// Backend is the code generator of this build.
type Backend = unsupported.Backend

// NewBackend panics: this build has no backend.
func NewBackend(cfg jit.BackendConfig) *Backend {
	return unsupported.NewBackend(cfg)
}

// Vocabulary panics: this build has no backend.
func Vocabulary() *jit.Vocabulary {
	return (&unsupported.Backend{}).Vocabulary()
}
