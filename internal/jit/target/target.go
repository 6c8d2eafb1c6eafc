// Package target selects the backend of the GOARCH being built, so that the
// rest of the module never names an architecture.
package target

import (
	"log/slog"

	"github.com/tetratelabs/baselinejit/internal/jit"
)

// Supported is true when this build generates native code.
const Supported = Arch != jit.ArchitectureUnsupported

// Compiler compiles one function with the backend of this build.
type Compiler = jit.Driver[*Backend]

// NewCompiler returns a Compiler for fn. Every call to Compile uses a new backend.
func NewCompiler(fn *jit.Function, cfg jit.BackendConfig, logger *slog.Logger) *Compiler {
	return jit.NewDriver(fn, func() *Backend { return NewBackend(cfg) }, logger)
}
