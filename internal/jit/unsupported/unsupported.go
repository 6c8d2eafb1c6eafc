// Package unsupported holds the code generator of builds whose GOARCH has no
// backend.
package unsupported

import (
	"runtime"

	"github.com/tetratelabs/baselinejit/internal/jit"
)

// Backend is the CodeGenerator of unsupported architectures. It can not be
// constructed: NewBackend panics, and so does every method.
type Backend struct{}

var _ jit.CodeGenerator = (*Backend)(nil)

// NewBackend panics. Reaching it means the build configuration selected no
// backend, which callers can check beforehand with target.Supported.
func NewBackend(jit.BackendConfig) *Backend {
	panic(panicMessage())
}

func panicMessage() string {
	return "unsupported GOARCH " + runtime.GOARCH
}

// Arch implements jit.CodeGenerator.
func (*Backend) Arch() jit.Architecture { panic(panicMessage()) }

// Registers implements jit.CodeGenerator.
func (*Backend) Registers() *jit.RegisterTable { panic(panicMessage()) }

// Vocabulary implements jit.CodeGenerator.
func (*Backend) Vocabulary() *jit.Vocabulary { panic(panicMessage()) }

// State implements jit.CodeGenerator.
func (*Backend) State() jit.BackendState { panic(panicMessage()) }

// EmitPrologue implements jit.CodeGenerator.
func (*Backend) EmitPrologue() { panic(panicMessage()) }

// EmitEpilogue implements jit.CodeGenerator.
func (*Backend) EmitEpilogue() { panic(panicMessage()) }

// EmitOp implements jit.CodeGenerator.
func (*Backend) EmitOp(jit.Opcode, ...jit.Operand) { panic(panicMessage()) }

// AddRelocation implements jit.CodeGenerator.
func (*Backend) AddRelocation(jit.RelocationKind, uint32) { panic(panicMessage()) }

// Finalize implements jit.CodeGenerator.
func (*Backend) Finalize(int64) (*jit.CompiledCode, error) { panic(panicMessage()) }

// Fail implements jit.CodeGenerator.
func (*Backend) Fail() { panic(panicMessage()) }
