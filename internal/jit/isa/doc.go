// Package isa holds one sub-package per architecture. Each sub-package
// defines a zero-size ISA type for jit.Backend, the register role table and
// the opcode vocabulary of that architecture.
//
// Sub-packages are imported directly only by tests and tools which generate
// code for a foreign architecture. Everything else goes through package
// target, which selects the ISA of the build.
package isa
