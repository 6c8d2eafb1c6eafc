//go:build !(386 || amd64 || arm || arm64 || mips || mipsle || mips64 || mips64le) || baselinejit_unsupported

package baselinejit

// CompilerSupported is true when this build generates native code. When
// false, Compiler.Compile panics and callers must interpret instead.
const CompilerSupported = false
