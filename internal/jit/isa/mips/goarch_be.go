//go:build !mipsle

package mips

// goArch selects the byte order of the generated code. Foreign hosts
// generate big-endian code.
const goArch = "mips"
