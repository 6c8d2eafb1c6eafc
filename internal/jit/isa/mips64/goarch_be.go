//go:build !mips64le

package mips64

// goArch selects the byte order of the generated code. Foreign hosts
// generate big-endian code.
const goArch = "mips64"
