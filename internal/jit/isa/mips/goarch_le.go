//go:build mipsle

package mips

const goArch = "mipsle"
