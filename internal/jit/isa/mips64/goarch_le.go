//go:build mips64le

package mips64

const goArch = "mips64le"
