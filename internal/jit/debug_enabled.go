//go:build baselinejit_debug

package jit

const debugVerifyFrames = true
