//go:build !baselinejit_debug

package jit

// debugVerifyFrames forces BackendConfig.VerifyFrames. Enable it with -tags baselinejit_debug.
const debugVerifyFrames = false
