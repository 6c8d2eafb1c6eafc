package mips

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/baselinejit/internal/jit"
)

func TestRegisters(t *testing.T) {
	require.Equal(t, "R29", registers.Name(jit.StackReg))
	require.Equal(t, "R31", registers.Name(jit.LinkReg))
	require.Equal(t, "R16", registers.Name(jit.PCReg))
	require.Equal(t, "R2", registers.Name(jit.ReturnReg))
	require.Equal(t, 4, registers.ArgRegisterCount())
}

func TestISA_FrameLinkage(t *testing.T) {
	require.Equal(t, int64(16), savedAreaSize)
	for _, slotBytes := range []int64{4, 8, 12} {
		frameSize := ISA{}.FrameSize(slotBytes)
		require.Zero(t, frameSize%8)
		require.NoError(t, jit.VerifyFrameLinkage(registers, vocabulary, prologue, epilogue, frameSize))
	}
}

func TestBackend_Finalize(t *testing.T) {
	b := jit.NewBackend[ISA](jit.BackendConfig{VerifyFrames: true})
	b.EmitPrologue()
	b.EmitOp(OpcodeMult, jit.Reg(jit.ScratchReg(0)), jit.Reg(jit.ScratchReg(1)))
	b.EmitOp(OpcodeMflo, jit.Reg(jit.ReturnReg))
	b.EmitEpilogue()
	code, err := b.Finalize(4)
	require.NoError(t, err)
	require.Zero(t, len(code.Code)%4)

	// addiu sp, sp, -16
	require.Equal(t, []byte{0x27, 0xbd, 0xff, 0xf0}, code.Code[:4])
	// jr ra followed by a nop in the delay slot.
	require.Equal(t, []byte{0x03, 0xe0, 0x00, 0x08, 0, 0, 0, 0}, code.Code[len(code.Code)-8:])

	require.Equal(t, int64(-4), code.Frame.ReturnAddressOffset)
	require.Equal(t, int64(8), code.Frame.FrameSize)
}

func TestBackend_CallIndirect(t *testing.T) {
	b := jit.NewBackend[ISA](jit.BackendConfig{})
	b.EmitPrologue()
	b.EmitOp(jit.OpcodeCallIndirect, jit.Reg(jit.ScratchReg(0)))
	b.EmitEpilogue()
	code, err := b.Finalize(4)
	require.NoError(t, err)

	// The prologue is six instructions, followed by jalr t0 and its delay slot.
	call := code.Code[4*6 : 4*8]
	require.Equal(t, []byte{0x01, 0x00, 0xf8, 0x09, 0, 0, 0, 0}, call)
}
