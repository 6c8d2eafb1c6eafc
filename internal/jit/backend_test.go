package jit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/baselinejit/internal/jit"
	"github.com/tetratelabs/baselinejit/internal/jit/isa/amd64"
)

func requireViolation(t *testing.T, expReason string, f func()) {
	defer func() {
		r := recover()
		cv, ok := r.(*jit.ContractViolation)
		require.True(t, ok, "expected a contract violation but got %v", r)
		require.Contains(t, cv.Reason, expReason)
	}()
	f()
}

func TestBackend_Lifecycle(t *testing.T) {
	b := newAmd64Backend()
	require.Equal(t, jit.BackendStateConstructed, b.State())
	require.Equal(t, jit.ArchitectureX64, b.Arch())

	b.EmitPrologue()
	require.Equal(t, jit.BackendStateEmitting, b.State())
	require.Len(t, b.LIR(), len(amd64.ISA{}.Prologue()))

	b.EmitOp(jit.OpcodeMoveImm, jit.Reg(jit.ReturnReg), jit.Imm(1))
	b.EmitEpilogue()
	code, err := b.Finalize(0)
	require.NoError(t, err)
	require.Equal(t, jit.BackendStateFinalized, b.State())
	require.Equal(t, b.LIR(), code.LIR)

	requireViolation(t, "backend is finalized", func() { b.EmitOp(jit.OpcodeNop) })
}

func TestBackend_ContractViolations(t *testing.T) {
	for _, tc := range []struct {
		name      string
		emit      func(b *amd64Backend)
		expReason string
	}{
		{
			name:      "epilogue without prologue",
			emit:      func(b *amd64Backend) { b.EmitEpilogue() },
			expReason: "epilogue without prologue",
		},
		{
			name:      "prologue twice",
			emit:      func(b *amd64Backend) { b.EmitPrologue(); b.EmitPrologue() },
			expReason: "prologue must be emitted first and only once",
		},
		{
			name:      "finalize without epilogue",
			emit:      func(b *amd64Backend) { b.EmitPrologue(); _, _ = b.Finalize(0) },
			expReason: "function has no prologue or no epilogue",
		},
		{
			name: "dangling relocation",
			emit: func(b *amd64Backend) {
				b.EmitPrologue()
				b.EmitEpilogue()
				b.AddRelocation(jit.RelocationRuntimeTableSlot, 1)
				_, _ = b.Finalize(0)
			},
			expReason: "relocation not followed by an instruction",
		},
		{
			name:      "unknown opcode",
			emit:      func(b *amd64Backend) { b.EmitOp(jit.OpcodeBaseARM64) },
			expReason: "not in the x64 vocabulary",
		},
		{
			name:      "arity",
			emit:      func(b *amd64Backend) { b.EmitOp(jit.OpcodeAdd, jit.Reg(jit.ScratchReg(0))) },
			expReason: "expects 2 operands but got 1",
		},
		{
			name:      "operand kind",
			emit:      func(b *amd64Backend) { b.EmitOp(jit.OpcodeAdd, jit.Reg(jit.ScratchReg(0)), jit.Imm(1)) },
			expReason: "operand 1 must be reg but was imm",
		},
		{
			name:      "undefined role",
			emit:      func(b *amd64Backend) { b.EmitOp(jit.OpcodeMove, jit.Reg(jit.LinkReg), jit.Reg(jit.ScratchReg(0))) },
			expReason: "operand 0: link is not defined on x64",
		},
		{
			name:      "scratch out of range",
			emit:      func(b *amd64Backend) { b.EmitOp(jit.OpcodeMove, jit.Reg(jit.ScratchReg(4)), jit.Reg(jit.ScratchReg(0))) },
			expReason: "operand 0: scratch[4] is not defined on x64",
		},
		{
			name:      "missing feature",
			emit:      func(b *amd64Backend) { b.EmitOp(amd64.OpcodePopcnt, jit.Reg(jit.ScratchReg(0)), jit.Reg(jit.ScratchReg(1))) },
			expReason: "requires CPU feature popcnt",
		},
		{
			name:      "after failure",
			emit:      func(b *amd64Backend) { b.Fail(); b.EmitOp(jit.OpcodeNop) },
			expReason: "backend is failed",
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			b := newAmd64Backend()
			requireViolation(t, tc.expReason, func() { tc.emit(b) })
		})
	}
}

func TestBackend_Relocations(t *testing.T) {
	b := newAmd64Backend()
	b.EmitPrologue()
	b.EmitOp(jit.OpcodeNop)
	b.AddRelocation(jit.RelocationRuntimeTableSlot, 7)
	b.EmitOp(jit.OpcodeLoad, jit.Reg(jit.ScratchReg(0)), jit.Mem(jit.ArgReg(0), 56))
	b.EmitEpilogue()
	code, err := b.Finalize(0)
	require.NoError(t, err)

	require.Len(t, code.Relocations, 1)
	r := code.Relocations[0]
	require.Equal(t, jit.RelocationRuntimeTableSlot, r.Kind)
	require.Equal(t, uint32(7), r.Symbol)
	require.Equal(t, "runtime_table_slot", r.Kind.String())

	// The relocation points at the load, right after the prologue: NOP is zero width.
	decoded := decodeAmd64(t, code.Code[r.Offset:])
	require.Equal(t, "MOV", decoded.Op.String())
}

func TestBackendState_String(t *testing.T) {
	require.Equal(t, "constructed", jit.BackendStateConstructed.String())
	require.Equal(t, "emitting", jit.BackendStateEmitting.String())
	require.Equal(t, "finalized", jit.BackendStateFinalized.String())
	require.Equal(t, "failed", jit.BackendStateFailed.String())
}

func TestAlignUp(t *testing.T) {
	require.Equal(t, int64(0), jit.AlignUp(0, 16))
	require.Equal(t, int64(16), jit.AlignUp(1, 16))
	require.Equal(t, int64(16), jit.AlignUp(16, 16))
	require.Equal(t, int64(24), jit.AlignUp(20, 8))
}
