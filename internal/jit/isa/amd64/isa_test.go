package amd64

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"

	"github.com/tetratelabs/baselinejit/internal/jit"
	"github.com/tetratelabs/baselinejit/internal/platform"
)

func newBackend(features ...platform.CpuFeature) *jit.Backend[ISA] {
	return jit.NewBackend[ISA](jit.BackendConfig{
		Features:     platform.CpuFeatureFlags(0).With(features...),
		VerifyFrames: true,
	})
}

func decode(t *testing.T, code []byte) (ret []x86asm.Inst) {
	for len(code) > 0 {
		inst, err := x86asm.Decode(code, 64)
		require.NoError(t, err)
		ret = append(ret, inst)
		code = code[inst.Len:]
	}
	return
}

func requireContractViolation(t *testing.T, f func()) {
	defer func() {
		r := recover()
		_, ok := r.(*jit.ContractViolation)
		require.True(t, ok, "expected a contract violation but got %v", r)
	}()
	f()
}

func TestRegisters(t *testing.T) {
	for _, tc := range []struct {
		role jit.Role
		exp  string
	}{
		{role: jit.FrameReg, exp: "BP"},
		{role: jit.StackReg, exp: "SP"},
		{role: jit.PCReg, exp: "R12"},
		{role: jit.ReturnReg, exp: "AX"},
		{role: jit.ArgReg(0), exp: "DI"},
		{role: jit.ArgReg(5), exp: "R9"},
		{role: jit.ScratchReg(0), exp: "R10"},
		{role: jit.ScratchReg(3), exp: "R14"},
	} {
		tc := tc
		t.Run(tc.role.String(), func(t *testing.T) {
			require.Equal(t, tc.exp, registers.Name(tc.role))
		})
	}
	require.False(t, registers.HasLinkRegister())
	require.Equal(t, 4, registers.ScratchRegisterCount())
	require.Equal(t, 6, registers.ArgRegisterCount())
}

func TestISA_FrameSize(t *testing.T) {
	for _, tc := range []struct {
		slotBytes, exp int64
	}{
		{slotBytes: 0, exp: 8},
		{slotBytes: 8, exp: 8},
		{slotBytes: 16, exp: 24},
		{slotBytes: 24, exp: 24},
		{slotBytes: 100, exp: 104},
	} {
		actual := ISA{}.FrameSize(tc.slotBytes)
		require.Equal(t, tc.exp, actual)
		require.GreaterOrEqual(t, actual, tc.slotBytes)
		// The return address, BP and three callee-saved roles are above the slots.
		require.Zero(t, (40+actual)%16)
	}
}

func TestISA_FrameLinkage(t *testing.T) {
	for _, frameSize := range []int64{8, 24, 4096} {
		require.NoError(t, jit.VerifyFrameLinkage(registers, vocabulary, prologue, epilogue, frameSize))
	}
}

func TestBackend_Finalize(t *testing.T) {
	b := newBackend()
	b.EmitPrologue()
	b.EmitOp(jit.OpcodeMoveImm, jit.Reg(jit.ReturnReg), jit.Imm(42))
	b.EmitEpilogue()
	code, err := b.Finalize(8)
	require.NoError(t, err)
	require.Equal(t, jit.BackendStateFinalized, b.State())

	var ops []x86asm.Op
	for _, inst := range decode(t, code.Code) {
		ops = append(ops, inst.Op)
	}
	require.Equal(t, []x86asm.Op{
		x86asm.PUSH, x86asm.MOV, x86asm.PUSH, x86asm.PUSH, x86asm.PUSH, x86asm.SUB,
		x86asm.MOV,
		x86asm.ADD, x86asm.POP, x86asm.POP, x86asm.POP, x86asm.POP, x86asm.RET,
	}, ops)
	require.Equal(t, byte(0x55), code.Code[0]) // PUSH RBP
	require.Equal(t, byte(0xc3), code.Code[len(code.Code)-1])

	require.Equal(t, int64(8), code.Frame.FrameSize)
	require.Equal(t, int64(1), code.Frame.SlotCount)
	require.Zero(t, code.Frame.ReturnAddressOffset)
	var saved []string
	var offsets []int64
	for _, s := range code.Frame.SavedRegisters {
		saved = append(saved, s.Name)
		offsets = append(offsets, s.Offset)
	}
	require.Equal(t, []string{"BP", "R12", "R13", "R14"}, saved)
	require.Equal(t, []int64{-8, -16, -24, -32}, offsets)

	offset, ok := code.StackPointerOffset(0)
	require.True(t, ok)
	require.Zero(t, offset)
	offset, ok = code.StackPointerOffset(1)
	require.True(t, ok)
	require.Equal(t, int64(-8), offset)
	offset, ok = code.StackPointerOffset(int64(len(code.Code) - 1))
	require.True(t, ok)
	require.Zero(t, offset)
	_, ok = code.StackPointerOffset(int64(len(code.Code)))
	require.False(t, ok)
}

func TestBackend_Popcnt(t *testing.T) {
	t.Run("feature missing", func(t *testing.T) {
		b := newBackend()
		b.EmitPrologue()
		requireContractViolation(t, func() {
			b.EmitOp(OpcodePopcnt, jit.Reg(jit.ScratchReg(0)), jit.Reg(jit.ScratchReg(1)))
		})
	})
	t.Run("feature present", func(t *testing.T) {
		b := newBackend(platform.CpuFeatureAmd64Popcnt)
		b.EmitPrologue()
		b.EmitOp(OpcodePopcnt, jit.Reg(jit.ReturnReg), jit.Reg(jit.ScratchReg(1)))
		b.EmitEpilogue()
		code, err := b.Finalize(8)
		require.NoError(t, err)

		var found bool
		for _, inst := range decode(t, code.Code) {
			if inst.Op == x86asm.POPCNT {
				require.Equal(t, x86asm.RAX, inst.Args[0])
				require.Equal(t, x86asm.R11, inst.Args[1])
				found = true
			}
		}
		require.True(t, found)
	})
}

func TestBackend_Tzcnt(t *testing.T) {
	t.Run("feature missing", func(t *testing.T) {
		b := newBackend(platform.CpuFeatureAmd64Popcnt)
		b.EmitPrologue()
		requireContractViolation(t, func() {
			b.EmitOp(OpcodeTzcnt, jit.Reg(jit.ScratchReg(0)), jit.Reg(jit.ScratchReg(1)))
		})
	})
	t.Run("feature present", func(t *testing.T) {
		b := newBackend(platform.CpuFeatureAmd64BMI1)
		b.EmitPrologue()
		b.EmitOp(OpcodeTzcnt, jit.Reg(jit.ReturnReg), jit.Reg(jit.ScratchReg(1)))
		b.EmitEpilogue()
		code, err := b.Finalize(8)
		require.NoError(t, err)

		var found bool
		for _, inst := range decode(t, code.Code) {
			if inst.Op == x86asm.TZCNT {
				require.Equal(t, x86asm.RAX, inst.Args[0])
				require.Equal(t, x86asm.R11, inst.Args[1])
				found = true
			}
		}
		require.True(t, found)
	})
}

func TestBackend_Lea(t *testing.T) {
	b := newBackend()
	b.EmitPrologue()
	b.EmitOp(OpcodeLea, jit.Reg(jit.ReturnReg), jit.Mem(jit.StackReg, 16))
	b.EmitEpilogue()
	code, err := b.Finalize(8)
	require.NoError(t, err)

	insts := decode(t, code.Code)
	lea := insts[len(prologue)]
	require.Equal(t, x86asm.LEA, lea.Op)
	require.Equal(t, x86asm.RAX, lea.Args[0])
	mem := lea.Args[1].(x86asm.Mem)
	require.Equal(t, x86asm.RSP, mem.Base)
	require.Equal(t, int64(16), mem.Disp)
}

func TestVocabulary(t *testing.T) {
	for _, tc := range []struct {
		name string
		op   jit.Opcode
	}{
		{name: "amd64.push", op: 0x200},
		{name: "amd64.pop", op: 0x201},
		{name: "amd64.lea", op: 0x202},
		{name: "amd64.popcnt", op: 0x203},
		{name: "amd64.tzcnt", op: 0x204},
	} {
		op, ok := vocabulary.ByName(tc.name)
		require.True(t, ok, tc.name)
		require.Equal(t, tc.op, op)
	}
}
