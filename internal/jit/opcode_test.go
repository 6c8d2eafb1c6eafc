package jit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpcode_String(t *testing.T) {
	require.Equal(t, "move_imm", OpcodeMoveImm.String())
	require.True(t, OpcodeReturn.IsShared())
	require.False(t, testOpcodePush.IsShared())
	require.Equal(t, "Opcode(0x200)", testOpcodePush.String())
}

func TestOpcodeInfo_Signature(t *testing.T) {
	for _, tc := range []struct {
		op  Opcode
		exp string
	}{
		{op: OpcodeNop, exp: "nop"},
		{op: OpcodeMoveImm, exp: "move_imm reg,imm"},
		{op: OpcodeStore, exp: "store mem,reg"},
		{op: testOpcodePop, exp: "test.pop reg"},
	} {
		info, ok := testVocabulary.Lookup(tc.op)
		require.True(t, ok)
		require.Equal(t, tc.exp, info.Signature())
	}
}

func TestSharedOpcodes(t *testing.T) {
	shared := SharedOpcodes()
	require.Len(t, shared, int(opcodeSharedEnd))
	for i, info := range shared {
		require.Equal(t, Opcode(i), info.Opcode)
	}
	// The returned slice is a copy.
	shared[0].Name = "changed"
	require.Equal(t, "nop", OpcodeNop.String())
}

func TestVocabulary(t *testing.T) {
	require.Equal(t, ArchitectureX64, testVocabulary.Arch())

	op, ok := testVocabulary.ByName("test.pop")
	require.True(t, ok)
	require.Equal(t, testOpcodePop, op)
	_, ok = testVocabulary.ByName("pop")
	require.False(t, ok)

	_, ok = testVocabulary.Lookup(testOpcodePop + 1)
	require.False(t, ok)
	require.Equal(t, "Opcode(0x202)", testVocabulary.Name(testOpcodePop+1))
	require.Equal(t, "test.push", testVocabulary.Name(testOpcodePush))

	opcodes := testVocabulary.Opcodes()
	require.Len(t, opcodes, int(opcodeSharedEnd)+2)
	require.Equal(t, testOpcodePop, opcodes[len(opcodes)-1])
	require.Len(t, testVocabulary.Extension(), 2)
}

func TestNewVocabulary_Invalid(t *testing.T) {
	for _, tc := range []struct {
		name      string
		base      Opcode
		extension []OpcodeInfo
		exp       string
	}{
		{
			name: "shared range",
			base: 0x10,
			exp:  "BUG: invalid opcode range 0x10 for x64",
		},
		{
			name: "unaligned base",
			base: OpcodeBaseAMD64 + 1,
			exp:  "BUG: invalid opcode range 0x201 for x64",
		},
		{
			name:      "gap",
			base:      OpcodeBaseAMD64,
			extension: []OpcodeInfo{{Opcode: OpcodeBaseAMD64 + 1, Name: "test.a"}},
			exp:       "BUG: test.a must be numbered 0x200 but was 0x201",
		},
		{
			name:      "prefix",
			base:      OpcodeBaseAMD64,
			extension: []OpcodeInfo{{Opcode: OpcodeBaseAMD64, Name: "other.a"}},
			exp:       `BUG: other.a must be prefixed with "test."`,
		},
		{
			name: "duplicate",
			base: OpcodeBaseAMD64,
			extension: []OpcodeInfo{
				{Opcode: OpcodeBaseAMD64, Name: "test.a"},
				{Opcode: OpcodeBaseAMD64 + 1, Name: "test.a"},
			},
			exp: "BUG: duplicate opcode name test.a",
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require.PanicsWithValue(t, tc.exp, func() {
				NewVocabulary(ArchitectureX64, "test", tc.base, tc.extension)
			})
		})
	}
}

func TestOperand_String(t *testing.T) {
	for _, tc := range []struct {
		operand Operand
		exp     string
	}{
		{operand: Reg(ScratchReg(1)), exp: "scratch[1]"},
		{operand: Imm(-3), exp: "$-3"},
		{operand: Mem(StackReg, 16), exp: "16(stack)"},
		{operand: FrameSize(1), exp: "frame"},
		{operand: FrameSize(-1), exp: "-frame"},
		{operand: FrameSize(2), exp: "2*frame"},
		{operand: FrameSize(-2), exp: "-2*frame"},
		{operand: Operand{Kind: OperandKindImm, FrameScale: 1, Imm: 8}, exp: "frame+8"},
		{operand: Operand{Kind: OperandKindImm, FrameScale: -1, Imm: -8}, exp: "-frame-8"},
	} {
		require.Equal(t, tc.exp, tc.operand.String())
	}
}
