package jit

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/tetratelabs/baselinejit/internal/asm"
)

func TestRole_String(t *testing.T) {
	require.Equal(t, "frame", FrameReg.String())
	require.Equal(t, "link", LinkReg.String())
	require.Equal(t, "scratch[2]", ScratchReg(2).String())
	require.Equal(t, "arg[0]", ArgReg(0).String())
}

func TestRegisterTable(t *testing.T) {
	require.Equal(t, ArchitectureX64, testTable.Arch())
	require.Equal(t, int64(8), testTable.WordSize())
	require.Equal(t, int64(16), testTable.StackAlignment())
	require.Equal(t, 2, testTable.ScratchRegisterCount())
	require.Equal(t, 2, testTable.ArgRegisterCount())
	require.False(t, testTable.HasLinkRegister())
	require.False(t, testTable.Has(LinkReg))
	require.False(t, testTable.Has(ScratchReg(2)))
	require.Equal(t, []Role{PCReg}, testTable.CalleeSaved())
	require.Equal(t, []Role{
		FrameReg, StackReg, PCReg, ReturnReg, ScratchReg(0), ScratchReg(1), ArgReg(0), ArgReg(1),
	}, testTable.Roles())
	require.Equal(t, asm.Register(x86.REG_R11), testTable.RoleToRegister(ScratchReg(1)))
	require.Equal(t, "R11", testTable.Name(ScratchReg(1)))

	func() {
		defer func() {
			cv, ok := recover().(*ContractViolation)
			require.True(t, ok)
			require.EqualError(t, cv, "contract violation: link is not defined on x64")
		}()
		testTable.RoleToRegister(LinkReg)
	}()
}

func TestNewRegisterTable_Invalid(t *testing.T) {
	for _, tc := range []struct {
		name   string
		modify func(cfg *RegisterTableConfig)
		expErr string
	}{
		{
			name:   "word size",
			modify: func(cfg *RegisterTableConfig) { cfg.WordSize = 2 },
			expErr: "word size must be 4 or 8 but was 2",
		},
		{
			name:   "alignment",
			modify: func(cfg *RegisterTableConfig) { cfg.StackAlignment = 12 },
			expErr: "invalid stack alignment 12",
		},
		{
			name:   "no scratch",
			modify: func(cfg *RegisterTableConfig) { cfg.Scratch = nil },
			expErr: "at least one scratch register is required",
		},
		{
			name:   "no args",
			modify: func(cfg *RegisterTableConfig) { cfg.Args = nil },
			expErr: "at least one argument register is required",
		},
		{
			name:   "unmapped",
			modify: func(cfg *RegisterTableConfig) { cfg.PC = asm.NilRegister },
			expErr: "pc is not mapped",
		},
		{
			name:   "aliasing scratch",
			modify: func(cfg *RegisterTableConfig) { cfg.Scratch = []asm.Register{x86.REG_AX} },
			expErr: "return and scratch[0] both map to AX",
		},
		{
			name:   "frame as callee-saved",
			modify: func(cfg *RegisterTableConfig) { cfg.CalleeSaved = []Role{FrameReg} },
			expErr: "frame is preserved by the frame link and cannot be listed as callee-saved",
		},
		{
			name:   "unmapped callee-saved",
			modify: func(cfg *RegisterTableConfig) { cfg.CalleeSaved = []Role{ScratchReg(5)} },
			expErr: "callee-saved scratch[5] is not mapped",
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := testTableConfig
			tc.modify(&cfg)
			require.PanicsWithValue(t, "BUG: invalid register table for x64: "+tc.expErr, func() {
				NewRegisterTable(cfg)
			})
		})
	}
}

func TestNewRegisterTable_ReturnAliasesFirstArgument(t *testing.T) {
	cfg := testTableConfig
	cfg.Args = []asm.Register{x86.REG_AX, x86.REG_SI}
	table := NewRegisterTable(cfg)
	require.Equal(t, table.RoleToRegister(ReturnReg), table.RoleToRegister(ArgReg(0)))
}
