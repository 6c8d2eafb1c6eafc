package unsupported

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/baselinejit/internal/jit"
)

func TestNewBackend(t *testing.T) {
	require.PanicsWithValue(t, "unsupported GOARCH "+runtime.GOARCH, func() {
		NewBackend(jit.DefaultBackendConfig())
	})
}

func TestBackend_EveryMethodPanics(t *testing.T) {
	b := &Backend{}
	for _, tc := range []struct {
		name string
		call func()
	}{
		{name: "Arch", call: func() { b.Arch() }},
		{name: "Registers", call: func() { b.Registers() }},
		{name: "Vocabulary", call: func() { b.Vocabulary() }},
		{name: "State", call: func() { b.State() }},
		{name: "EmitPrologue", call: b.EmitPrologue},
		{name: "EmitEpilogue", call: b.EmitEpilogue},
		{name: "EmitOp", call: func() { b.EmitOp(jit.OpcodeNop) }},
		{name: "AddRelocation", call: func() { b.AddRelocation(jit.RelocationRuntimeTableSlot, 0) }},
		{name: "Finalize", call: func() { _, _ = b.Finalize(0) }},
		{name: "Fail", call: b.Fail},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require.Panics(t, tc.call)
		})
	}
}

func TestDriver_DoesNotRecover(t *testing.T) {
	fn := &jit.Function{Name: "f", Code: []jit.Op{{Kind: jit.OpKindConst, Imm: 1}, {Kind: jit.OpKindReturn}}}
	d := jit.NewDriver(fn, func() *Backend { return NewBackend(jit.DefaultBackendConfig()) }, nil)
	require.Panics(t, func() { _, _ = d.Compile() })
}

func TestDriver_InvalidFunctionPanics(t *testing.T) {
	fn := &jit.Function{Name: "bad", Code: []jit.Op{{Kind: jit.OpKindAdd}, {Kind: jit.OpKindReturn}}}
	d := jit.NewDriver(fn, func() *Backend { return NewBackend(jit.DefaultBackendConfig()) }, nil)
	require.PanicsWithValue(t, "unsupported GOARCH "+runtime.GOARCH, func() { _, _ = d.Compile() })
}
