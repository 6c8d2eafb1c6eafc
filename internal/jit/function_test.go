package jit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOp(t *testing.T) {
	for _, tc := range []struct {
		in     string
		exp    Op
		expErr string
	}{
		{in: "const 42", exp: Op{Kind: OpKindConst, Imm: 42}},
		{in: "const -0x10", exp: Op{Kind: OpKindConst, Imm: -16}},
		{in: "  get_arg   1 ", exp: Op{Kind: OpKindGetArg, Imm: 1}},
		{in: "set_local 0", exp: Op{Kind: OpKindSetLocal}},
		{in: "add", exp: Op{Kind: OpKindAdd}},
		{in: "call_runtime 3 2", exp: Op{Kind: OpKindCallRuntime, Imm: 3, Args: 2}},
		{in: "return", exp: Op{Kind: OpKindReturn}},
		{in: "", expErr: "empty operation"},
		{in: "jump 1", expErr: `unknown operation "jump"`},
		{in: "add 1", expErr: "add expects 0 operands but got 1"},
		{in: "const", expErr: "const expects 1 operands but got 0"},
		{in: "call_runtime 1", expErr: "call_runtime expects 2 operands but got 1"},
		{in: "const x", expErr: `const: strconv.ParseInt: parsing "x": invalid syntax`},
		{in: "call_runtime 1 x", expErr: `call_runtime: strconv.Atoi: parsing "x": invalid syntax`},
	} {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			op, err := ParseOp(tc.in)
			if tc.expErr != "" {
				require.EqualError(t, err, tc.expErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.exp, op)
		})
	}
}

func TestOp_String(t *testing.T) {
	for _, s := range []string{"const 42", "get_local 3", "mul", "call_runtime 7 1", "return"} {
		op, err := ParseOp(s)
		require.NoError(t, err)
		require.Equal(t, s, op.String())
	}
	require.Equal(t, "OpKind(200)", OpKind(200).String())
}

func ops(t *testing.T, code ...string) []Op {
	ret := make([]Op, len(code))
	for i, s := range code {
		op, err := ParseOp(s)
		require.NoError(t, err)
		ret[i] = op
	}
	return ret
}

func TestFunction_Validate(t *testing.T) {
	for _, tc := range []struct {
		name         string
		fn           *Function
		expMaxDepth  int
		expErrSuffix string
	}{
		{
			name:        "simple",
			fn:          &Function{Name: "f", Code: ops(t, "const 1", "return")},
			expMaxDepth: 1,
		},
		{
			name: "params and locals",
			fn: &Function{Name: "f", NumParams: 2, NumLocals: 1, Code: ops(t,
				"get_arg 0", "get_arg 1", "add", "dup", "set_local 0", "get_local 0", "mul", "return")},
			expMaxDepth: 2,
		},
		{
			name:        "call_runtime",
			fn:          &Function{Name: "f", Code: ops(t, "const 1", "const 2", "const 3", "call_runtime 0 3", "return")},
			expMaxDepth: 3,
		},
		{
			name:         "empty",
			fn:           &Function{Name: "f"},
			expErrSuffix: "f has no code",
		},
		{
			name:         "negative params",
			fn:           &Function{Name: "f", NumParams: -1, Code: ops(t, "const 1", "return")},
			expErrSuffix: "f has a negative number of params or locals",
		},
		{
			name:         "wide constant",
			fn:           &Function{Name: "f", Code: ops(t, "const 0x100000000", "return")},
			expErrSuffix: "f at 0 (const 4294967296): constant does not fit in 32 bits",
		},
		{
			name:         "parameter out of range",
			fn:           &Function{Name: "f", NumParams: 1, Code: ops(t, "get_arg 1", "return")},
			expErrSuffix: "f at 0 (get_arg 1): parameter out of range",
		},
		{
			name:         "local out of range",
			fn:           &Function{Name: "f", Code: ops(t, "const 1", "set_local 0", "const 1", "return")},
			expErrSuffix: "f at 1 (set_local 0): local out of range",
		},
		{
			name:         "underflow",
			fn:           &Function{Name: "f", Code: ops(t, "const 1", "add", "return")},
			expErrSuffix: "f at 1 (add): stack underflow",
		},
		{
			name:         "negative runtime arguments",
			fn:           &Function{Name: "f", Code: []Op{{Kind: OpKindCallRuntime, Args: -1}, {Kind: OpKindReturn}}},
			expErrSuffix: "f at 0 (call_runtime 0 -1): negative argument count",
		},
		{
			name:         "return not last",
			fn:           &Function{Name: "f", Code: ops(t, "const 1", "return", "const 1", "return")},
			expErrSuffix: "f at 1 (return): return must be the last operation",
		},
		{
			name:         "no return",
			fn:           &Function{Name: "f", Code: ops(t, "const 1")},
			expErrSuffix: "f does not end with return",
		},
		{
			name:         "unknown kind",
			fn:           &Function{Name: "f", Code: []Op{{Kind: OpKind(100)}}},
			expErrSuffix: "f at 0 (OpKind(100)): unknown operation",
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			maxDepth, err := tc.fn.Validate()
			if tc.expErrSuffix != "" {
				require.ErrorIs(t, err, ErrInvalidFunction)
				require.EqualError(t, err, "invalid function: "+tc.expErrSuffix)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expMaxDepth, maxDepth)
		})
	}
}
