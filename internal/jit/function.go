package jit

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// OpKind is the kind of a bytecode operation.
type OpKind byte

const (
	// OpKindConst pushes Imm, which must fit in 32 bits.
	OpKindConst OpKind = iota
	// OpKindGetArg pushes parameter Imm.
	OpKindGetArg
	// OpKindGetLocal pushes local Imm.
	OpKindGetLocal
	// OpKindSetLocal pops a value into local Imm.
	OpKindSetLocal
	OpKindAdd
	OpKindSub
	OpKindMul
	OpKindAnd
	OpKindOr
	OpKindXor
	// OpKindDup pushes a copy of the top value.
	OpKindDup
	// OpKindDrop pops the top value.
	OpKindDrop
	// OpKindCallRuntime pops Args values, calls the runtime helper in table
	// slot Imm with them and pushes its result.
	OpKindCallRuntime
	// OpKindReturn returns the top value. It must be the last operation.
	OpKindReturn
)

var opKindNames = [...]string{
	OpKindConst:       "const",
	OpKindGetArg:      "get_arg",
	OpKindGetLocal:    "get_local",
	OpKindSetLocal:    "set_local",
	OpKindAdd:         "add",
	OpKindSub:         "sub",
	OpKindMul:         "mul",
	OpKindAnd:         "and",
	OpKindOr:          "or",
	OpKindXor:         "xor",
	OpKindDup:         "dup",
	OpKindDrop:        "drop",
	OpKindCallRuntime: "call_runtime",
	OpKindReturn:      "return",
}

// String implements fmt.Stringer.
func (k OpKind) String() string {
	if int(k) < len(opKindNames) {
		return opKindNames[k]
	}
	return fmt.Sprintf("OpKind(%d)", k)
}

func (k OpKind) hasImm() bool {
	switch k {
	case OpKindConst, OpKindGetArg, OpKindGetLocal, OpKindSetLocal, OpKindCallRuntime:
		return true
	}
	return false
}

// Op is one bytecode operation.
type Op struct {
	Kind OpKind
	Imm  int64
	// Args is the number of arguments of OpKindCallRuntime.
	Args int
}

// String implements fmt.Stringer.
func (o Op) String() string {
	switch {
	case o.Kind == OpKindCallRuntime:
		return fmt.Sprintf("%s %d %d", o.Kind, o.Imm, o.Args)
	case o.Kind.hasImm():
		return fmt.Sprintf("%s %d", o.Kind, o.Imm)
	default:
		return o.Kind.String()
	}
}

// ParseOp parses the text form of an Op, e.g. "const 42" or "call_runtime 3 2".
func ParseOp(s string) (Op, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Op{}, fmt.Errorf("empty operation")
	}
	kind := OpKind(math.MaxUint8)
	for k, name := range opKindNames {
		if name == fields[0] {
			kind = OpKind(k)
			break
		}
	}
	if kind == OpKind(math.MaxUint8) {
		return Op{}, fmt.Errorf("unknown operation %q", fields[0])
	}

	want := 1
	if kind.hasImm() {
		want = 2
	}
	if kind == OpKindCallRuntime {
		want = 3
	}
	if len(fields) != want {
		return Op{}, fmt.Errorf("%s expects %d operands but got %d", kind, want-1, len(fields)-1)
	}

	op := Op{Kind: kind}
	if want > 1 {
		v, err := strconv.ParseInt(fields[1], 0, 64)
		if err != nil {
			return Op{}, fmt.Errorf("%s: %w", kind, err)
		}
		op.Imm = v
	}
	if want > 2 {
		v, err := strconv.Atoi(fields[2])
		if err != nil {
			return Op{}, fmt.Errorf("%s: %w", kind, err)
		}
		op.Args = v
	}
	return op, nil
}

// Function is the unit of compilation.
type Function struct {
	Name      string
	NumParams int
	NumLocals int
	Code      []Op
}

// Validate checks the stack discipline and operand ranges of f and returns the
// maximum depth of its value stack.
func (f *Function) Validate() (maxDepth int, err error) {
	if len(f.Code) == 0 {
		return 0, fmt.Errorf("%w: %s has no code", ErrInvalidFunction, f.Name)
	}
	if f.NumParams < 0 || f.NumLocals < 0 {
		return 0, fmt.Errorf("%w: %s has a negative number of params or locals", ErrInvalidFunction, f.Name)
	}
	depth := 0
	for pc, op := range f.Code {
		pops, pushes := 0, 0
		switch op.Kind {
		case OpKindConst:
			if op.Imm < math.MinInt32 || op.Imm > math.MaxInt32 {
				return 0, f.invalid(pc, op, "constant does not fit in 32 bits")
			}
			pushes = 1
		case OpKindGetArg:
			if op.Imm < 0 || op.Imm >= int64(f.NumParams) {
				return 0, f.invalid(pc, op, "parameter out of range")
			}
			pushes = 1
		case OpKindGetLocal, OpKindSetLocal:
			if op.Imm < 0 || op.Imm >= int64(f.NumLocals) {
				return 0, f.invalid(pc, op, "local out of range")
			}
			if op.Kind == OpKindGetLocal {
				pushes = 1
			} else {
				pops = 1
			}
		case OpKindAdd, OpKindSub, OpKindMul, OpKindAnd, OpKindOr, OpKindXor:
			pops, pushes = 2, 1
		case OpKindDup:
			pops, pushes = 1, 2
		case OpKindDrop:
			pops = 1
		case OpKindCallRuntime:
			if op.Imm < 0 || op.Imm > math.MaxInt32 {
				return 0, f.invalid(pc, op, "runtime slot out of range")
			}
			if op.Args < 0 {
				return 0, f.invalid(pc, op, "negative argument count")
			}
			pops, pushes = op.Args, 1
		case OpKindReturn:
			if pc != len(f.Code)-1 {
				return 0, f.invalid(pc, op, "return must be the last operation")
			}
			pops = 1
		default:
			return 0, f.invalid(pc, op, "unknown operation")
		}
		if depth < pops {
			return 0, f.invalid(pc, op, "stack underflow")
		}
		depth += pushes - pops
		if depth > maxDepth {
			maxDepth = depth
		}
	}
	if last := f.Code[len(f.Code)-1]; last.Kind != OpKindReturn {
		return 0, fmt.Errorf("%w: %s does not end with return", ErrInvalidFunction, f.Name)
	}
	return maxDepth, nil
}

func (f *Function) invalid(pc int, op Op, reason string) error {
	return fmt.Errorf("%w: %s at %d (%s): %s", ErrInvalidFunction, f.Name, pc, op, reason)
}
