package jit

import (
	"errors"
	"fmt"
)

var (
	// ErrInternalCompilerError is returned when a backend detected a contract
	// violation while compiling a function. Callers should fall back to a lower
	// tier for that function.
	ErrInternalCompilerError = errors.New("internal compiler error")

	// ErrInvalidFunction is returned when the bytecode itself is malformed.
	ErrInvalidFunction = errors.New("invalid function")
)

// ContractViolation is the panic value raised by a backend when it receives
// input which a conforming driver never produces, such as an unknown opcode, an
// operand of the wrong kind or a role the architecture does not define.
//
// Only Driver recovers it; see Driver.Compile.
type ContractViolation struct {
	// Op is the name of the opcode being emitted, if any.
	Op     string
	Reason string
}

// Error implements error.
func (c *ContractViolation) Error() string {
	if c.Op == "" {
		return "contract violation: " + c.Reason
	}
	return fmt.Sprintf("contract violation in %s: %s", c.Op, c.Reason)
}

func violate(op string, format string, args ...interface{}) {
	panic(&ContractViolation{Op: op, Reason: fmt.Sprintf(format, args...)})
}
