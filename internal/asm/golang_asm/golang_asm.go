package golang_asm

import (
	"errors"
	"fmt"
	"strings"

	goasm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/asm/arch"
	"github.com/twitchyliquid64/golang-asm/obj"

	"github.com/tetratelabs/baselinejit/internal/asm"
)

// GolangAsmNode implements Node for golang-asm library.
type GolangAsmNode struct {
	prog *obj.Prog
}

func NewGolangAsmNode(p *obj.Prog) asm.Node {
	return &GolangAsmNode{prog: p}
}

// String implements fmt.Stringer.
func (n *GolangAsmNode) String() string {
	return n.prog.String()
}

// OffsetInBinary implements Node.OffsetInBinary.
func (n *GolangAsmNode) OffsetInBinary() asm.NodeOffsetInBinary {
	return asm.NodeOffsetInBinary(n.prog.Pc)
}

// AssignSourceConstant implements Node.AssignSourceConstant.
func (n *GolangAsmNode) AssignSourceConstant(value asm.ConstantValue) {
	n.prog.From.Offset = value
}

// GolangAsmBaseAssembler implements AssemblerBase for golang-asm library.
type GolangAsmBaseAssembler struct {
	b *goasm.Builder
	// onGenerateCallbacks holds the callbacks which are called after generating native code.
	onGenerateCallbacks []func(code []byte) error
	// count is the number of instructions added after the head placeholder.
	count int
	// diagnostics are the messages golang-asm reported while assembling.
	diagnostics []string
}

var _ asm.AssemblerBase = (*GolangAsmBaseAssembler)(nil)

// NewGolangAsmBaseAssembler returns an assembler for the given golang-asm
// architecture name, such as "amd64", "386", "arm", "arm64", "mips" or "mips64le".
func NewGolangAsmBaseAssembler(goarch string) (*GolangAsmBaseAssembler, error) {
	// goasm.NewBuilder dereferences the architecture without checking it.
	if arch.Set(goarch) == nil {
		return nil, fmt.Errorf("failed to create a new assembly builder: unknown architecture %q", goarch)
	}
	b, err := goasm.NewBuilder(goarch, 1024)
	if err != nil {
		return nil, fmt.Errorf("failed to create a new assembly builder: %w", err)
	}
	a := &GolangAsmBaseAssembler{b: b}

	// The arm, arm64 and mips assemblers treat the first instruction as the TEXT
	// directive and never encode it, so the list always starts with a zero-width NOP.
	head := b.NewProg()
	head.As = obj.ANOP
	b.AddInstruction(head)

	// Every prog shares the context of the builder, whose default prints
	// diagnostics to stdout and carries on.
	head.Ctxt.DiagFunc = func(format string, args ...interface{}) {
		a.diagnostics = append(a.diagnostics, fmt.Sprintf(format, args...))
	}
	return a, nil
}

// Assemble implements AssemblerBase.Assemble
func (a *GolangAsmBaseAssembler) Assemble() ([]byte, error) {
	code := a.b.Assemble()
	if len(a.diagnostics) > 0 {
		return nil, errors.New("golang-asm: " + strings.Join(a.diagnostics, "; "))
	}
	for _, cb := range a.onGenerateCallbacks {
		if err := cb(code); err != nil {
			return nil, err
		}
	}
	return code, nil
}

// AddOnGenerateCallBack implements AssemblerBase.AddOnGenerateCallBack
func (a *GolangAsmBaseAssembler) AddOnGenerateCallBack(cb func([]byte) error) {
	a.onGenerateCallbacks = append(a.onGenerateCallbacks, cb)
}

// AddInstruction is used in architecture specific lowering for golang-asm.
func (a *GolangAsmBaseAssembler) AddInstruction(next *obj.Prog) asm.Node {
	a.b.AddInstruction(next)
	a.count++
	return NewGolangAsmNode(next)
}

// NewProg is used in architecture specific lowering for golang-asm.
func (a *GolangAsmBaseAssembler) NewProg() (prog *obj.Prog) {
	prog = a.b.NewProg()
	return
}

// InstructionCount returns the number of instructions added so far.
func (a *GolangAsmBaseAssembler) InstructionCount() int {
	return a.count
}
