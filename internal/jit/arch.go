package jit

// Architecture identifies the instruction set a backend generates code for.
//
// Exactly one value is active per build; see package target.
type Architecture byte

const (
	ArchitectureUnsupported Architecture = iota
	ArchitectureX86
	ArchitectureX64
	ArchitectureARM32
	ArchitectureARM64
	ArchitectureMIPS32
	ArchitectureMIPS64
)

// Architectures lists every supported architecture in declaration order.
var Architectures = []Architecture{
	ArchitectureX86,
	ArchitectureX64,
	ArchitectureARM32,
	ArchitectureARM64,
	ArchitectureMIPS32,
	ArchitectureMIPS64,
}

// String implements fmt.Stringer.
func (a Architecture) String() (ret string) {
	switch a {
	case ArchitectureX86:
		ret = "x86"
	case ArchitectureX64:
		ret = "x64"
	case ArchitectureARM32:
		ret = "arm32"
	case ArchitectureARM64:
		ret = "arm64"
	case ArchitectureMIPS32:
		ret = "mips32"
	case ArchitectureMIPS64:
		ret = "mips64"
	default:
		ret = "unsupported"
	}
	return
}

// Supported returns true unless a is ArchitectureUnsupported.
func (a Architecture) Supported() bool {
	return a != ArchitectureUnsupported
}
