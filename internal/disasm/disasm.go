// Package disasm decodes machine code generated by this module, for humans.
package disasm

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/arch/arm/armasm"
	"golang.org/x/arch/arm64/arm64asm"
	"golang.org/x/arch/x86/x86asm"

	"github.com/tetratelabs/baselinejit/internal/jit"
)

// Line is one decoded instruction.
type Line struct {
	Offset int
	Bytes  []byte
	// Text is in Go assembler syntax, "?" if the bytes don't decode, or a
	// .word directive on architectures without a decoder.
	Text string
}

// String implements fmt.Stringer.
func (l Line) String() string {
	return fmt.Sprintf("%6x:  %-16s  %s", l.Offset, hex.EncodeToString(l.Bytes), l.Text)
}

// Disassemble decodes code generated for arch.
//
// Bytes which don't decode print as "?" and are skipped one instruction unit
// at a time: one byte on x86 and a word elsewhere. MIPS has no decoder, so
// its words are printed as .word directives.
func Disassemble(arch jit.Architecture, code []byte) ([]Line, error) {
	var decode func(off int) (text string, size int)
	text := bytes.NewReader(code)
	switch arch {
	case jit.ArchitectureX86, jit.ArchitectureX64:
		mode := 32
		if arch == jit.ArchitectureX64 {
			mode = 64
		}
		decode = func(off int) (string, int) {
			// Truncated input can decode without error into an instruction with no opcode.
			inst, err := x86asm.Decode(code[off:], mode)
			if err != nil || inst.Op == 0 || inst.Len == 0 {
				return "?", 1
			}
			return x86asm.GoSyntax(inst, uint64(off), nil), inst.Len
		}
	case jit.ArchitectureARM32:
		decode = func(off int) (string, int) {
			inst, err := armasm.Decode(code[off:], armasm.ModeARM)
			if err != nil {
				return "?", 4
			}
			return armasm.GoSyntax(inst, uint64(off), nil, text), inst.Len
		}
	case jit.ArchitectureARM64:
		decode = func(off int) (string, int) {
			inst, err := arm64asm.Decode(code[off:])
			if err != nil {
				return "?", 4
			}
			return arm64asm.GoSyntax(inst, uint64(off), nil, text), 4
		}
	case jit.ArchitectureMIPS32, jit.ArchitectureMIPS64:
		decode = func(off int) (string, int) {
			end := min(off+4, len(code))
			return ".word 0x" + hex.EncodeToString(code[off:end]), 4
		}
	default:
		return nil, fmt.Errorf("disasm: no decoder for %s", arch)
	}

	var ret []Line
	for off := 0; off < len(code); {
		s, size := decode(off)
		end := min(off+size, len(code))
		ret = append(ret, Line{Offset: off, Bytes: code[off:end], Text: s})
		off = end
	}
	return ret, nil
}

// Fprint writes the disassembly of code to w, one instruction per line.
func Fprint(w io.Writer, arch jit.Architecture, code []byte) error {
	lines, err := Disassemble(arch, code)
	if err != nil {
		return err
	}
	for _, l := range lines {
		if _, err = fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
