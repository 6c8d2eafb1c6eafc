package asm

import (
	"fmt"
	"unsafe"

	"github.com/tetratelabs/baselinejit/internal/platform"
)

// CodeSegment represents a memory mapped segment where native CPU instructions
// are written.
//
// Instances of CodeSegment hold references to memory which is NOT managed by
// the garbage collector and therefore must be released *manually* by calling
// their Unmap method to prevent memory leaks.
//
// The zero value is a valid, empty code segment.
type CodeSegment struct {
	code []byte
	size int
}

// Map copies code into a new executable memory mapping owned by the segment.
//
// The method errors if the segment is already backed by a memory mapping.
func (seg *CodeSegment) Map(code []byte) error {
	if seg.code != nil {
		return fmt.Errorf("code segment already initialized to memory mapping of size %d", len(seg.code))
	}
	if len(code) == 0 {
		return fmt.Errorf("cannot map an empty code segment")
	}
	b, err := platform.MmapCodeSegment(code)
	if err != nil {
		return err
	}
	seg.code = b
	seg.size = len(code)
	return nil
}

// Unmap unmaps the underlying memory region held by the code segment, clearing
// its state back to an empty code segment.
func (seg *CodeSegment) Unmap() error {
	if seg.code != nil {
		if err := platform.MunmapCodeSegment(seg.code[:cap(seg.code)]); err != nil {
			return err
		}
		seg.code = nil
		seg.size = 0
	}
	return nil
}

// Addr returns the address of the beginning of the code segment as a uintptr.
func (seg *CodeSegment) Addr() uintptr {
	if len(seg.code) > 0 {
		return uintptr(unsafe.Pointer(&seg.code[0]))
	}
	return 0
}

// Size returns the size of the code copied into the segment, which is less or
// equal to the length of the memory mapping.
func (seg *CodeSegment) Size() uintptr {
	return uintptr(seg.size)
}

// Bytes returns a read-only view of the mapped code.
func (seg *CodeSegment) Bytes() []byte {
	return seg.code[:seg.size]
}
