//go:build unix

package platform

import "golang.org/x/sys/unix"

func mmapCodeSegment(code []byte) ([]byte, error) {
	// Anonymous as this is not an actual file, but a memory,
	// Private as this is in-process memory region.
	mmapFunc, err := unix.Mmap(-1, 0, len(code), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}

	copy(mmapFunc, code)

	// Switch to executable only after the copy so the region is never writable and executable at once.
	if err = unix.Mprotect(mmapFunc, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		_ = unix.Munmap(mmapFunc)
		return nil, err
	}
	return mmapFunc, nil
}

func munmapCodeSegment(code []byte) error {
	return unix.Munmap(code)
}
