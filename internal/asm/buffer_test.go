package asm_test

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/baselinejit/internal/asm"
)

func TestCodeSegmentZeroValue(t *testing.T) {
	var code asm.CodeSegment
	require.Equal(t, uintptr(0), code.Addr())
	require.Equal(t, uintptr(0), code.Size())
	require.Equal(t, 0, len(code.Bytes()))
	require.NoError(t, code.Unmap())
}

func TestCodeSegmentMapUnmap(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "js" || runtime.GOOS == "wasip1" {
		t.Skip("mmap is not supported on " + runtime.GOOS)
	}

	var code asm.CodeSegment
	payload := []byte("Hello World!")
	require.NoError(t, code.Map(payload))
	require.NotEqual(t, uintptr(0), code.Addr())
	require.Equal(t, uintptr(len(payload)), code.Size())
	require.Equal(t, payload, code.Bytes())

	require.Error(t, code.Map(payload))

	for i := 0; i < 3; i++ {
		require.NoError(t, code.Unmap())
		require.Equal(t, uintptr(0), code.Addr())
		require.Equal(t, uintptr(0), code.Size())
	}
}

func TestCodeSegmentMapEmpty(t *testing.T) {
	var code asm.CodeSegment
	require.Error(t, code.Map(nil))
}
