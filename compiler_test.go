package baselinejit

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/baselinejit/internal/compilationcache"
	"github.com/tetratelabs/baselinejit/internal/jit"
)

// memoryCache is a CompilationCache which counts its calls.
type memoryCache struct {
	mux                 sync.Mutex
	entries             map[compilationcache.Key][]byte
	gets, adds, deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[compilationcache.Key][]byte{}}
}

func (c *memoryCache) Get(key compilationcache.Key) (io.ReadCloser, bool, error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.gets++
	b, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return io.NopCloser(bytes.NewReader(b)), true, nil
}

func (c *memoryCache) Add(key compilationcache.Key, content io.Reader) error {
	b, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	c.mux.Lock()
	defer c.mux.Unlock()
	c.adds++
	c.entries[key] = b
	return nil
}

func (c *memoryCache) Delete(key compilationcache.Key) error {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.deletes++
	delete(c.entries, key)
	return nil
}

func mustFunction(t *testing.T, name string, params, locals int, code ...string) *Function {
	fn := &Function{Name: name, NumParams: params, NumLocals: locals}
	for _, s := range code {
		op, err := ParseOp(s)
		require.NoError(t, err)
		fn.Code = append(fn.Code, op)
	}
	return fn
}

func addFunction(t *testing.T) *Function {
	return mustFunction(t, "add", 2, 0, "get_arg 0", "get_arg 1", "add", "return")
}

func newTestCompiler(cfg CompilerConfig, version string) *compiler {
	c := NewCompilerWithConfig(cfg).(*compiler)
	c.version = version
	return c
}

func TestCompilerSupported(t *testing.T) {
	require.Equal(t, Arch != jit.ArchitectureUnsupported, CompilerSupported)
}

func TestCompiler_Compile(t *testing.T) {
	c := NewCompiler()
	if !CompilerSupported {
		require.Panics(t, func() { _, _ = c.Compile(addFunction(t)) })
		return
	}

	code, err := c.Compile(addFunction(t))
	require.NoError(t, err)
	require.Equal(t, Arch, code.Arch)
	require.NotEmpty(t, code.Code)
	require.Equal(t, 2, code.Metadata.MaxStackDepth)
	require.Zero(t, code.Metadata.SpillCount)
}

func TestCompiler_Compile_Errors(t *testing.T) {
	if !CompilerSupported {
		t.Skip()
	}
	c := NewCompiler()

	_, err := c.Compile(mustFunction(t, "no_return", 0, 0, "const 1"))
	require.ErrorIs(t, err, ErrInvalidFunction)

	_, err = c.Compile(mustFunction(t, "missing_arg", 0, 0, "get_arg 0", "return"))
	require.ErrorIs(t, err, ErrInvalidFunction)
}

func TestCompiler_CompilationCache(t *testing.T) {
	if !CompilerSupported {
		t.Skip()
	}
	cache := newMemoryCache()
	cfg := NewCompilerConfig().WithCompilationCache(cache)

	c := newTestCompiler(cfg, "v1")
	expected, err := c.Compile(addFunction(t))
	require.NoError(t, err)
	require.Equal(t, 1, cache.gets)
	require.Equal(t, 1, cache.adds)

	t.Run("hit", func(t *testing.T) {
		actual, err := newTestCompiler(cfg, "v1").Compile(addFunction(t))
		require.NoError(t, err)
		require.Equal(t, 1, cache.adds)
		require.Equal(t, expected.Code, actual.Code)
		require.Equal(t, expected.Frame, actual.Frame)
		require.Equal(t, expected.LIRText(), actual.LIRText())
		require.Equal(t, expected.StackMap(), actual.StackMap())
	})

	t.Run("configuration is part of the key", func(t *testing.T) {
		_, err := newTestCompiler(cfg.WithFrameVerification(true), "v1").Compile(addFunction(t))
		require.NoError(t, err)
		require.Equal(t, 2, cache.adds)
		require.Len(t, cache.entries, 2)
	})

	t.Run("stale", func(t *testing.T) {
		actual, err := newTestCompiler(cfg, "v2").Compile(addFunction(t))
		require.NoError(t, err)
		require.Equal(t, expected.Code, actual.Code)
		// The v1 entry was replaced by a v2 one.
		require.Equal(t, 1, cache.deletes)
		require.Equal(t, 3, cache.adds)
		require.Len(t, cache.entries, 2)
	})

	t.Run("failures are not cached", func(t *testing.T) {
		_, err := newTestCompiler(cfg, "v1").Compile(mustFunction(t, "f", 0, 0, "drop", "return"))
		require.ErrorIs(t, err, ErrInvalidFunction)
		require.Equal(t, 3, cache.adds)
	})

	t.Run("corrupt", func(t *testing.T) {
		for k, v := range cache.entries {
			cache.entries[k] = v[:len(v)/2]
		}
		_, err := newTestCompiler(cfg, "v2").Compile(addFunction(t))
		require.ErrorContains(t, err, "compilationcache:")
	})
}

func TestCompiler_cacheKey(t *testing.T) {
	c := newTestCompiler(NewCompilerConfig(), "v1")
	key := c.cacheKey(addFunction(t))

	require.Equal(t, key, c.cacheKey(addFunction(t)))
	require.Equal(t, key, newTestCompiler(NewCompilerConfig(), "v2").cacheKey(addFunction(t)))

	sub := addFunction(t)
	sub.Code[2].Kind = jit.OpKindSub
	require.NotEqual(t, key, c.cacheKey(sub))

	renamed := addFunction(t)
	renamed.Name = "add2"
	require.NotEqual(t, key, c.cacheKey(renamed))

	require.NotEqual(t, key, newTestCompiler(NewCompilerConfig().WithFrameVerification(true), "v1").cacheKey(addFunction(t)))
	require.NotEqual(t, key, newTestCompiler(NewCompilerConfig().WithCPUFeatures(CPUFeatureAmd64BMI1), "v1").cacheKey(addFunction(t)))
}

func TestCompiler_CompileAll(t *testing.T) {
	if !CompilerSupported {
		t.Skip()
	}
	fns := []*Function{
		addFunction(t),
		mustFunction(t, "invalid", 0, 0, "add", "return"),
		mustFunction(t, "const", 0, 0, "const 7", "return"),
	}

	for _, parallelism := range []int{1, 2, 8} {
		c := NewCompilerWithConfig(NewCompilerConfig().WithParallelism(parallelism))
		codes, err := c.CompileAll(context.Background(), fns)
		require.ErrorIs(t, err, ErrInvalidFunction)
		require.Len(t, codes, 3)
		require.NotNil(t, codes[0])
		require.Nil(t, codes[1])
		require.NotNil(t, codes[2])
		require.Equal(t, 1, codes[2].Metadata.MaxStackDepth)
	}
}

func TestCompiler_CompileAll_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	codes, err := NewCompiler().CompileAll(ctx, []*Function{addFunction(t), addFunction(t)})
	require.ErrorIs(t, err, context.Canceled)
	require.EqualError(t, err, "2 of 2 functions not compiled: context canceled")
	require.Equal(t, []*CompiledCode{nil, nil}, codes)
}

func TestCompiler_CompileAll_Empty(t *testing.T) {
	codes, err := NewCompiler().CompileAll(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, codes)
}

func TestNewCompilationCacheWithDir(t *testing.T) {
	dir := t.TempDir()

	cache, err := newCompilationCacheWithDir(dir, "v1")
	require.NoError(t, err)
	require.NotNil(t, cache)

	st, err := os.Stat(filepath.Join(dir, "baselinejit-v1-"+runtime.GOARCH+"-"+runtime.GOOS))
	require.NoError(t, err)
	require.True(t, st.IsDir())

	t.Run("not a directory", func(t *testing.T) {
		file := filepath.Join(dir, "file")
		require.NoError(t, os.WriteFile(file, nil, 0o600))
		_, err := newCompilationCacheWithDir(file, "v1")
		require.Error(t, err)
	})

	t.Run("round trip", func(t *testing.T) {
		if !CompilerSupported {
			t.Skip()
		}
		cfg := NewCompilerConfig().WithCompilationCache(cache)
		expected, err := NewCompilerWithConfig(cfg).Compile(addFunction(t))
		require.NoError(t, err)
		actual, err := NewCompilerWithConfig(cfg).Compile(addFunction(t))
		require.NoError(t, err)
		require.Equal(t, expected.Code, actual.Code)
	})
}
