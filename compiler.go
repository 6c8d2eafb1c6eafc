// Package baselinejit compiles stack bytecode functions into native code for
// the architecture the program is built for: 386, amd64, arm, arm64, mips,
// mipsle, mips64 and mips64le.
//
// The architecture is chosen by build tags, so a Compiler never dispatches on
// it at run time. On other architectures CompilerSupported is false and
// Compile panics.
package baselinejit

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/tetratelabs/baselinejit/internal/compilationcache"
	"github.com/tetratelabs/baselinejit/internal/jit"
	"github.com/tetratelabs/baselinejit/internal/jit/target"
	"github.com/tetratelabs/baselinejit/internal/platform"
	"github.com/tetratelabs/baselinejit/internal/version"
)

type (
	// Function is the unit of compilation: a name, the number of parameters
	// and locals, and a list of Op.
	Function = jit.Function
	// Op is one bytecode operation.
	Op = jit.Op
	// OpKind is the kind of an Op.
	OpKind = jit.OpKind
	// CompiledCode is the result of a successful compilation: machine code,
	// relocations, the frame description and the instruction log.
	CompiledCode = jit.CompiledCode
	// Relocation is an entry of CompiledCode.Relocations.
	Relocation = jit.Relocation
	// Architecture identifies an instruction set.
	Architecture = jit.Architecture
)

// Arch is the architecture this build compiles for.
const Arch = target.Arch

var (
	// ErrInternalCompilerError is returned when a function can not be
	// compiled on this architecture. Callers should interpret it instead.
	ErrInternalCompilerError = jit.ErrInternalCompilerError
	// ErrInvalidFunction is returned for functions which break the stack
	// discipline or reference missing arguments or locals.
	ErrInvalidFunction = jit.ErrInvalidFunction
)

// ParseOp parses the text form of an Op, e.g. "const 42" or "call_runtime 3 2".
func ParseOp(s string) (Op, error) {
	return jit.ParseOp(s)
}

// Compiler compiles functions for Arch.
type Compiler interface {
	// Compile compiles fn. Errors wrap ErrInvalidFunction or
	// ErrInternalCompilerError, or come from the CompilationCache.
	//
	// Note: This panics when CompilerSupported is false.
	Compile(fn *Function) (*CompiledCode, error)

	// CompileAll compiles fns concurrently, bounded by
	// CompilerConfig.WithParallelism. The result has the same length as fns,
	// with nil for each function that failed, and the error joins every
	// failure. Canceling ctx stops scheduling further functions.
	CompileAll(ctx context.Context, fns []*Function) ([]*CompiledCode, error)
}

// NewCompiler returns a Compiler with NewCompilerConfig.
func NewCompiler() Compiler {
	return NewCompilerWithConfig(NewCompilerConfig())
}

// NewCompilerWithConfig returns a Compiler with the given configuration.
func NewCompilerWithConfig(cfg CompilerConfig) Compiler {
	config := cfg.(*compilerConfig)
	return &compiler{
		logger:      config.logger,
		parallelism: config.parallelism,
		backendConfig: jit.BackendConfig{
			Features:     config.cpuFeatures,
			VerifyFrames: config.verifyFrames,
		},
		cache:   config.cache,
		version: version.GetBaselineJITVersion(),
	}
}

// compiler implements Compiler.
type compiler struct {
	logger        *slog.Logger
	parallelism   int
	backendConfig jit.BackendConfig
	cache         CompilationCache
	version       string
}

// Compile implements Compiler.Compile
func (c *compiler) Compile(fn *Function) (*CompiledCode, error) {
	if c.cache == nil {
		return c.compile(fn)
	}

	key := c.cacheKey(fn)
	code, hit, err := c.getFromCache(key)
	if err != nil {
		return nil, err
	} else if hit {
		c.logger.Debug("compilation cache hit", "function", fn.Name)
		return code, nil
	}

	if code, err = c.compile(fn); err != nil {
		return nil, err
	}
	if err = c.cache.Add(key, jit.SerializeCompiledCode(c.version, code)); err != nil {
		return nil, err
	}
	return code, nil
}

func (c *compiler) compile(fn *Function) (*CompiledCode, error) {
	return target.NewCompiler(fn, c.backendConfig, c.logger).Compile()
}

// getFromCache returns the entry of key. Entries written by another version
// are deleted.
func (c *compiler) getFromCache(key compilationcache.Key) (code *CompiledCode, hit bool, err error) {
	content, ok, err := c.cache.Get(key)
	if !ok || err != nil {
		return nil, false, err
	}
	// Resolving the vocabulary panics on unsupported builds, before any content is read.
	vocab := target.Vocabulary()

	var staleCache bool
	code, staleCache, err = jit.DeserializeCompiledCode(c.version, vocab, content)
	if closeErr := content.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, false, err
	} else if staleCache {
		return nil, false, c.cache.Delete(key)
	}
	return code, true, nil
}

// cacheKey covers everything that changes the generated code except the
// version of this module, which the entry carries itself so that
// getFromCache can purge outdated entries.
func (c *compiler) cacheKey(fn *Function) (ret compilationcache.Key) {
	h := sha256.New()
	var buf [8]byte
	u64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	str := func(s string) {
		u64(uint64(len(s)))
		h.Write([]byte(s))
	}

	u64(uint64(target.Arch))
	u64(uint64(c.backendConfig.Features))
	if c.backendConfig.VerifyFrames {
		u64(1)
	} else {
		u64(0)
	}

	str(fn.Name)
	u64(uint64(fn.NumParams))
	u64(uint64(fn.NumLocals))
	u64(uint64(len(fn.Code)))
	for _, op := range fn.Code {
		u64(uint64(op.Kind))
		u64(uint64(op.Imm))
		u64(uint64(op.Args))
	}
	h.Sum(ret[:0])
	return
}

// CompileAll implements Compiler.CompileAll
func (c *compiler) CompileAll(ctx context.Context, fns []*Function) ([]*CompiledCode, error) {
	ret := make([]*CompiledCode, len(fns))
	errs := make([]error, len(fns)+1)

	var g errgroup.Group
	g.SetLimit(c.parallelism)
	for i, fn := range fns {
		if err := ctx.Err(); err != nil {
			errs[len(fns)] = fmt.Errorf("%d of %d functions not compiled: %w", len(fns)-i, len(fns), err)
			break
		}
		g.Go(func() error {
			ret[i], errs[i] = c.Compile(fn)
			return nil
		})
	}
	_ = g.Wait()
	return ret, errors.Join(errs...)
}

// CPUFeatures returns the features of the host CPU, the default of
// CompilerConfig.WithCPUFeatures.
func CPUFeatures() []CPUFeature {
	var ret []CPUFeature
	for _, f := range []CPUFeature{CPUFeatureAmd64Popcnt, CPUFeatureAmd64BMI1, CPUFeatureArm64Atomic} {
		if platform.CpuFeatures.Has(f) {
			ret = append(ret, f)
		}
	}
	return ret
}
