package baselinejit

import (
	"log/slog"
	"runtime"

	"github.com/tetratelabs/baselinejit/internal/platform"
)

// CompilerConfig controls compiler behavior, with the default implementation as NewCompilerConfig
//
// The example below compiles with debug logs and frame verification on:
//
//	cfg := baselinejit.NewCompilerConfig().
//		WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))).
//		WithFrameVerification(true)
//	c := baselinejit.NewCompilerWithConfig(cfg)
//
// Note: CompilerConfig is immutable. Each WithXXX function returns a new instance including the corresponding change.
type CompilerConfig interface {
	// WithLogger sets the logger of compilation events: attempts, spills and
	// aborted compilations. Defaults to discarding everything.
	WithLogger(*slog.Logger) CompilerConfig

	// WithParallelism bounds the number of functions Compiler.CompileAll
	// compiles at the same time. Defaults to runtime.GOMAXPROCS(0). Values
	// below one are treated as one.
	WithParallelism(int) CompilerConfig

	// WithCPUFeatures replaces the CPU features feature-gated opcodes may rely
	// on. Defaults to the features of the host CPU.
	//
	// Note: Code compiled for features the host lacks faults when run on it.
	WithCPUFeatures(...CPUFeature) CompilerConfig

	// WithFrameVerification symbolically checks, for every compiled function,
	// that each epilogue exactly undoes the prologue. Defaults to false, unless
	// built with the baselinejit_debug tag.
	WithFrameVerification(bool) CompilerConfig

	// WithCompilationCache configures how compiled functions are cached
	// across Compiler instances and processes. Defaults to no cache.
	//
	// See NewCompilationCacheWithDir
	WithCompilationCache(CompilationCache) CompilerConfig
}

// CPUFeature is an optional CPU capability.
type CPUFeature = platform.CpuFeature

const (
	// CPUFeatureAmd64Popcnt enables the POPCNT instruction on amd64.
	CPUFeatureAmd64Popcnt = platform.CpuFeatureAmd64Popcnt
	// CPUFeatureAmd64BMI1 enables TZCNT on amd64.
	CPUFeatureAmd64BMI1 = platform.CpuFeatureAmd64BMI1
	// CPUFeatureArm64Atomic enables the LSE atomics of ARMv8.1, such as LDADD.
	CPUFeatureArm64Atomic = platform.CpuFeatureArm64Atomic
)

type compilerConfig struct {
	logger       *slog.Logger
	parallelism  int
	cpuFeatures  platform.CpuFeatureFlags
	verifyFrames bool
	cache        CompilationCache
}

// defaultConfig helps avoid copy/pasting the wrong defaults.
var defaultConfig = &compilerConfig{
	logger:      slog.New(slog.DiscardHandler),
	parallelism: runtime.GOMAXPROCS(0),
	cpuFeatures: platform.CpuFeatures,
}

// NewCompilerConfig returns the default CompilerConfig.
func NewCompilerConfig() CompilerConfig {
	return defaultConfig.clone()
}

// clone makes a deep copy of this compiler config.
func (c *compilerConfig) clone() *compilerConfig {
	ret := *c
	return &ret
}

// WithLogger implements CompilerConfig.WithLogger
func (c *compilerConfig) WithLogger(logger *slog.Logger) CompilerConfig {
	if logger == nil {
		logger = defaultConfig.logger
	}
	ret := c.clone()
	ret.logger = logger
	return ret
}

// WithParallelism implements CompilerConfig.WithParallelism
func (c *compilerConfig) WithParallelism(parallelism int) CompilerConfig {
	if parallelism < 1 {
		parallelism = 1
	}
	ret := c.clone()
	ret.parallelism = parallelism
	return ret
}

// WithCPUFeatures implements CompilerConfig.WithCPUFeatures
func (c *compilerConfig) WithCPUFeatures(features ...CPUFeature) CompilerConfig {
	ret := c.clone()
	ret.cpuFeatures = platform.CpuFeatureFlags(0).With(features...)
	return ret
}

// WithFrameVerification implements CompilerConfig.WithFrameVerification
func (c *compilerConfig) WithFrameVerification(enabled bool) CompilerConfig {
	ret := c.clone()
	ret.verifyFrames = enabled
	return ret
}

// WithCompilationCache implements CompilerConfig.WithCompilationCache
func (c *compilerConfig) WithCompilationCache(cache CompilationCache) CompilerConfig {
	ret := c.clone()
	ret.cache = cache
	return ret
}
