package baselinejit

import (
	"path/filepath"
	goruntime "runtime"

	"github.com/tetratelabs/baselinejit/internal/compilationcache"
	"github.com/tetratelabs/baselinejit/internal/version"
)

// CompilationCache stores compiled functions so that a Compiler does not
// compile the same function twice, even across processes.
//
// Entries are keyed by the function, the version of this module and the
// compiler configuration that affects generated code. An entry written by
// another version or for another architecture is discarded on read.
//
// Since these methods are concurrently accessed, the implementations must be Goroutine-safe.
type CompilationCache interface {
	compilationcache.Cache
}

// NewCompilationCacheWithDir returns a CompilationCache which persists
// compiled functions in dirname. If dirname doesn't exist, this creates it.
//
// A version and platform specific subdirectory is used, so upgrading this
// module leaves the entries of the previous version untouched.
//
// Note: The embedder must safeguard this directory from external changes.
//
// Usage:
//
//	cache, err := baselinejit.NewCompilationCacheWithDir("/home/me/.cache/baselinejit")
//	if err != nil {
//		return err
//	}
//	c := baselinejit.NewCompilerWithConfig(baselinejit.NewCompilerConfig().WithCompilationCache(cache))
func NewCompilationCacheWithDir(dirname string) (CompilationCache, error) {
	return newCompilationCacheWithDir(dirname, version.GetBaselineJITVersion())
}

func newCompilationCacheWithDir(dirname, baselineJITVersion string) (CompilationCache, error) {
	dirname = filepath.Join(dirname, "baselinejit-"+baselineJITVersion+"-"+goruntime.GOARCH+"-"+goruntime.GOOS)
	return compilationcache.NewFileCache(dirname)
}
