package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/tetratelabs/baselinejit"
	"github.com/tetratelabs/baselinejit/internal/disasm"
	"github.com/tetratelabs/baselinejit/internal/version"
)

func main() {
	doMain(os.Stdout, os.Stderr, os.Exit)
}

// doMain is separated out for the purpose of unit testing.
func doMain(stdOut, stdErr io.Writer, exit func(code int)) {
	flag.CommandLine.SetOutput(stdErr)

	var help bool
	flag.BoolVar(&help, "h", false, "print usage")

	var printVersion bool
	flag.BoolVar(&printVersion, "version", false, "print the version of bjitdump")

	var verbose bool
	flag.BoolVar(&verbose, "v", false, "log compilation events, including spills, to stderr")

	var hexOnly bool
	flag.BoolVar(&hexOnly, "hex", false, "print machine code as hex instead of disassembling it")

	var verifyFrames bool
	flag.BoolVar(&verifyFrames, "verify", false, "check that every epilogue undoes the prologue")

	var parallelism int
	flag.IntVar(&parallelism, "j", runtime.GOMAXPROCS(0), "number of functions compiled at the same time")

	cacheDir := flag.String("cachedir", "", "Writeable directory for compiled functions. "+
		"Contents are re-used for the same version of bjitdump.")

	flag.Parse()

	if help {
		printUsage(stdErr)
		exit(0)
	}

	if printVersion {
		fmt.Fprintln(stdOut, version.GetBaselineJITVersion())
		exit(0)
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(stdErr, "missing path to functions file")
		printUsage(stdErr)
		exit(1)
	}

	if !baselinejit.CompilerSupported {
		fmt.Fprintf(stdErr, "native code generation is not supported on %s\n", runtime.GOARCH)
		exit(1)
	}

	fns, err := loadFunctions(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(stdErr, err)
		exit(1)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stdErr, &slog.HandlerOptions{Level: level}))

	cfg := baselinejit.NewCompilerConfig().
		WithLogger(logger).
		WithParallelism(parallelism).
		WithFrameVerification(verifyFrames)
	if dir := *cacheDir; dir != "" {
		cache, err := baselinejit.NewCompilationCacheWithDir(dir)
		if err != nil {
			fmt.Fprintf(stdErr, "invalid cachedir: %v\n", err)
			exit(1)
		}
		cfg = cfg.WithCompilationCache(cache)
	}

	codes, err := baselinejit.NewCompilerWithConfig(cfg).CompileAll(context.Background(), fns)
	for i, code := range codes {
		if code == nil {
			continue
		}
		if dumpErr := dump(stdOut, fns[i], code, hexOnly); dumpErr != nil {
			err = errors.Join(err, dumpErr)
		}
	}
	if err != nil {
		fmt.Fprintf(stdErr, "error compiling functions: %v\n", err)
		exit(1)
	}
	exit(0)
}

func dump(w io.Writer, fn *baselinejit.Function, code *baselinejit.CompiledCode, hexOnly bool) error {
	fmt.Fprintf(w, "function %s (%s)\n", fn.Name, code.Arch)

	fmt.Fprintf(w, "code (%d bytes):\n", len(code.Code))
	if hexOnly {
		fmt.Fprintln(w, hex.Dump(code.Code))
	} else if err := disasm.Fprint(w, code.Arch, code.Code); err != nil {
		return err
	}

	fmt.Fprintln(w, "lir:")
	for i, text := range code.LIRText() {
		fmt.Fprintf(w, "%4d  %s\n", i, text)
	}

	fmt.Fprintln(w, "relocations:")
	for _, r := range code.Relocations {
		fmt.Fprintf(w, "  %#x  %s %d\n", r.Offset, r.Kind, r.Symbol)
	}

	f := code.Frame
	fmt.Fprintln(w, "frame:")
	fmt.Fprintf(w, "  frame register: %s\n", f.FrameRole)
	fmt.Fprintf(w, "  frame size: %d\n", f.FrameSize)
	fmt.Fprintf(w, "  slots: %d\n", f.SlotCount)
	fmt.Fprintf(w, "  return address: %d\n", f.ReturnAddressOffset)
	for _, s := range f.SavedRegisters {
		fmt.Fprintf(w, "  saved %s (%s): %d\n", s.Role, s.Name, s.Offset)
	}

	m := code.Metadata
	fmt.Fprintln(w, "metadata:")
	fmt.Fprintf(w, "  instructions: %d\n", m.InstructionCount)
	fmt.Fprintf(w, "  max stack depth: %d\n", m.MaxStackDepth)
	fmt.Fprintf(w, "  spills: %d\n", m.SpillCount)
	fmt.Fprintf(w, "  scratch registers: %d\n", m.ScratchRegisterCount)
	fmt.Fprintln(w)
	return nil
}

func printUsage(stdErr io.Writer) {
	fmt.Fprintln(stdErr, "bjitdump CLI")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Usage:\n  bjitdump <options> <path to functions file>")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Compiles the functions of a YAML file for "+runtime.GOARCH+" and prints the machine code,")
	fmt.Fprintln(stdErr, "the instruction log, relocations, the frame layout and compilation statistics.")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Options:")
	flag.PrintDefaults()
}
