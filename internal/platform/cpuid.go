package platform

import (
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// CpuFeature is a bit flag of an optional CPU capability that changes which
// instructions a backend may emit.
type CpuFeature uint64

const (
	// CpuFeatureAmd64Popcnt is the POPCNT instruction on amd64.
	CpuFeatureAmd64Popcnt CpuFeature = 1 << iota
	// CpuFeatureAmd64BMI1 is the first bit manipulation extension on amd64.
	CpuFeatureAmd64BMI1
	// CpuFeatureArm64Atomic is the LSE atomics extension (ARMv8.1) on arm64.
	CpuFeatureArm64Atomic
)

// CpuFeatureFlags is a set of CpuFeature.
type CpuFeatureFlags uint64

// CpuFeatures exposes the capabilities of the host CPU.
var CpuFeatures = loadCpuFeatureFlags()

func loadCpuFeatureFlags() (f CpuFeatureFlags) {
	switch runtime.GOARCH {
	case "amd64", "386":
		if cpu.X86.HasPOPCNT {
			f = f.With(CpuFeatureAmd64Popcnt)
		}
		if cpu.X86.HasBMI1 {
			f = f.With(CpuFeatureAmd64BMI1)
		}
	case "arm64":
		if cpu.ARM64.HasATOMICS {
			f = f.With(CpuFeatureArm64Atomic)
		}
	}
	return
}

// Has returns true if every feature in mask is present.
func (f CpuFeatureFlags) Has(mask CpuFeature) bool {
	return uint64(f)&uint64(mask) == uint64(mask)
}

// With returns a copy of f with the given features enabled.
func (f CpuFeatureFlags) With(features ...CpuFeature) CpuFeatureFlags {
	for _, feature := range features {
		f |= CpuFeatureFlags(feature)
	}
	return f
}

// String implements fmt.Stringer.
func (f CpuFeatureFlags) String() string {
	var names []string
	for bit := CpuFeatureAmd64Popcnt; bit <= CpuFeatureArm64Atomic; bit <<= 1 {
		if f.Has(bit) {
			names = append(names, bit.String())
		}
	}
	return "[" + strings.Join(names, ",") + "]"
}

// String implements fmt.Stringer.
func (c CpuFeature) String() string {
	switch c {
	case CpuFeatureAmd64Popcnt:
		return "popcnt"
	case CpuFeatureAmd64BMI1:
		return "bmi1"
	case CpuFeatureArm64Atomic:
		return "atomic"
	}
	return ""
}
