package macho

import (
	"fmt"
	"slices"
)

// ArchUniversal2 is the pseudo target architecture naming a fat binary with
// both intel and apple silicon slices.
const ArchUniversal2 = "universal2"

// ArchName converts the slice's cputype and cpusubtype into an arch string
// compatible with lipo/codesign. The list of supported architectures can be
// found in man(1) arch. An unrecognized combination is fatal, since it means
// either a corrupt binary or an ABI this mapping does not know about yet.
func (s *Slice) ArchName() (string, error) {
	subtype := s.SubCpu & CpuSubtypeMask
	switch s.Cpu {
	case CpuAmd64:
		if subtype == CpuSubtypeX86_64H {
			return "x86_64h", nil
		}
		return "x86_64", nil
	case CpuArm64:
		if subtype == CpuSubtypeArm64E {
			return "arm64e", nil
		}
		return "arm64", nil
	case Cpu386:
		return "i386", nil
	}
	return "", fmt.Errorf("unhandled architecture: cpu type %#x, subtype %#x", uint32(s.Cpu), subtype)
}

// GetArchitectures inspects the binary at path and returns whether it is a
// fat binary along with the architectures of its slices, in on-disk order.
func GetArchitectures(path string) (bool, []string, error) {
	f, err := Open(path)
	if err != nil {
		return false, nil, err
	}

	var archs []string
	for _, s := range f.Slices {
		arch, err := s.ArchName()
		if err != nil {
			return false, nil, err
		}
		archs = append(archs, arch)
	}

	return f.Fat, archs, nil
}

// A Decision is the outcome of checking a binary's slice set against a
// requested target architecture.
type Decision int

const (
	// Satisfied means the binary already matches the target.
	Satisfied Decision = iota
	// RequiresThinning means the target slice is present but the fat binary
	// has to be thinned down to it (delegated to lipo).
	RequiresThinning
	// Incompatible means the binary cannot satisfy the target.
	Incompatible
)

// EnsureTargetArch decides whether a binary with the given slice set
// satisfies the target architecture, needs thinning, or is incompatible.
func EnsureTargetArch(isFat bool, archs []string, target string) Decision {
	if target == ArchUniversal2 {
		if isFat {
			// Assume fat binary is universal2; nothing to do
			return Satisfied
		}
		return Incompatible
	}
	if isFat {
		if slices.Contains(archs, target) {
			return RequiresThinning
		}
		return Incompatible
	}
	if slices.Contains(archs, target) {
		return Satisfied
	}
	return Incompatible
}
