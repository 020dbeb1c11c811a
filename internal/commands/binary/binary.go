// Package binary implements the packaging-side workflows over the Mach-O
// model: forcing a binary to a target architecture and preparing an
// executable with appended data for code signing.
package binary

import (
	"github.com/apex/log"
	"github.com/blacktop/machofix/internal/tools"
	"github.com/blacktop/machofix/pkg/macho"
)

// A Fixer runs binary fix-up workflows through an injected toolchain and
// logger; it holds no process-wide state.
type Fixer struct {
	tc  tools.Toolchain
	log log.Interface
}

// New returns a Fixer using the given toolchain, falling back to the real
// lipo/codesign one when tc is nil.
func New(tc tools.Toolchain, logger log.Interface) *Fixer {
	if logger == nil {
		logger = log.Log
	}
	if tc == nil {
		tc = tools.NewExec(logger)
	}
	return &Fixer{tc: tc, log: logger}
}

// RequireArchitecture checks that the binary at path carries the required
// architecture slice(s) and converts a fat binary into a thin one if
// necessary. displayName is used in error messages and defaults to path.
func (f *Fixer) RequireArchitecture(path, target, displayName string) error {
	if displayName == "" {
		displayName = path
	}

	isFat, archs, err := macho.GetArchitectures(path)
	if err != nil {
		return err
	}

	switch macho.EnsureTargetArch(isFat, archs, target) {
	case macho.Satisfied:
		return nil
	case macho.RequiresThinning:
		f.log.Debugf("converting fat binary %s (%s) to thin binary (%s)", path, displayName, target)
		return f.tc.Thin(path, target)
	default:
		return &macho.IncompatibleArchError{Name: displayName, Target: target, Fat: isFat, Archs: archs}
	}
}

// A PrepareConfig controls PrepareForSigning.
type PrepareConfig struct {
	// StripSignature removes an existing signature before patching instead
	// of failing the precondition check.
	StripSignature bool
	// Resign ad-hoc signs (or signs with Sign.Identity) after patching.
	Resign bool
	Sign   tools.SignConfig
}

// PrepareForSigning makes the executable at path signable again after data
// has been appended to it: optionally strips an existing signature, patches
// the link-edit metadata to cover the appended bytes, and optionally
// re-signs.
func (f *Fixer) PrepareForSigning(path string, conf PrepareConfig) error {
	if conf.StripSignature {
		signed, err := macho.HasSignature(path)
		if err != nil {
			return err
		}
		if signed {
			if err := f.tc.RemoveSignature(path); err != nil {
				return err
			}
		}
	}

	if err := macho.PatchForAppendedData(path); err != nil {
		return err
	}

	if conf.Resign {
		return f.tc.Sign(path, conf.Sign)
	}

	return nil
}
