package macho

import (
	"errors"
	"fmt"
)

// ErrCodeSigned is returned by PatchForAppendedData when the slice adjacent
// to the appended data still carries an LC_CODE_SIGNATURE load command. The
// signature has to be stripped before the link-edit sizes can be rewritten.
var ErrCodeSigned = errors.New("binary contains code signature")

// InvalidBinaryError is returned when a file does not parse as a thin or fat
// Mach-O binary.
type InvalidBinaryError struct {
	Path string
	Err  error
}

func (e *InvalidBinaryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid Mach-O binary %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("invalid Mach-O binary %s", e.Path)
}

func (e *InvalidBinaryError) Unwrap() error { return e.Err }

// IncompatibleArchError is returned when a binary does not carry the slice(s)
// required for the requested target architecture.
type IncompatibleArchError struct {
	Name   string // display name of the binary
	Target string
	Fat    bool
	Archs  []string // architectures actually present
}

func (e *IncompatibleArchError) Error() string {
	switch {
	case e.Target == ArchUniversal2:
		return fmt.Sprintf("%s is not a fat binary", e.Name)
	case e.Fat:
		return fmt.Sprintf("%s does not contain slice for %s", e.Name, e.Target)
	case len(e.Archs) > 0:
		return fmt.Sprintf("%s is incompatible with target arch %s (has arch: %s)", e.Name, e.Target, e.Archs[0])
	default:
		return fmt.Sprintf("%s is incompatible with target arch %s", e.Name, e.Target)
	}
}
