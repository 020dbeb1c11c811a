// Package tools shells out to the Apple command line tools the patcher
// depends on (lipo, codesign). The Toolchain interface keeps callers
// testable with a fake; Exec is the only real implementation.
package tools

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/apex/log"
	"github.com/pkg/errors"
)

// A SignConfig configures a codesign invocation. The zero value requests
// ad-hoc signing without the hardened runtime.
type SignConfig struct {
	Identity     string // signing identity; empty means ad-hoc
	Entitlements string // path to an entitlements file
	Deep         bool
}

// A Toolchain runs the external binary manipulation tools.
type Toolchain interface {
	// Thin converts the fat binary at path into a thin one for arch.
	Thin(path, arch string) error
	// RemoveSignature removes the signature from all arch slices at path.
	RemoveSignature(path string) error
	// Sign signs the binary at path.
	Sign(path string, conf SignConfig) error
}

// An ExecError is a non-zero exit from an external tool, with the captured
// output preserved for diagnostics. Tool failures are never retried here;
// transient and permanent failures cannot be told apart.
type ExecError struct {
	Cmd      []string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ExecError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(e.Stdout)
	}
	return fmt.Sprintf("%s command (%v) failed with exit code %d: %s", e.Cmd[0], e.Cmd, e.ExitCode, msg)
}

// Exec is the process-execution Toolchain.
type Exec struct {
	log log.Interface
}

// NewExec returns a Toolchain that runs lipo and codesign as subprocesses,
// logging through the given logger.
func NewExec(logger log.Interface) *Exec {
	if logger == nil {
		logger = log.Log
	}
	return &Exec{log: logger}
}

func (e *Exec) run(name string, args ...string) error {
	e.log.Debugf("running %s %s", name, strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExecError{
				Cmd:      append([]string{name}, args...),
				ExitCode: exitErr.ExitCode(),
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
			}
		}
		return errors.Wrapf(err, "failed to run %s", name)
	}

	return nil
}

// Thin converts the given fat binary into a thin one with the specified
// target architecture, in place.
func (e *Exec) Thin(path, arch string) error {
	return e.run("lipo", "-thin", arch, path, "-output", path)
}

// RemoveSignature removes the signature from all architecture slices of the
// given binary using the codesign utility.
func (e *Exec) RemoveSignature(path string) error {
	e.log.Debugf("removing signature from file %s", path)
	return e.run("codesign", "--remove", "--all-architectures", path)
}

// Sign signs the binary using the codesign utility. If no identity is
// configured, ad-hoc signing is performed.
func (e *Exec) Sign(path string, conf SignConfig) error {
	identity := conf.Identity
	args := []string{"-s", identity, "--force", "--all-architectures", "--timestamp"}
	if identity == "" {
		args[1] = "-" // ad-hoc signing
	} else {
		args = append(args, "--options=runtime") // hardened runtime
	}
	if conf.Entitlements != "" {
		args = append(args, "--entitlements", conf.Entitlements)
	}
	if conf.Deep {
		args = append(args, "--deep")
	}
	args = append(args, path)

	e.log.Debugf("signing file %s", path)
	return e.run("codesign", args...)
}
