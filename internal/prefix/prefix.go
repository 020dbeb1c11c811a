// Package prefix locates package manager environments (Homebrew, MacPorts)
// so callers can tell whether a binary came out of one of them.
package prefix

import (
	"os/exec"
	"path/filepath"
	"strings"
)

// Homebrew returns the root path of the Homebrew environment.
func Homebrew() (string, error) {
	return fromTool("brew")
}

// MacPorts returns the root path of the MacPorts environment.
func MacPorts() (string, error) {
	return fromTool("port")
}

// fromTool derives the install prefix from the package manager's binary on
// PATH. Conversion: /usr/local/bin/brew -> /usr/local
func fromTool(tool string) (string, error) {
	p, err := exec.LookPath(tool)
	if err != nil {
		return "", err
	}
	return filepath.Dir(filepath.Dir(p)), nil
}

// IsHomebrew reports whether path lives under the Homebrew prefix.
func IsHomebrew(path string) bool {
	pre, err := Homebrew()
	return err == nil && under(path, pre)
}

// IsMacPorts reports whether path lives under the MacPorts prefix.
func IsMacPorts(path string) bool {
	pre, err := MacPorts()
	return err == nil && under(path, pre)
}

func under(path, pre string) bool {
	rel, err := filepath.Rel(pre, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
