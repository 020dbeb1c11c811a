package macho

import "fmt"

// A Version is an SDK or min OS version triplet, packed on disk as
// major<<16 | minor<<8 | revision with each component in [0,255].
type Version struct {
	Major    int
	Minor    int
	Revision int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Revision)
}

// Less orders versions lexicographically by (major, minor, revision).
func (v Version) Less(w Version) bool {
	if v.Major != w.Major {
		return v.Major < w.Major
	}
	if v.Minor != w.Minor {
		return v.Minor < w.Minor
	}
	return v.Revision < w.Revision
}

func (v Version) pack() (uint32, error) {
	for _, c := range []struct {
		name string
		val  int
	}{{"major", v.Major}, {"minor", v.Minor}, {"revision", v.Revision}} {
		if c.val < 0 || c.val > 255 {
			return 0, fmt.Errorf("invalid %s version value %d (must be within [0,255])", c.name, c.val)
		}
	}
	return uint32(v.Major)<<16 | uint32(v.Minor)<<8 | uint32(v.Revision), nil
}

func unpackVersion(u uint32) Version {
	return Version{
		Major:    int(u & 0xff0000 >> 16),
		Minor:    int(u & 0xff00 >> 8),
		Revision: int(u & 0xff),
	}
}

// GetSDKVersion returns the version of the macOS SDK against which the
// binary at path was built.
//
// NOTE: the version is read only from the first arch slice in the binary.
func GetSDKVersion(path string) (Version, error) {
	f, err := Open(path)
	if err != nil {
		return Version{}, err
	}

	vc, err := f.Slices[0].versionCommand()
	if err != nil {
		return Version{}, err
	}

	switch c := vc.(type) {
	case *BuildVersion:
		return unpackVersion(c.Sdk), nil
	case *VersionMinMacOSX:
		return unpackVersion(c.Sdk), nil
	}
	panic("unreachable")
}

// GetMinOSVersion returns the -macosx-version-min the binary at path was
// compiled against. For fat binaries the smallest version across the slices
// is returned, since the binary's effective floor is its most restrictive
// slice.
func GetMinOSVersion(path string) (Version, error) {
	f, err := Open(path)
	if err != nil {
		return Version{}, err
	}

	var minVer Version
	for i, s := range f.Slices {
		vc, err := s.versionCommand()
		if err != nil {
			return Version{}, err
		}

		var v Version
		switch c := vc.(type) {
		case *BuildVersion:
			v = unpackVersion(c.Minos)
		case *VersionMinMacOSX:
			v = unpackVersion(c.Version)
		}
		if i == 0 || v.Less(minVer) {
			minVer = v
		}
	}

	return minVer, nil
}

// SetSDKVersion overwrites the macOS SDK version declared in the binary at
// path. Each component must be within [0,255].
//
// NOTE: only the version in the first arch slice is modified.
func SetSDKVersion(path string, v Version) error {
	packed, err := v.pack()
	if err != nil {
		return err
	}

	f, err := Open(path)
	if err != nil {
		return err
	}

	vc, err := f.Slices[0].versionCommand()
	if err != nil {
		return err
	}

	switch c := vc.(type) {
	case *BuildVersion:
		c.Sdk = packed
	case *VersionMinMacOSX:
		c.Sdk = packed
	}

	return f.Save()
}
