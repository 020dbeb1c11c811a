package macho

import (
	"fmt"
	"os"
	"strings"
)

const (
	pageSizeArm64 = 0x4000 // 16 KiB
	pageSizeIntel = 0x1000 // 4 KiB
)

// HasSignature reports whether the last arch slice of the binary at path
// carries an LC_CODE_SIGNATURE load command. Only presence is detected; the
// signature payload itself is never parsed.
func HasSignature(path string) (bool, error) {
	f, err := Open(path)
	if err != nil {
		return false, err
	}
	return f.Slices[len(f.Slices)-1].CodeSignature() != nil, nil
}

// PatchForAppendedData fixes the Mach-O headers after arbitrary data has
// been appended past the original end of file, so the binary stays
// code-signable.
//
// The appended data is made part of the string table, which sits at the end
// of the file, by growing the declared string table size up to the new end
// of file, and the size of the containing __LINKEDIT segment is fixed up to
// match. The declared sizes on disk are never trusted: codesign under
// Mac OS 10.13 could leave a stripped binary with a __LINKEDIT size pointing
// past the end of file, so all sizes are recomputed from the final file
// length and the recorded start offsets.
//
// Only the last arch slice is touched, as it is the one adjacent to the
// appended data, whether the binary is thin or fat. That slice must not be
// signed: LC_CODE_SIGNATURE data comes after the symbol table, so the
// recomputation would corrupt the signature region. Strip the signature
// first.
func PatchForAppendedData(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	finalSize := uint64(fi.Size())

	f, err := Open(path)
	if err != nil {
		return err
	}
	s := f.Slices[len(f.Slices)-1]

	if s.CodeSignature() != nil {
		return fmt.Errorf("cannot patch %s: %w", path, ErrCodeSigned)
	}

	symtab, err := s.Symtab()
	if err != nil {
		return err
	}
	linkedit, err := s.Segment64(SegLinkedit)
	if err != nil {
		return err
	}

	// In the final binary the string table and the __LINKEDIT segment MUST
	// end at the end of the file. The offsets are relative to the start of
	// the slice, which is zero for thin binaries.
	symtab.Strsize = uint32(finalSize - (s.Offset + uint64(symtab.Stroff)))
	linkedit.Filesz = finalSize - (s.Offset + linkedit.Offset)

	arch, err := s.ArchName()
	if err != nil {
		return err
	}
	pageSize := uint64(pageSizeIntel)
	if strings.HasPrefix(arch, "arm64") {
		pageSize = pageSizeArm64
	}
	linkedit.Memsz = (linkedit.Filesz + pageSize - 1) / pageSize * pageSize

	// NOTE: Mach-O segments are supposed to be aligned to page boundaries.
	// It seems we can get away without rounding and padding the segment
	// file size, perhaps because it is the last one.

	if err := f.Save(); err != nil {
		return err
	}

	if f.Fat {
		last := len(f.Slices) - 1
		return f.writeFatSize(last, finalSize-f.FatArches[last].Offset)
	}

	return nil
}
